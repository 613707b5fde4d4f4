package utils

import (
	"os"
	"strconv"
	"strings"
)

// InContainerEnv forces container detection on or off
const InContainerEnv = "MCPM_IN_CONTAINER"

// IsRunningInContainer reports whether mcp-manager runs inside a container, where
// localhost socket probes only reach ports of the container itself.
func IsRunningInContainer() bool {
	return detectContainer(os.Getenv, "/.dockerenv", "/proc/self/cgroup")
}

func detectContainer(getenv func(string) string, dockerEnvPath, cgroupPath string) bool {
	if forced, err := strconv.ParseBool(getenv(InContainerEnv)); err == nil {
		return forced
	}

	if _, err := os.Stat(dockerEnvPath); err == nil {
		return true
	}

	if data, err := os.ReadFile(cgroupPath); err == nil {
		content := string(data)
		for _, marker := range []string{"docker", "kubepods", "containerd", "libpod"} {
			if strings.Contains(content, marker) {
				return true
			}
		}
	}

	return getenv("KUBERNETES_SERVICE_HOST") != ""
}
