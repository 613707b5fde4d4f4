package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MCPM_TEST_PROBE_STRATEGY=process\nMCPM_TEST_PRESET=from-file\n"), 0644))

	t.Setenv("MCPM_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("MCPM_TEST_PROBE_STRATEGY") })

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "process", os.Getenv("MCPM_TEST_PROBE_STRATEGY"))
	assert.Equal(t, "from-env", os.Getenv("MCPM_TEST_PRESET"))

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env")))
	assert.NoError(t, loadEnvFile(""))
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"config", "probe", "serve", "servers", "tools", "version"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}

	for _, sub := range []string{"list", "show", "add", "update", "remove", "enable", "disable", "import", "export"} {
		cmd, _, err := rootCmd.Find([]string{"servers", sub})
		require.NoError(t, err, sub)
		assert.Equal(t, sub, cmd.Name())
	}

	for _, sub := range []string{"init", "show", "paths", "set"} {
		cmd, _, err := rootCmd.Find([]string{"config", sub})
		require.NoError(t, err, sub)
		assert.Equal(t, sub, cmd.Name())
	}
}
