package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// WriteViperConfigWithIndent writes the settings held by v as YAML with the given
// indentation, to the file v loaded or to the default settings path, and returns the path.
func WriteViperConfigWithIndent(v *viper.Viper, indent int) (string, error) {
	filename := v.ConfigFileUsed()
	if filename == "" {
		filename = config.DefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var buf bytes.Buffer
	yamlEncoder := yaml.NewEncoder(&buf)
	yamlEncoder.SetIndent(indent)

	if err := yamlEncoder.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := yamlEncoder.Close(); err != nil {
		return "", fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return filename, nil
}
