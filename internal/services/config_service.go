package services

import (
	"fmt"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/utils"
	"github.com/spf13/viper"
)

// ConfigService manages the mcp-manager settings file
type ConfigService struct {
	viper  *viper.Viper
	config *config.Config
}

// NewConfigService creates a new config service
func NewConfigService(v *viper.Viper, cfg *config.Config) *ConfigService {
	return &ConfigService{
		viper:  v,
		config: cfg,
	}
}

// GetConfig returns the current config
func (cs *ConfigService) GetConfig() *config.Config {
	return cs.config
}

// Reload reloads configuration from disk
func (cs *ConfigService) Reload() (*config.Config, error) {
	newConfig, err := config.Load(cs.viper)
	if err != nil {
		return nil, fmt.Errorf("failed to reload config: %w", err)
	}
	cs.config = newConfig
	return newConfig, nil
}

// SetValue sets a known key using dot notation, writes the settings file and reloads it
func (cs *ConfigService) SetValue(key, value string) error {
	if !cs.viper.IsSet(key) {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	previous := cs.viper.Get(key)
	cs.viper.Set(key, value)

	probe := config.DefaultConfig()
	if err := cs.viper.Unmarshal(probe); err != nil {
		cs.viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := probe.Validate(); err != nil {
		cs.viper.Set(key, previous)
		return err
	}

	path, err := utils.WriteViperConfigWithIndent(cs.viper, 2)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	cs.viper.SetConfigFile(path)

	if _, err := cs.Reload(); err != nil {
		return fmt.Errorf("failed to reload config after setting: %w", err)
	}
	return nil
}
