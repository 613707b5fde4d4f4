package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override settings
const EnvPrefix = "MCPM"

// Config represents the mcp-manager settings
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains HTTP server settings
type APIConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	ReadTimeout    int      `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   int      `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestTimeout int      `yaml:"request_timeout" mapstructure:"request_timeout"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// PathsConfig overrides file locations. Empty values use the platform defaults.
type PathsConfig struct {
	Defaults string `yaml:"defaults" mapstructure:"defaults"`
	Editable string `yaml:"editable" mapstructure:"editable"`
	Host     string `yaml:"host" mapstructure:"host"`
	State    string `yaml:"state" mapstructure:"state"`
}

// ProbeConfig contains liveness probe settings
type ProbeConfig struct {
	Strategy    string `yaml:"strategy" mapstructure:"strategy"`
	Timeout     int    `yaml:"timeout" mapstructure:"timeout"`
	DefaultPort int    `yaml:"default_port" mapstructure:"default_port"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// Probe strategies
const (
	ProbeStrategySocket  = "socket"
	ProbeStrategyProcess = "process"
)

// StorageConfig selects and configures the persisted state backend
type StorageConfig struct {
	Type     string                `yaml:"type" mapstructure:"type"`
	SQLite   SQLiteStorageConfig   `yaml:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresStorageConfig `yaml:"postgres" mapstructure:"postgres"`
	Redis    RedisStorageConfig    `yaml:"redis" mapstructure:"redis"`
}

// Storage types
const (
	StorageTypeFile     = "file"
	StorageTypeMemory   = "memory"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
	StorageTypeRedis    = "redis"
)

// SQLiteStorageConfig contains SQLite-specific configuration
type SQLiteStorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresStorageConfig contains PostgreSQL-specific configuration
type PostgresStorageConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// RedisStorageConfig contains Redis-specific configuration
type RedisStorageConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Key      string `yaml:"key" mapstructure:"key"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Debug bool   `yaml:"debug" mapstructure:"debug"`
	Dir   string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           3456,
			ReadTimeout:    30,
			WriteTimeout:   30,
			RequestTimeout: 30,
			CORSOrigins:    []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Paths: PathsConfig{},
		Probe: ProbeConfig{
			Strategy:    ProbeStrategySocket,
			Timeout:     1,
			DefaultPort: 8080,
			Concurrency: 8,
		},
		Storage: StorageConfig{
			Type: StorageTypeFile,
			Postgres: PostgresStorageConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "mcp_manager",
				Username: "mcp_manager",
				SSLMode:  "disable",
			},
			Redis: RedisStorageConfig{
				Host: "localhost",
				Port: 6379,
				Key:  "mcp-manager:server-states",
			},
		},
		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// SetDefaults registers every default value with v so env overrides bind to known keys
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("api.host", d.API.Host)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout)
	v.SetDefault("api.write_timeout", d.API.WriteTimeout)
	v.SetDefault("api.request_timeout", d.API.RequestTimeout)
	v.SetDefault("api.cors_origins", d.API.CORSOrigins)
	v.SetDefault("paths.defaults", d.Paths.Defaults)
	v.SetDefault("paths.editable", d.Paths.Editable)
	v.SetDefault("paths.host", d.Paths.Host)
	v.SetDefault("paths.state", d.Paths.State)
	v.SetDefault("probe.strategy", d.Probe.Strategy)
	v.SetDefault("probe.timeout", d.Probe.Timeout)
	v.SetDefault("probe.default_port", d.Probe.DefaultPort)
	v.SetDefault("probe.concurrency", d.Probe.Concurrency)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.sqlite.path", d.Storage.SQLite.Path)
	v.SetDefault("storage.postgres.host", d.Storage.Postgres.Host)
	v.SetDefault("storage.postgres.port", d.Storage.Postgres.Port)
	v.SetDefault("storage.postgres.database", d.Storage.Postgres.Database)
	v.SetDefault("storage.postgres.username", d.Storage.Postgres.Username)
	v.SetDefault("storage.postgres.password", d.Storage.Postgres.Password)
	v.SetDefault("storage.postgres.ssl_mode", d.Storage.Postgres.SSLMode)
	v.SetDefault("storage.redis.host", d.Storage.Redis.Host)
	v.SetDefault("storage.redis.port", d.Storage.Redis.Port)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.key", d.Storage.Redis.Key)
	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("logging.dir", d.Logging.Dir)
}

// NewViper returns a viper instance with defaults, env binding and the settings file location set.
// configPath may be empty, in which case config.yaml is searched in the xdg config directory.
func NewViper(configPath string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
	}
	return v
}

// Load reads the settings file if present and unmarshals it over the defaults
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Debug("Config file not found, using defaults")
	} else {
		logger.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be served
func (c *Config) Validate() error {
	switch c.Probe.Strategy {
	case ProbeStrategySocket, ProbeStrategyProcess:
	default:
		return fmt.Errorf("unsupported probe strategy %q (supported: %s, %s)", c.Probe.Strategy, ProbeStrategySocket, ProbeStrategyProcess)
	}

	switch c.Storage.Type {
	case StorageTypeFile, StorageTypeMemory, StorageTypeSQLite, StorageTypePostgres, StorageTypeRedis:
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	return nil
}

// HostPaths returns the editable and host config paths, filling empty settings with platform defaults
func (c *Config) HostPaths() HostPaths {
	paths := DefaultHostPaths(runtime.GOOS, UserHome())
	if c.Paths.Editable != "" {
		paths.Editable = c.Paths.Editable
	}
	if c.Paths.Host != "" {
		paths.Host = c.Paths.Host
	}
	return paths
}

// StatePath returns the configured state file path or the xdg default
func (c *Config) StatePath() string {
	if c.Paths.State != "" {
		return c.Paths.State
	}
	return DefaultStatePath()
}

// LogDir returns the configured log directory or the xdg default
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return DefaultLogDir()
}

// SaveConfig writes the settings as YAML with 2-space indentation
func (c *Config) SaveConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create config directory", "dir", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(c); err != nil {
		logger.Error("Failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		logger.Error("Failed to write config file", "path", configPath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.Debug("Successfully saved config", "path", configPath)
	return nil
}
