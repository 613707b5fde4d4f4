package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	config "github.com/inference-gateway/mcp-manager/config"
	container "github.com/inference-gateway/mcp-manager/internal/container"
	logger "github.com/inference-gateway/mcp-manager/internal/logger"
	cobra "github.com/spf13/cobra"
	viper "github.com/spf13/viper"
	gotenv "github.com/subosito/gotenv"
)

// V holds the settings loaded for the current invocation
var V *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "mcp-manager",
	Short: "Manage MCP server configurations for Claude Desktop and Cline",
	Long: `mcp-manager views and edits the mcpServers configuration read by MCP host
applications. It merges a built-in default set, your editable configuration and the
persisted enable flags, writes the result back to the host config files, and reports
whether configured servers appear to be running.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Welcome to mcp-manager!")
		fmt.Fprintln(cmd.OutOrStdout(), "Use 'mcp-manager servers list' to see configured servers or --help to see available commands.")
	},
}

func Execute() {
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath()))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("env-file", ".env", "file with environment overrides, ignored when missing")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envFile, err)
		os.Exit(1)
	}

	V = config.NewViper(configPath)
	cfg, err := config.Load(V)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(verbose || cfg.Logging.Debug, cfg.LogDir())
}

// loadEnvFile applies KEY=VALUE pairs from path without overriding variables already set
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return gotenv.Load(path)
}

func getConfigFromViper() (*config.Config, error) {
	if V == nil {
		V = config.NewViper("")
	}
	return config.Load(V)
}

// newServiceContainer loads the settings and wires the services. Callers must Close it.
func newServiceContainer() (*container.ServiceContainer, error) {
	cfg, err := getConfigFromViper()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return container.NewServiceContainer(cfg, V)
}

func closeContainer(c *container.ServiceContainer) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close state storage", "error", err)
	}
}
