package cmd

import (
	"fmt"
	"os"

	config "github.com/inference-gateway/mcp-manager/config"
	services "github.com/inference-gateway/mcp-manager/internal/services"
	icons "github.com/inference-gateway/mcp-manager/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcp-manager settings",
	Long:  `Manage the mcp-manager settings: API server, file locations, probe strategy, state storage and logging.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the default values",
	Long: `Write config.yaml with the default settings to the --config path or the default
location. Every value can also be set with an MCPM_ environment variable, for example
MCPM_PROBE_STRATEGY=process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := settingsPath()

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if !overwrite {
				return fmt.Errorf("configuration file %s already exists (use --overwrite to replace)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Successfully created %s\n", icons.StyledCheckMark(), configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return encoder.Close()
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show every file location mcp-manager uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return err
		}

		hostPaths := cfg.HostPaths()
		rows := [][2]string{
			{"Settings", settingsPath()},
			{"Editable config", hostPaths.Editable},
			{"Host config", hostPaths.Host},
			{"Log directory", cfg.LogDir()},
		}
		switch cfg.Storage.Type {
		case config.StorageTypeFile:
			rows = append(rows, [2]string{"Server state", cfg.StatePath()})
		case config.StorageTypeSQLite:
			path := cfg.Storage.SQLite.Path
			if path == "" {
				path = config.DefaultSQLitePath()
			}
			rows = append(rows, [2]string{"Server state (sqlite)", path})
		}
		if cfg.Paths.Defaults != "" {
			rows = append(rows, [2]string{"Default servers", cfg.Paths.Defaults})
		}

		printMarkdown(cmd.OutOrStdout(), pathsMarkdown(rows))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting and save it to the settings file",
	Long: `Set a setting using dot notation and write the settings file.

Examples:
  mcp-manager config set probe.strategy process
  mcp-manager config set api.port 4000
  mcp-manager config set storage.type sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return err
		}

		if err := services.NewConfigService(V, cfg).SetValue(args[0], args[1]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", icons.StyledCheckMark(), args[0], args[1])
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("overwrite", false, "Overwrite an existing settings file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

// settingsPath returns the settings file in use, the --config value or the default location
func settingsPath() string {
	if V != nil && V.ConfigFileUsed() != "" {
		return V.ConfigFileUsed()
	}
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}
