package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	config "github.com/inference-gateway/mcp-manager/config"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	services "github.com/inference-gateway/mcp-manager/internal/services"
	icons "github.com/inference-gateway/mcp-manager/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

var serversCmd = &cobra.Command{
	Use:     "servers",
	Aliases: []string{"server", "mcp"},
	Short:   "Manage configured MCP servers",
	Long: `List, add, edit, rename, remove, enable and disable MCP servers. Every change is
saved to the persisted state and to the editable and host config files that exist.`,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured MCP servers",
	Long:  `Display the effective configuration: the default set merged with your editable config and the persisted enable flags.`,
	Args:  cobra.NoArgs,
	RunE:  listServers,
}

var serversShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one server as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  showServer,
}

var serversAddCmd = &cobra.Command{
	Use:   "add <id> <command> [args...]",
	Short: "Add a new MCP server",
	Long: `Add a new MCP server. Arguments after the command are passed to the server;
use -- to separate arguments that look like flags.

Examples:
  mcp-manager servers add filesystem npx -- -y @modelcontextprotocol/server-filesystem /tmp
  mcp-manager servers add search node server.js --env API_KEY=secret --env MCP_PORT=9000`,
	Args: cobra.MinimumNArgs(2),
	RunE: addServer,
}

var serversUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update or rename an existing MCP server",
	Long: `Update an existing MCP server. Only the given flags change the entry.

Examples:
  mcp-manager servers update filesystem --command uvx
  mcp-manager servers update filesystem --arg server --arg /data
  mcp-manager servers update filesystem --rename fs`,
	Args: cobra.ExactArgs(1),
	RunE: updateServer,
}

var serversRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove an MCP server",
	Args:    cobra.ExactArgs(1),
	RunE:    removeServer,
}

var serversEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable an MCP server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setServerDisabled(cmd, args[0], false)
	},
}

var serversDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an MCP server",
	Long:  `Disable an MCP server. It stays in the editable config and is left out of the host config.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setServerDisabled(cmd, args[0], true)
	},
}

var serversImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import servers from a JSON document",
	Long: `Import the servers of a {"mcpServers": {...}} document. Ids that are already
configured are skipped. Reads standard input when no file or "-" is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: importServers,
}

var serversExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the effective configuration as JSON",
	Long:  `Print the effective configuration, or with --host the filtered document written to the host config.`,
	Args:  cobra.NoArgs,
	RunE:  exportServers,
}

func init() {
	serversCmd.AddCommand(serversListCmd)
	serversCmd.AddCommand(serversShowCmd)
	serversCmd.AddCommand(serversAddCmd)
	serversCmd.AddCommand(serversUpdateCmd)
	serversCmd.AddCommand(serversRemoveCmd)
	serversCmd.AddCommand(serversEnableCmd)
	serversCmd.AddCommand(serversDisableCmd)
	serversCmd.AddCommand(serversImportCmd)
	serversCmd.AddCommand(serversExportCmd)

	serversListCmd.Flags().Bool("probe", false, "Probe every server and show its liveness")
	serversListCmd.Flags().Bool("json", false, "Print the effective configuration as JSON")

	serversAddCmd.Flags().StringArrayP("env", "e", []string{}, "Environment variable KEY=VALUE (repeatable)")
	serversAddCmd.Flags().Bool("disabled", false, "Add the server disabled")

	serversUpdateCmd.Flags().String("command", "", "Replace the command")
	serversUpdateCmd.Flags().StringArray("arg", []string{}, "Replace the arguments (repeatable)")
	serversUpdateCmd.Flags().Bool("clear-args", false, "Remove all arguments")
	serversUpdateCmd.Flags().StringArrayP("env", "e", []string{}, "Replace the environment with KEY=VALUE pairs (repeatable)")
	serversUpdateCmd.Flags().Bool("clear-env", false, "Remove all environment variables")
	serversUpdateCmd.Flags().String("rename", "", "New id for the server")

	serversExportCmd.Flags().Bool("host", false, "Export the filtered host config instead")
	serversExportCmd.Flags().StringP("output", "o", "", "Write to a file instead of standard output")

	rootCmd.AddCommand(serversCmd)
}

// parseEnvPairs turns KEY=VALUE flags into a map. The value may contain '='.
func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid env %q: expected KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}

func printSaveResult(w io.Writer, action, id string, result *domain.SaveResult) {
	fmt.Fprintf(w, "%s %s: %s\n", icons.StyledCheckMark(), action, id)
	if result != nil {
		fmt.Fprintf(w, "%s\n", result.Message)
	}
}

func listServers(cmd *cobra.Command, args []string) error {
	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	servers, err := c.GetServerManager().EffectiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load MCP config: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := config.MarshalIndented(config.MCPConfig{MCPServers: servers})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if len(servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No MCP servers configured.")
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "To add a server: mcp-manager servers add <id> <command> [args...]")
		return nil
	}

	var statuses map[string]domain.ServerStatus
	if probe, _ := cmd.Flags().GetBool("probe"); probe {
		statuses, err = c.GetStatusTracker().ProbeAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to probe servers: %w", err)
		}
	}

	printMarkdown(cmd.OutOrStdout(), serversMarkdown(servers, statuses, c.GetServerManager().Paths()))
	return nil
}

func showServer(cmd *cobra.Command, args []string) error {
	id := args[0]

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	servers, err := c.GetServerManager().EffectiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load MCP config: %w", err)
	}
	entry, ok := servers[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrServerNotFound, id)
	}

	data, err := config.MarshalIndented(map[string]config.ServerEntry{id: entry})
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func addServer(cmd *cobra.Command, args []string) error {
	id := args[0]

	envPairs, _ := cmd.Flags().GetStringArray("env")
	disabled, _ := cmd.Flags().GetBool("disabled")

	env, err := parseEnvPairs(envPairs)
	if err != nil {
		return err
	}

	entry := config.NewServerEntry(args[1], args[2:], env)
	entry.Disabled = disabled

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	result, err := c.GetServerManager().AddServer(ctx, id, entry)
	if err != nil {
		return fmt.Errorf("failed to add MCP server: %w", err)
	}

	printSaveResult(cmd.OutOrStdout(), "MCP server added", id, result)
	return nil
}

func updateServer(cmd *cobra.Command, args []string) error {
	id := args[0]

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	manager := c.GetServerManager()
	servers, err := manager.EffectiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load MCP config: %w", err)
	}
	current, ok := servers[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrServerNotFound, id)
	}

	entry, err := applyUpdateFlags(cmd, current)
	if err != nil {
		return err
	}
	rename, _ := cmd.Flags().GetString("rename")

	result, err := manager.UpdateServer(ctx, id, rename, entry)
	if err != nil {
		return fmt.Errorf("failed to update MCP server: %w", err)
	}

	if rename != "" && rename != id {
		printSaveResult(cmd.OutOrStdout(), "MCP server renamed", fmt.Sprintf("%s -> %s", id, rename), result)
		return nil
	}
	printSaveResult(cmd.OutOrStdout(), "MCP server updated", id, result)
	return nil
}

// applyUpdateFlags returns a copy of current with the changed flags applied
func applyUpdateFlags(cmd *cobra.Command, current config.ServerEntry) (config.ServerEntry, error) {
	entry := current.Clone()
	flags := cmd.Flags()

	if flags.Changed("command") {
		entry.Command, _ = flags.GetString("command")
	}

	if reset, _ := flags.GetBool("clear-args"); reset {
		entry.Args = []string{}
	}
	if flags.Changed("arg") {
		entry.Args, _ = flags.GetStringArray("arg")
	}

	if reset, _ := flags.GetBool("clear-env"); reset {
		entry.Env = map[string]string{}
	}
	if flags.Changed("env") {
		pairs, _ := flags.GetStringArray("env")
		env, err := parseEnvPairs(pairs)
		if err != nil {
			return config.ServerEntry{}, err
		}
		entry.Env = env
	}

	return entry, nil
}

func removeServer(cmd *cobra.Command, args []string) error {
	id := args[0]

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	result, err := c.GetServerManager().RemoveServer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to remove MCP server: %w", err)
	}

	printSaveResult(cmd.OutOrStdout(), "MCP server removed", id, result)
	if id == config.ManagerServerID {
		fmt.Fprintln(cmd.OutOrStdout(), "Note: this server is part of the default set and reappears on the next read.")
	}
	return nil
}

func setServerDisabled(cmd *cobra.Command, id string, disabled bool) error {
	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	result, err := c.GetServerManager().SetDisabled(ctx, id, disabled)
	if err != nil {
		return fmt.Errorf("failed to update MCP server: %w", err)
	}

	action := "MCP server enabled"
	if disabled {
		action = "MCP server disabled"
	}
	printSaveResult(cmd.OutOrStdout(), action, id, result)
	return nil
}

func importServers(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import document: %w", err)
	}

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	result, err := c.GetServerManager().ImportJSON(ctx, string(data))
	if err != nil {
		return fmt.Errorf("failed to import servers: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Successfully imported %d server(s)\n", icons.StyledCheckMark(), result.Imported)
	for _, id := range result.Added {
		fmt.Fprintf(out, "  + %s\n", id)
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped existing: %s\n", strings.Join(result.Skipped, ", "))
	}
	return nil
}

func exportServers(cmd *cobra.Command, args []string) error {
	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	servers, err := c.GetServerManager().EffectiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load MCP config: %w", err)
	}

	artifacts := services.Save(servers)
	var doc any = artifacts.Full
	if host, _ := cmd.Flags().GetBool("host"); host {
		doc = artifacts.Filtered
	}

	data, err := config.MarshalIndented(doc)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d server(s) to %s\n", icons.StyledCheckMark(), len(servers), output)
	return nil
}
