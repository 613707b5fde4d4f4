package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"

	config "github.com/inference-gateway/mcp-manager/config"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	logger "github.com/inference-gateway/mcp-manager/internal/logger"
	utils "github.com/inference-gateway/mcp-manager/internal/utils"
	cobra "github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe [id]",
	Short: "Check whether configured servers appear to be running",
	Long: `Probe one server, or every configured server with --all or no id.

The socket strategy (default) resolves the server's command on PATH and connects to
localhost on its port: env MCP_PORT, then --port in its args, then the configured
default. The process strategy looks for a running process whose command line carries
the server's command and arguments. Select one with probe.strategy in the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Bool("all", false, "Probe every configured server")
	probeCmd.Flags().String("strategy", "", "Override the probe strategy (socket or process)")

	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if all && len(args) > 0 {
		return fmt.Errorf("use either an id or --all")
	}

	if strategy, _ := cmd.Flags().GetString("strategy"); strategy != "" {
		V.Set("probe.strategy", strategy)
	}

	c, err := newServiceContainer()
	if err != nil {
		return err
	}
	defer closeContainer(c)

	if c.GetConfig().Probe.Strategy == config.ProbeStrategySocket && utils.IsRunningInContainer() {
		logger.Warn("Running inside a container, socket probes only reach ports of this container")
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: running inside a container; localhost probes only see this container.")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	tracker := c.GetStatusTracker()
	results := make(map[string]domain.ProbeResult)
	var ids []string

	if len(args) == 1 {
		id := args[0]
		result, err := tracker.ProbeOne(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to probe %s: %w", id, err)
		}
		ids = []string{id}
		results[id] = result
	} else {
		statuses, err := tracker.ProbeAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to probe servers: %w", err)
		}
		ids = slices.Sorted(maps.Keys(statuses))
		for _, id := range ids {
			if result, ok := tracker.Result(id); ok {
				results[id] = result
			}
		}
	}

	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No MCP servers configured.")
		return nil
	}

	printMarkdown(cmd.OutOrStdout(), probeMarkdown(tracker.Strategy(), ids, results))
	return nil
}
