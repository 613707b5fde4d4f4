package cmd

import (
	"context"
	"fmt"
	"strings"

	cobra "github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered by enabled servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newServiceContainer()
		if err != nil {
			return err
		}
		defer closeContainer(c)

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		tools, err := c.GetServerManager().Tools(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tools: %w", err)
		}

		if len(tools) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tools available. Enable a server that provides tools.")
			return nil
		}

		var md strings.Builder
		md.WriteString("| Tool | Server | Description |\n")
		md.WriteString("|------|--------|-------------|\n")
		for _, tool := range tools {
			md.WriteString(fmt.Sprintf("| %s | %s | %s |\n", cell(tool.Tool.Name), cell(tool.Server), cell(tool.Tool.Description)))
		}

		printMarkdown(cmd.OutOrStdout(), md.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
