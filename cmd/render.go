package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	glamour "github.com/charmbracelet/glamour"
	config "github.com/inference-gateway/mcp-manager/config"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	icons "github.com/inference-gateway/mcp-manager/internal/ui/styles/icons"
	truncate "github.com/muesli/reflow/truncate"
)

const cellWidth = 48

func renderMarkdown(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return "", err
	}

	return r.Render(markdown)
}

// printMarkdown renders md for the terminal and falls back to the raw text
func printMarkdown(w io.Writer, md string) {
	rendered, err := renderMarkdown(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, rendered)
}

// cell shortens s for a table cell and escapes the characters markdown tables care about
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = truncate.StringWithTail(s, cellWidth, "…")
	return strings.ReplaceAll(s, "|", `\|`)
}

func envKeys(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// serversMarkdown builds the server table. statuses may be nil, which omits the status column.
func serversMarkdown(servers config.ServerSet, statuses map[string]domain.ServerStatus, paths config.HostPaths) string {
	var md strings.Builder
	md.WriteString("**MCP SERVERS**\n\n")
	md.WriteString(fmt.Sprintf("**Editable Config:** `%s`  \n", paths.Editable))
	md.WriteString(fmt.Sprintf("**Host Config:** `%s`  \n", paths.Host))
	md.WriteString(fmt.Sprintf("**Servers:** %d total, %d enabled\n\n", len(servers), servers.Enabled()))

	if statuses != nil {
		md.WriteString("| Enabled | Status | ID | Command | Args | Env |\n")
		md.WriteString("|---------|--------|----|---------|------|-----|\n")
	} else {
		md.WriteString("| Enabled | ID | Command | Args | Env |\n")
		md.WriteString("|---------|----|---------|------|-----|\n")
	}

	for _, id := range servers.SortedIDs() {
		entry := servers[id]
		enabled := icons.Enabled(!entry.Disabled)
		args := cell(strings.Join(entry.Args, " "))
		env := cell(envKeys(entry.Env))

		if statuses != nil {
			status, ok := statuses[id]
			if !ok {
				status = domain.StatusUnknown
			}
			md.WriteString(fmt.Sprintf("| %s | %s %s | %s | %s | %s | %s |\n",
				enabled, icons.Status(status), status, cell(id), cell(entry.Command), args, env))
			continue
		}
		md.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			enabled, cell(id), cell(entry.Command), args, env))
	}

	md.WriteString(fmt.Sprintf("\n%s = enabled, %s = disabled\n", icons.CheckMark, icons.CrossMark))
	return md.String()
}

// probeMarkdown builds the probe result table for the given ids
func probeMarkdown(strategy string, ids []string, results map[string]domain.ProbeResult) string {
	var md strings.Builder
	md.WriteString(fmt.Sprintf("**LIVENESS** (strategy: %s)\n\n", strategy))
	md.WriteString("| Status | ID | Details |\n")
	md.WriteString("|--------|----|---------|\n")

	for _, id := range ids {
		result, ok := results[id]
		status := domain.StatusUnknown
		if ok {
			status = result.Status()
		}
		md.WriteString(fmt.Sprintf("| %s %s | %s | %s |\n", icons.Status(status), status, cell(id), cell(probeDetails(result))))
	}
	return md.String()
}

func probeDetails(result domain.ProbeResult) string {
	if result.Error != "" {
		return result.Error
	}
	d := result.Details
	if d == nil {
		return ""
	}
	switch {
	case d.Port > 0:
		return fmt.Sprintf("port %d", d.Port)
	case d.Count > 0:
		return fmt.Sprintf("%d process(es): %s", d.Count, d.Sample)
	default:
		return "no matching process"
	}
}

// pathsMarkdown lists every location mcp-manager reads or writes
func pathsMarkdown(rows [][2]string) string {
	var md strings.Builder
	md.WriteString("| | Purpose | Path |\n")
	md.WriteString("|-|---------|------|\n")
	for _, row := range rows {
		exists := icons.CrossMark
		if _, err := os.Stat(row[1]); err == nil {
			exists = icons.CheckMark
		}
		md.WriteString(fmt.Sprintf("| %s | %s | `%s` |\n", exists, row[0], row[1]))
	}
	md.WriteString(fmt.Sprintf("\n%s = exists, %s = missing\n", icons.CheckMark, icons.CrossMark))
	return md.String()
}
