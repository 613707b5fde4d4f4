package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/inference-gateway/mcp-manager/internal/infra/storage"
	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/inference-gateway/mcp-manager/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
)

const (
	msgStateOnly     = "Server state saved successfully. No configuration files were found to update."
	msgSaved         = "Configurations saved successfully"
	msgSomeMissing   = " (some files were not found)"
	msgRestartSuffix = ". Please restart Claude to apply changes."
)

// MCPConfigService reads and writes the MCP server configuration: the editable
// config, the host config and the persisted enable flags.
type MCPConfigService struct {
	defaultsPath string
	paths        config.HostPaths
	store        storage.StateStorage
	metrics      *metrics.Metrics
}

// NewMCPConfigService creates a new MCP config service. An empty defaultsPath
// selects the embedded default set; m may be nil.
func NewMCPConfigService(defaultsPath string, paths config.HostPaths, store storage.StateStorage, m *metrics.Metrics) *MCPConfigService {
	return &MCPConfigService{
		defaultsPath: defaultsPath,
		paths:        paths,
		store:        store,
		metrics:      m,
	}
}

// Paths returns the editable and host config locations
func (s *MCPConfigService) Paths() config.HostPaths {
	return s.paths
}

// StateLocation describes where the enable flags are persisted
func (s *MCPConfigService) StateLocation() string {
	return s.store.Location()
}

// EffectiveConfig merges the default set, the editable config and the persisted state
func (s *MCPConfigService) EffectiveConfig(ctx context.Context) (config.ServerSet, error) {
	defaults, err := config.DefaultServerSet(s.defaultsPath)
	if err != nil {
		return nil, err
	}

	saved, err := ReadServerFile(s.paths.Editable)
	if err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load server state: %w", err)
	}

	merged := Merge(defaults, saved, state)
	logger.Debug("Merged server configuration", "defaults", len(defaults), "saved", len(saved), "states", len(state), "servers", len(merged))
	return merged, nil
}

// HostConfig returns the raw contents of the host config
func (s *MCPConfigService) HostConfig(_ context.Context) (config.ServerSet, error) {
	return ReadServerFile(s.paths.Host)
}

// SaveConfig persists servers. The state is always written; the editable and
// host configs are only written when the files already exist. Every target is
// attempted and failures are reported together.
func (s *MCPConfigService) SaveConfig(ctx context.Context, servers config.ServerSet) (*domain.SaveResult, error) {
	if servers == nil {
		return nil, domain.ErrNoServers
	}

	start := time.Now()
	editableExists := fileExists(s.paths.Editable)
	hostExists := fileExists(s.paths.Host)

	artifacts := Save(servers)

	var errs []error
	if err := s.store.Replace(ctx, artifacts.State); err != nil {
		errs = append(errs, fmt.Errorf("state: %w", err))
	} else {
		logger.Info("Server state saved", "location", s.store.Location(), "servers", len(artifacts.State))
	}

	if editableExists {
		if err := writeJSONFile(s.paths.Editable, artifacts.Full); err != nil {
			errs = append(errs, fmt.Errorf("editable config %s: %w", s.paths.Editable, err))
		} else {
			logger.Info("Editable configuration saved", "path", s.paths.Editable)
		}
	} else {
		logger.Debug("Skipping editable config save as file does not exist", "path", s.paths.Editable)
	}

	if hostExists {
		if err := writeJSONFile(s.paths.Host, artifacts.Filtered); err != nil {
			errs = append(errs, fmt.Errorf("host config %s: %w", s.paths.Host, err))
		} else {
			logger.Info("Host configuration saved", "path", s.paths.Host, "enabled", len(artifacts.Filtered.MCPServers))
		}
	} else {
		logger.Debug("Skipping host config save as file does not exist", "path", s.paths.Host)
	}

	if len(errs) > 0 {
		s.metrics.ObserveSave(false, time.Since(start))
		logger.Error("Failed to save configurations", "error", errors.Join(errs...))
		return nil, fmt.Errorf("failed to save configurations: %w", errors.Join(errs...))
	}
	s.metrics.ObserveSave(true, time.Since(start))

	if !editableExists && !hostExists {
		return &domain.SaveResult{Success: true, Message: msgStateOnly}, nil
	}

	message := msgSaved
	if !editableExists || !hostExists {
		message += msgSomeMissing
	}
	return &domain.SaveResult{Success: true, Message: message + msgRestartSuffix}, nil
}

// AddServer adds a new server and saves
func (s *MCPConfigService) AddServer(ctx context.Context, id string, entry config.ServerEntry) (*domain.SaveResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: server id is required", domain.ErrInvalidServer)
	}

	clean := entry.Sanitize()
	if clean.Command == "" {
		return nil, fmt.Errorf("%w: command is required", domain.ErrInvalidServer)
	}

	current, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := current[id]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrServerExists, id)
	}

	current[id] = clean
	logger.Info("Adding MCP server", "server", id, "command", clean.Command)
	return s.SaveConfig(ctx, current)
}

// UpdateServer replaces the entry of oldID and renames it to newID when they differ.
// The previous disabled flag and unknown keys are kept unless entry carries its own.
func (s *MCPConfigService) UpdateServer(ctx context.Context, oldID, newID string, entry config.ServerEntry) (*domain.SaveResult, error) {
	newID = strings.TrimSpace(newID)
	if newID == "" {
		newID = oldID
	}

	current, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	previous, ok := current[oldID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServerNotFound, oldID)
	}
	if newID != oldID {
		if _, exists := current[newID]; exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrServerExists, newID)
		}
	}

	clean := entry.Sanitize()
	if clean.Command == "" {
		return nil, fmt.Errorf("%w: command is required", domain.ErrInvalidServer)
	}
	if !entry.SetsDisabled() {
		clean.Disabled = previous.Disabled
	}
	if clean.Extra == nil {
		clean.Extra = maps.Clone(previous.Extra)
	}

	delete(current, oldID)
	current[newID] = clean

	if newID != oldID {
		logger.Info("Renaming MCP server", "from", oldID, "to", newID)
	} else {
		logger.Info("Updating MCP server", "server", newID)
	}
	return s.SaveConfig(ctx, current)
}

// RemoveServer deletes a server and saves. Its persisted flag goes with it.
func (s *MCPConfigService) RemoveServer(ctx context.Context, id string) (*domain.SaveResult, error) {
	current, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := current[id]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServerNotFound, id)
	}

	delete(current, id)
	logger.Info("Removing MCP server", "server", id)
	return s.SaveConfig(ctx, current)
}

// SetDisabled toggles a server and saves
func (s *MCPConfigService) SetDisabled(ctx context.Context, id string, disabled bool) (*domain.SaveResult, error) {
	current, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := current[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServerNotFound, id)
	}

	entry.Disabled = disabled
	current[id] = entry
	logger.Info("Setting MCP server state", "server", id, "disabled", disabled)
	return s.SaveConfig(ctx, current)
}

// ImportJSON adds the servers of a pasted {"mcpServers": {...}} document whose ids
// are not configured yet. Existing ids are reported as skipped and left untouched.
func (s *MCPConfigService) ImportJSON(ctx context.Context, text string) (*domain.ImportResult, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrInvalidServer)
	}

	servers := gjson.Get(text, "mcpServers")
	if !servers.Exists() {
		return nil, domain.ErrNoServers
	}
	if !servers.IsObject() {
		return nil, fmt.Errorf("%w: mcpServers must be an object", domain.ErrInvalidServer)
	}

	incoming, err := config.ParseServerSet([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidServer, err)
	}

	current, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Added: []string{}, Skipped: []string{}}
	for _, id := range incoming.SortedIDs() {
		if _, exists := current[id]; exists {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		current[id] = incoming[id].Sanitize()
		result.Added = append(result.Added, id)
	}
	result.Imported = len(result.Added)

	if result.Imported == 0 {
		logger.Info("Import added no servers", "skipped", len(result.Skipped))
		return result, nil
	}

	if _, err := s.SaveConfig(ctx, current); err != nil {
		return nil, err
	}
	logger.Info("Imported MCP servers", "imported", result.Imported, "skipped", len(result.Skipped))
	return result, nil
}

// toolCatalog lists the tools each known server provides
func toolCatalog() map[string][]mcp.Tool {
	return map[string][]mcp.Tool{
		config.ManagerServerID: {
			mcp.NewTool("launch_manager",
				mcp.WithDescription("Launch the MCP Server Manager interface"),
			),
		},
	}
}

// Tools returns the tools of every enabled server found in the catalog
func (s *MCPConfigService) Tools(ctx context.Context) ([]domain.ServerTool, error) {
	servers, err := s.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	catalog := toolCatalog()
	tools := []domain.ServerTool{}
	for _, id := range servers.SortedIDs() {
		provided, ok := catalog[id]
		if !ok || servers[id].Disabled {
			continue
		}
		for _, tool := range provided {
			tools = append(tools, domain.ServerTool{Tool: tool, Server: id})
		}
	}
	return tools, nil
}

// ReadServerFile reads the mcpServers map of a config file. A missing file is an empty set.
func ReadServerFile(path string) (config.ServerSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No existing config found, using empty config", "path", path)
		return config.ServerSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := config.ParseMCPConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg.MCPServers, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeJSONFile(path string, v any) error {
	data, err := config.MarshalIndented(v)
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
