package container

import (
	"fmt"
	"time"

	config "github.com/inference-gateway/mcp-manager/config"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	handlers "github.com/inference-gateway/mcp-manager/internal/handlers"
	storage "github.com/inference-gateway/mcp-manager/internal/infra/storage"
	logger "github.com/inference-gateway/mcp-manager/internal/logger"
	metrics "github.com/inference-gateway/mcp-manager/internal/metrics"
	services "github.com/inference-gateway/mcp-manager/internal/services"
	viper "github.com/spf13/viper"
)

// ServiceContainer manages all application dependencies
type ServiceContainer struct {
	// Configuration
	viper         *viper.Viper
	config        *config.Config
	configService *services.ConfigService

	// Infrastructure
	storage storage.StateStorage
	metrics *metrics.Metrics

	// Domain services
	mcpConfigService *services.MCPConfigService
	prober           domain.Prober
	statusTracker    *services.StatusTracker
}

// NewServiceContainer creates a new service container with all dependencies.
// The caller owns the container and must Close it.
func NewServiceContainer(cfg *config.Config, v *viper.Viper) (*ServiceContainer, error) {
	c := &ServiceContainer{
		viper:   v,
		config:  cfg,
		metrics: metrics.New(),
	}

	if v != nil {
		c.configService = services.NewConfigService(v, cfg)
	}

	if err := c.initializeStorage(); err != nil {
		return nil, err
	}
	if err := c.initializeDomainServices(); err != nil {
		_ = c.storage.Close()
		return nil, err
	}

	return c, nil
}

func (c *ServiceContainer) initializeStorage() error {
	store, err := storage.NewStorage(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize state storage: %w", err)
	}
	c.storage = store
	logger.Debug("State storage initialized", "type", c.config.Storage.Type, "location", store.Location())
	return nil
}

func (c *ServiceContainer) initializeDomainServices() error {
	c.mcpConfigService = services.NewMCPConfigService(c.config.Paths.Defaults, c.config.HostPaths(), c.storage, c.metrics)

	prober, err := services.NewProber(c.config.Probe, c.metrics)
	if err != nil {
		return err
	}
	c.prober = prober
	c.statusTracker = services.NewStatusTracker(c.mcpConfigService, prober, c.config.Probe.Concurrency, c.metrics)
	return nil
}

// GetConfig returns the loaded settings
func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

// GetViper returns the viper instance the settings were loaded from
func (c *ServiceContainer) GetViper() *viper.Viper {
	return c.viper
}

// GetConfigService returns the settings service, nil when no viper instance was given
func (c *ServiceContainer) GetConfigService() *services.ConfigService {
	return c.configService
}

func (c *ServiceContainer) GetStorage() storage.StateStorage {
	return c.storage
}

func (c *ServiceContainer) GetMetrics() *metrics.Metrics {
	return c.metrics
}

// GetServerManager returns the MCP configuration service
func (c *ServiceContainer) GetServerManager() domain.ServerManager {
	return c.mcpConfigService
}

func (c *ServiceContainer) GetProber() domain.Prober {
	return c.prober
}

func (c *ServiceContainer) GetStatusTracker() *services.StatusTracker {
	return c.statusTracker
}

// NewAPIHandler builds the HTTP API handler over the container's services
func (c *ServiceContainer) NewAPIHandler() *handlers.APIHandler {
	timeout := time.Duration(c.config.API.RequestTimeout) * time.Second
	return handlers.NewAPIHandler(c.mcpConfigService, c.statusTracker, c.storage, timeout)
}

// NewWebSocketHandler builds the status stream handler
func (c *ServiceContainer) NewWebSocketHandler() *handlers.WebSocketHandler {
	return handlers.NewWebSocketHandler(c.statusTracker, c.metrics)
}

// Close releases the state storage
func (c *ServiceContainer) Close() error {
	if c.storage == nil {
		return nil
	}
	return c.storage.Close()
}
