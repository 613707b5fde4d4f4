package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	config "github.com/inference-gateway/mcp-manager/config"
	container "github.com/inference-gateway/mcp-manager/internal/container"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	handlers "github.com/inference-gateway/mcp-manager/internal/handlers"
	logger "github.com/inference-gateway/mcp-manager/internal/logger"
	utils "github.com/inference-gateway/mcp-manager/internal/utils"
	cobra "github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the live status stream",
	Long: `Start an HTTP API server that exposes the MCP server configuration to a UI or
other local clients. It serves the effective configuration, saves changes to the
persisted state and the host config files, probes server liveness and streams status
transitions over a WebSocket.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromViper()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		port, _ := cmd.Flags().GetInt("port")
		host, _ := cmd.Flags().GetString("host")
		probeOnStart, _ := cmd.Flags().GetBool("probe-on-start")

		if port != 0 {
			cfg.API.Port = port
		}
		if host != "" {
			cfg.API.Host = host
		}

		return startAPIServer(cmd.OutOrStdout(), cfg, probeOnStart)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "API server port (default: 3456)")
	serveCmd.Flags().String("host", "", "API server host (default: 127.0.0.1)")
	serveCmd.Flags().Bool("probe-on-start", true, "Probe every configured server once the server is up")
}

func startAPIServer(out io.Writer, cfg *config.Config, probeOnStart bool) error {
	services, err := container.NewServiceContainer(cfg, V)
	if err != nil {
		return err
	}
	defer closeContainer(services)

	if err := checkStorageHealth(services); err != nil {
		logger.Warn("Storage health check failed", "error", err)
		fmt.Fprintf(out, "Warning: Storage backend may not be available: %v\n", err)
	}
	if cfg.Probe.Strategy == config.ProbeStrategySocket && utils.IsRunningInContainer() {
		logger.Warn("Running inside a container, socket probes only reach ports of this container")
	}

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return &domain.PortCollisionError{Port: strconv.Itoa(cfg.API.Port)}
		}
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	handler := setupHTTPHandlers(cfg, services.NewAPIHandler(), services.NewWebSocketHandler(), services)
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.API.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.API.WriteTimeout) * time.Second,
	}

	serverErrors := make(chan error, 1)
	serverReady := make(chan struct{})
	go startServerAsync(out, server, listener, cfg, serverErrors, serverReady)

	if probeOnStart {
		go func() {
			<-serverReady
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := services.GetStatusTracker().ProbeAll(ctx); err != nil {
				logger.Warn("Initial probe failed", "error", err)
			}
		}()
	}

	return waitForShutdown(out, server, serverErrors)
}

func checkStorageHealth(services *container.ServiceContainer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return services.GetStorage().Health(ctx)
}

func setupHTTPHandlers(cfg *config.Config, apiHandler *handlers.APIHandler, wsHandler *handlers.WebSocketHandler, services *container.ServiceContainer) http.Handler {
	mux := handlers.NewRouter(apiHandler, wsHandler, services.GetMetrics())

	handler := http.Handler(mux)
	if len(cfg.API.CORSOrigins) > 0 {
		handler = enableCORS(handler, cfg.API.CORSOrigins)
	}

	return handler
}

func startServerAsync(out io.Writer, server *http.Server, listener net.Listener, cfg *config.Config, serverErrors chan error, serverReady chan struct{}) {
	addr := listener.Addr().String()
	logger.Info("Starting API server", "address", addr)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	if waitForServerReady(addr) {
		printServerInfo(out, addr, cfg)
		close(serverReady)
	}
}

func waitForServerReady(addr string) bool {
	apiURL := fmt.Sprintf("http://%s/health", addr)
	for i := 0; i < 20; i++ {
		time.Sleep(100 * time.Millisecond)
		resp, err := http.Get(apiURL)
		if err == nil {
			if closeErr := resp.Body.Close(); closeErr != nil {
				logger.Warn("Failed to close response body", "error", closeErr)
			}
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
	}
	return false
}

func printServerInfo(out io.Writer, addr string, cfg *config.Config) {
	fmt.Fprintf(out, "API server listening on http://%s\n", addr)
	fmt.Fprintf(out, "   Storage: %s\n", cfg.Storage.Type)
	fmt.Fprintf(out, "   Probe strategy: %s\n", cfg.Probe.Strategy)
	fmt.Fprintf(out, "\nAvailable endpoints:\n")
	fmt.Fprintf(out, "   GET    /health                      - Health check\n")
	fmt.Fprintf(out, "   GET    /metrics                     - Prometheus metrics\n")
	fmt.Fprintf(out, "   WS     /ws                          - Live server status\n")
	fmt.Fprintf(out, "   GET    /api/v1/platform             - Platform and config paths\n")
	fmt.Fprintf(out, "   GET    /api/v1/config               - Effective configuration\n")
	fmt.Fprintf(out, "   POST   /api/v1/config               - Save configuration\n")
	fmt.Fprintf(out, "   GET    /api/v1/host-config          - Host config file\n")
	fmt.Fprintf(out, "   GET    /api/v1/tools                - Tools of enabled servers\n")
	fmt.Fprintf(out, "   POST   /api/v1/servers              - Add server\n")
	fmt.Fprintf(out, "   PUT    /api/v1/servers/:id          - Update or rename server\n")
	fmt.Fprintf(out, "   DELETE /api/v1/servers/:id          - Remove server\n")
	fmt.Fprintf(out, "   POST   /api/v1/servers/:id/enable   - Enable server\n")
	fmt.Fprintf(out, "   POST   /api/v1/servers/:id/disable  - Disable server\n")
	fmt.Fprintf(out, "   POST   /api/v1/servers/:id/probe    - Probe server\n")
	fmt.Fprintf(out, "   POST   /api/v1/probe                - Probe all servers\n")
	fmt.Fprintf(out, "   GET    /api/v1/status               - Last known statuses\n")
	fmt.Fprintf(out, "   POST   /api/v1/import               - Import servers from JSON\n\n")
}

func waitForShutdown(out io.Writer, server *http.Server, serverErrors chan error) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("Shutting down API server", "signal", sig)
		fmt.Fprintf(out, "\nShutting down gracefully...\n")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Warn("Failed to force close server", "error", closeErr)
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// enableCORS wraps the handler with CORS middleware
func enableCORS(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
			}
			w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", handlers.RequestIDHeader}, ", "))
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
