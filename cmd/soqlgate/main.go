// Package main provides the entry point for the soqlgate MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atlasfield/soqlgate/cmd/soqlgate/config"
	"github.com/atlasfield/soqlgate/pkg/cache"
	"github.com/atlasfield/soqlgate/pkg/infrastructure/metrics"
	"github.com/atlasfield/soqlgate/pkg/salesforce"
	"github.com/atlasfield/soqlgate/pkg/sanitize"
	"github.com/atlasfield/soqlgate/pkg/tools"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "soqlgate",
	Short: "Salesforce MCP gateway",
	Long: `An MCP server exposing Salesforce query, search, and metadata tools.

soqlgate validates and analyzes SOQL before it reaches the org, sanitizes
records on the way out, and speaks MCP over stdio or streamable HTTP.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the soqlgate MCP server",
	Long: `Start the soqlgate MCP server with the specified configuration.

Example:
  soqlgate serve --config ./config.yaml
  soqlgate serve --transport http --address 0.0.0.0:8080
  SOQLGATE_SF_USERNAME=jo@example.com soqlgate serve --sf-domain https://example.my.salesforce.com`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Command flags
	serveCmd.Flags().StringP("config", "c", "", "config file path")
	serveCmd.Flags().String("transport", "stdio", "MCP transport (stdio, http)")
	serveCmd.Flags().String("address", "0.0.0.0:8080", "listen address for the http transport")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().Int("max-rows", 2000, "maximum records returned by query and search tools")
	serveCmd.Flags().Bool("metrics", true, "enable Prometheus metrics")
	serveCmd.Flags().String("metrics-address", ":9090", "metrics server address")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().Bool("describe-cache", true, "cache object describes")
	serveCmd.Flags().Int("describe-cache-entries", 200, "maximum cached describes")
	serveCmd.Flags().Duration("describe-cache-ttl", 5*time.Minute, "describe cache entry lifetime")
	serveCmd.Flags().String("sf-domain", "", "Salesforce instance URL (empty starts disconnected)")
	serveCmd.Flags().String("sf-username", "", "Salesforce username")
	serveCmd.Flags().String("sf-password", "", "Salesforce password")
	serveCmd.Flags().String("sf-security-token", "", "Salesforce security token")
	serveCmd.Flags().String("sf-consumer-key", "", "connected app consumer key")
	serveCmd.Flags().String("sf-consumer-secret", "", "connected app consumer secret")
	serveCmd.Flags().String("sf-access-token", "", "pre-issued access token")
	serveCmd.Flags().String("sf-jwt-key", "", "PEM key file for the JWT bearer flow")
	serveCmd.Flags().String("sf-token-cache", "", "encrypted token cache path")

	// Bind flags to viper
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	viper.SetEnvPrefix("SOQLGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("soqlgate Salesforce MCP gateway\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Commit:     %s\n", commit)
			fmt.Printf("Build Date: %s\n", buildDate)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel)
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("transport", cfg.Transport).
		Msg("Starting soqlgate MCP server")

	// Metrics collector and side listener
	var metricsCollector metrics.Collector
	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		promCollector := metrics.NewPrometheusCollector()
		metricsCollector = promCollector
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Address, promCollector.Registry())
		go func() {
			logger.Info().Str("address", cfg.Metrics.Address).Msg("Starting metrics server")
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start metrics server")
			}
		}()
	} else {
		metricsCollector = metrics.NewNoOpCollector()
	}

	// Describe cache
	var describeCache cache.Cache
	if cfg.DescribeCache.Enabled {
		describeCache = cache.NewMemoryCache(cache.DefaultConfig().
			WithMaxEntries(cfg.DescribeCache.MaxEntries).
			WithTTL(cfg.DescribeCache.TTL))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Salesforce connection. A missing domain starts the gateway
	// disconnected; tools then fail individually with CONNECTION_FAILED.
	var client salesforce.Client
	if cfg.IsConnected() {
		restClient, err := salesforce.NewClient(ctx, &cfg.Salesforce, describeCache,
			&loggerAdapter{logger: logger.With().Str("component", "salesforce").Logger()})
		if err != nil {
			return fmt.Errorf("failed to connect to salesforce: %w", err)
		}
		client = restClient
	} else {
		logger.Warn().Msg("No Salesforce domain configured; starting disconnected")
	}

	// Sanitization pipeline reuses the client as its describe source.
	var describes sanitize.DescribeProvider
	if client != nil {
		describes = client
	}
	pipeline := sanitize.NewPipeline(describes,
		&loggerAdapter{logger: logger.With().Str("component", "sanitize").Logger()})

	// MCP server and tools
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "soqlgate",
		Version: version,
	}, nil)

	registry := tools.NewRegistry(client, pipeline, metricsCollector,
		&loggerAdapter{logger: logger.With().Str("component", "tools").Logger()},
		cfg.MaxRows)
	registry.Register(server)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	var httpServer *http.Server

	switch cfg.Transport {
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, nil)
		httpServer = &http.Server{
			Addr:    cfg.Address,
			Handler: handler,
		}
		go func() {
			logger.Info().Str("address", cfg.Address).Msg("Server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- fmt.Errorf("server error: %w", err)
			}
		}()
	default:
		go func() {
			logger.Info().Msg("Serving MCP over stdio")
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
				serverErrCh <- fmt.Errorf("server error: %w", err)
			}
			// stdio closing is a normal shutdown
			cancel()
		}()
	}

	select {
	case <-shutdownCh:
		logger.Info().Msg("Received shutdown signal")
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("Starting graceful shutdown")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Error during server shutdown")
		}
	}
	cancel()

	if describeCache != nil {
		if err := describeCache.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing describe cache")
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("Server shutdown complete")
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// Load config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &config.Config{
		Transport:       viper.GetString("transport"),
		Address:         viper.GetString("address"),
		LogLevel:        viper.GetString("log-level"),
		MaxRows:         viper.GetInt("max-rows"),
		ShutdownTimeout: viper.GetDuration("shutdown-timeout"),
		Salesforce: salesforce.Config{
			Domain:         viper.GetString("sf-domain"),
			Username:       viper.GetString("sf-username"),
			Password:       viper.GetString("sf-password"),
			SecurityToken:  viper.GetString("sf-security-token"),
			ConsumerKey:    viper.GetString("sf-consumer-key"),
			ConsumerSecret: viper.GetString("sf-consumer-secret"),
			AccessToken:    viper.GetString("sf-access-token"),
			JWTKeyPath:     viper.GetString("sf-jwt-key"),
			TokenCachePath: viper.GetString("sf-token-cache"),
		},
		Metrics: config.MetricsConfig{
			Enabled: viper.GetBool("metrics"),
			Address: viper.GetString("metrics-address"),
		},
		DescribeCache: config.CacheConfig{
			Enabled:    viper.GetBool("describe-cache"),
			MaxEntries: viper.GetInt("describe-cache-entries"),
			TTL:        viper.GetDuration("describe-cache-ttl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setupLogging(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			return fmt.Sprintf("%s:%d", short, line)
		}
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	// Logs go to stderr: stdout carries the MCP stdio transport.
	logger := zerolog.New(os.Stderr).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", "soqlgate")

	if logLevel == zerolog.DebugLevel {
		logger = logger.Caller()
	}

	return logger.Logger()
}

// loggerAdapter adapts zerolog.Logger to the per-package Logger interfaces.
type loggerAdapter struct {
	logger zerolog.Logger
}

func (l *loggerAdapter) Debug(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *loggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Info(), msg, keysAndValues)
}

func (l *loggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Warn(), msg, keysAndValues)
}

func (l *loggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	l.emit(l.logger.Error(), msg, keysAndValues)
}

func (l *loggerAdapter) emit(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		event = event.Interface(key, keysAndValues[i+1])
	}
	event.Msg(msg)
}
