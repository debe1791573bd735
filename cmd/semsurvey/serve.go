package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/semsurvey/api"
	"github.com/c360studio/semsurvey/config"
	"github.com/c360studio/semsurvey/graph"
	"github.com/c360studio/semsurvey/ingest"
	"github.com/c360studio/semsurvey/mapping"
	"github.com/c360studio/semsurvey/metrics"
	"github.com/c360studio/semsurvey/vocabulary"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion HTTP service",
		Long: `Serve loads the vocabulary and question mapping registries, connects
the configured graph backend, and exposes the ingestion API over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	return cmd
}

func runServe(configPath string) error {
	logger := slog.Default()

	cfg, err := loadServeConfig(configPath, logger)
	if err != nil {
		return err
	}

	vocab, err := vocabulary.LoadGlobal(cfg.Registry.VocabularyPath)
	if err != nil {
		return fmt.Errorf("load vocabulary registry: %w", err)
	}
	questions, err := mapping.LoadGlobal(cfg.Registry.QuestionMappingPath)
	if err != nil {
		return fmt.Errorf("load question mapping registry: %w", err)
	}
	logger.Info("Registries loaded",
		"vocabulary_path", cfg.Registry.VocabularyPath,
		"question_mapping_path", cfg.Registry.QuestionMappingPath,
		"question_mapping_version", questions.Version(),
		"instruments", len(questions.Instruments()))

	ctx := context.Background()
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	writer, cleanup, err := buildGraphWriter(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	service := ingest.NewService(writer, ingest.NewMapper(questions, vocab), vocab,
		ingest.WithLogger(logger),
		ingest.WithMetrics(m),
	)

	mux := http.NewServeMux()
	api.NewHandler(service, vocab, questions, logger).RegisterHTTPHandlers("ingestion", mux)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.Registry.Watch {
		watcher, err := config.NewRegistryWatcher(logger,
			cfg.Registry.VocabularyPath,
			cfg.Registry.QuestionMappingPath,
		)
		if err != nil {
			return fmt.Errorf("create registry watcher: %w", err)
		}
		if err := watcher.Start(signalCtx); err != nil {
			return fmt.Errorf("start registry watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	server := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ingestion API listening", "addr", cfg.API.ListenAddr, "backend", cfg.Graph.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-signalCtx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down http server", "error", err)
	}

	logger.Info("Semsurvey shutdown complete")
	return nil
}

// loadServeConfig loads an explicit config file when given, otherwise the
// layered defaults/user/project/env configuration.
func loadServeConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildGraphWriter constructs the configured graph backend. The returned
// cleanup closes any held connections and is safe to call once.
func buildGraphWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ingest.GraphWriter, func(), error) {
	noop := func() {}

	switch cfg.Graph.Backend {
	case config.BackendEcho:
		return graph.NewEchoWriter(), noop, nil

	case config.BackendHTTP:
		writer, err := graph.NewHTTPWriter(graph.HTTPWriterConfig{
			BaseURL:    cfg.Graph.HTTP.BaseURL,
			IngestPath: cfg.Graph.HTTP.IngestPath,
			BatchPath:  cfg.Graph.HTTP.BatchPath,
			APIKey:     cfg.Graph.HTTP.APIKey,
			Timeout:    cfg.Graph.HTTP.Timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create http graph writer: %w", err)
		}
		return writer, noop, nil

	case config.BackendNATS:
		client, err := connectToNATS(ctx, cfg.Graph.NATS.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		writer := graph.NewNATSWriter(client,
			graph.WithSubject(cfg.Graph.NATS.Subject),
			graph.WithNATSLogger(logger),
		)
		cleanup := func() { client.Close(context.Background()) }
		return writer, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown graph backend %q", cfg.Graph.Backend)
	}
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set SEMSURVEY_NATS_URL to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
