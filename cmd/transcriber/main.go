package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaidonaljbaae/audio-transcription-processing/internal/config"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/convert"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/metrics"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/pipeline"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/server"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/split"
	"github.com/zaidonaljbaae/audio-transcription-processing/internal/transcription"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-transcription-processing"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load .env if present so TRANSCRIPTION_API_KEY can live outside the
	// YAML file.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("input_dir", cfg.Pipeline.InputDir),
		slog.String("work_dir", cfg.Pipeline.WorkDir),
		slog.String("output_json", cfg.Pipeline.OutputJSON),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Float64("chunk_seconds", cfg.Split.ChunkSeconds),
		slog.String("provider", cfg.Transcription.Provider),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("language", cfg.Transcription.Language),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize converter
	converter := convert.New(cfg.Converter.FFmpegPath, cfg.Converter.FFprobePath, logger)

	// Initialize splitter
	splitter, err := split.New(split.Config{
		TargetDuration:   cfg.Split.GetChunkDuration(),
		SilenceSearch:    cfg.Split.GetSilenceSearchDuration(),
		SilenceThreshold: cfg.Split.SilenceThreshold,
		WindowDuration:   cfg.Split.GetWindowDuration(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create splitter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize transcription provider
	provider, err := newProvider(cfg, appMetrics)
	if err != nil {
		logger.Error("Failed to create transcription provider", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Transcription provider initialized",
		slog.String("provider", provider.Name()),
	)

	// Assemble the pipeline
	p := pipeline.New(cfg, logger, converter, splitter, provider, appMetrics)

	// Initialize HTTP status server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, p, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal, finishing current file",
			slog.String("signal", sig.String()),
		)
		cancel()
	}()

	// Run the batch
	runErr := p.Run(ctx)

	// Stop HTTP server (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Get final statistics
	stats := p.GetStats()
	logger.Info("Final batch statistics",
		slog.Int("files_discovered", stats.FilesDiscovered),
		slog.Int("files_processed", stats.FilesProcessed),
		slog.Int("files_skipped", stats.FilesSkipped),
		slog.Int("files_failed", stats.FilesFailed),
		slog.Int("chunks_transcribed", stats.ChunksTranscribed),
		slog.Int("chunks_failed", stats.ChunksFailed),
		slog.Duration("elapsed", time.Since(stats.StartedAt)),
	)

	if runErr != nil {
		logger.Error("Batch run failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("Service stopped")
}

// newProvider builds the configured speech recognition backend
func newProvider(cfg *config.Config, m *metrics.Metrics) (transcription.Provider, error) {
	switch cfg.Transcription.Provider {
	case "http":
		return transcription.NewClient(transcription.Config{
			Endpoint:   cfg.Transcription.Endpoint,
			APIKey:     cfg.Transcription.APIKey,
			Language:   cfg.Transcription.Language,
			Timeout:    cfg.Transcription.GetTimeoutDuration(),
			MaxRetries: cfg.Transcription.MaxRetries,
			OnRetry:    m.RecordTranscriptionRetry,
		})
	case "openai":
		return transcription.NewOpenAIProvider(cfg.Transcription.APIKey, cfg.Transcription.Language)
	default:
		return nil, fmt.Errorf("unknown transcription provider '%s'", cfg.Transcription.Provider)
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
