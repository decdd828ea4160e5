package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/httpapi"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/metrics"
	"github.com/baditaflorin/go_typing_similarity/internal/config"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
	"github.com/valyala/fasthttp"
)

func main() {
	defaults := config.Default()

	// Parse command-line flags
	configFile := flag.String("config", "", "YAML configuration file (optional)")
	port := flag.Int("port", defaults.Server.Port, "HTTP server port")
	readTimeout := flag.Duration("read-timeout", defaults.Server.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", defaults.Server.WriteTimeout, "HTTP write timeout")
	maxRequestSize := flag.Int("max-request-size", defaults.Server.MaxRequestSize, "Maximum request size in bytes")
	concurrency := flag.Int("concurrency", defaults.Server.Concurrency, "Maximum number of concurrent requests (0 = fasthttp default)")
	warmUp := flag.Bool("warm-up", defaults.Server.WarmUp, "Perform system warm-up on startup")
	logFile := flag.String("log-file", defaults.Log.File, "Log file path (empty = stdout)")
	biometricURL := flag.String("biometric-url", defaults.Biometric.URL, "Keystroke biometric service base URL (empty = disabled)")
	alertURL := flag.String("alert-url", defaults.Alert.URL, "Breach alert service base URL (empty = disabled)")
	maxTextLength := flag.Int("max-text-length", defaults.Scoring.MaxTextLength, "Maximum characters accepted per text field")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "read-timeout":
			cfg.Server.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.Server.WriteTimeout = *writeTimeout
		case "max-request-size":
			cfg.Server.MaxRequestSize = *maxRequestSize
		case "concurrency":
			cfg.Server.Concurrency = *concurrency
		case "warm-up":
			cfg.Server.WarmUp = *warmUp
		case "log-file":
			cfg.Log.File = *logFile
		case "biometric-url":
			cfg.Biometric.URL = *biometricURL
		case "alert-url":
			cfg.Alert.URL = *alertURL
		case "max-text-length":
			cfg.Scoring.MaxTextLength = *maxTextLength
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	log, err := createLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting typing similarity HTTP server",
		"port", cfg.Server.Port,
		"read_timeout", cfg.Server.ReadTimeout,
		"write_timeout", cfg.Server.WriteTimeout,
		"max_request_size", cfg.Server.MaxRequestSize,
		"concurrency", cfg.Server.Concurrency,
		"threshold", cfg.Scoring.Threshold,
		"min_length_ratio", cfg.Scoring.MinLengthRatio,
		"max_text_length", cfg.Scoring.MaxTextLength,
		"biometric", cfg.Biometric.Enabled(),
		"alert", cfg.Alert.Enabled(),
	)

	apiOpts := []httpapi.Option{
		httpapi.WithMaxTextLength(cfg.Scoring.MaxTextLength),
	}
	scorerOpts := []scorer.ScorerOption{
		scorer.WithPortLogger(log),
		scorer.WithThreshold(cfg.Scoring.Threshold),
		scorer.WithMinLengthRatio(cfg.Scoring.MinLengthRatio),
		scorer.WithMaxAttempts(cfg.Scoring.MaxAttempts),
		scorer.WithWarmUp(cfg.Server.WarmUp),
	}
	if cfg.Biometric.Enabled() {
		scorerOpts = append(scorerOpts, scorer.WithBiometricService(cfg.Biometric.URL, cfg.Biometric.Timeout))
	}
	if cfg.Alert.Enabled() {
		scorerOpts = append(scorerOpts, scorer.WithAlertService(cfg.Alert.URL, cfg.Alert.Timeout))
	}
	if cfg.Metrics.Enabled {
		rec := metrics.NewRecorder()
		scorerOpts = append(scorerOpts, scorer.WithMetricsRecorder(rec))
		apiOpts = append(apiOpts, httpapi.WithMetrics(rec, cfg.Metrics.Path, rec.Handler()))
	}

	s, err := scorer.New(scorerOpts...)
	if err != nil {
		log.Error("Failed to initialize scorer", "error", err)
		os.Exit(1)
	}
	log.Info("Scorer initialized successfully",
		"warm_up", cfg.Server.WarmUp,
		"cpus", runtime.NumCPU(),
	)

	api := httpapi.New(s, log, apiOpts...)

	// Create HTTP server with fasthttp
	server := &fasthttp.Server{
		Handler:               api.Handler,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		MaxRequestBodySize:    cfg.Server.MaxRequestSize,
		Concurrency:           cfg.Server.Concurrency,
		DisableKeepalive:      false,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
		Logger:                nil, // requests are logged by the API handler
	}

	// Set up graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			log.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Server listening", "address", addr)
	if err := server.ListenAndServe(addr); err != nil {
		log.Error("Server error", "error", err)
		return
	}

	<-idleConnsClosed
	log.Info("Server stopped")
}

// createLogger creates and configures a logger
func createLogger(cfg config.LogConfig) (ports.Logger, error) {
	if cfg.JSON || cfg.File != "" {
		return logger.NewFileLogger(cfg.File)
	}
	return logger.NewCustomStdLogger(logger.DefaultConfig(os.Stdout, false))
}
