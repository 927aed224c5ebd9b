package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"soilsense/internal/agrobot"
	"soilsense/internal/api"
	"soilsense/internal/config"
	"soilsense/internal/data"
	"soilsense/internal/metrics"
	"soilsense/internal/models"
	"soilsense/internal/publisher"
	"soilsense/internal/websocket"

	"github.com/rs/zerolog"
)

func newLogger(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "soilsense").Logger()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)

	if cfg.Database.Driver == "sqlite" {
		// Cria diretório para banco de dados se não existir
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Fatal().Err(err).Msg("failed to create database directory")
			}
		}
	}

	// Initialize database
	db, err := data.NewDatabase(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	manager := data.NewManager(db, logger)
	defer manager.Close()

	if cfg.Feed.Seed {
		if _, err := manager.SeedHistory(); err != nil {
			logger.Error().Err(err).Msg("failed to seed history")
		}
	}

	m := metrics.New()
	manager.OnStoreError(func(error) { m.StoreError() })

	wsHub := websocket.NewHub(logger, func() *models.LiveUpdate {
		reading := manager.Reading()
		return &models.LiveUpdate{Reading: reading, Alerts: manager.Alerts(reading, "")}
	})
	go wsHub.Run()
	defer wsHub.Stop()

	var pub *publisher.Publisher
	if cfg.Kafka.Enabled() {
		pub = publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer pub.Close()
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing readings to kafka")
	}

	// Cada leitura ao vivo é classificada uma vez e distribuída
	manager.OnLiveData(func(reading models.SensorReading) {
		alerts := manager.Alerts(reading, string(reading.Crop))
		m.ObserveReading(reading, alerts)
		wsHub.BroadcastLiveUpdate(models.LiveUpdate{Reading: reading, Alerts: alerts})
		if pub != nil {
			pub.Handle(reading, alerts)
		}
	})

	chatClient := agrobot.NewClient(agrobot.ClientConfig{
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
		Timeout:     time.Duration(cfg.Chat.TimeoutSec) * time.Second,
		RatePerMin:  cfg.Chat.RatePerMin,
	}, logger)
	chat := agrobot.NewSession(db, chatClient, cfg.Chat.APIKey, logger)

	apiServer := api.NewServer(manager, chat, logger,
		api.WithHub(wsHub),
		api.WithMetrics(m),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	if cfg.Feed.AutoStart {
		manager.StartLiveData(cfg.FeedInterval())
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Str("crop", string(manager.CurrentCrop())).
			Msg("starting SoilSense server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	manager.StopLiveData()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
