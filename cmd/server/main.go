package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"mesaYaAvailability/internal/config"
	handler "mesaYaAvailability/internal/modules/availability/application/handler"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/modules/availability/infrastructure"
	transport "mesaYaAvailability/internal/modules/availability/interface"
	"mesaYaAvailability/internal/platform/broker"
	"mesaYaAvailability/internal/shared/auth"
	"mesaYaAvailability/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID), slog.Any("topics", cfg.Kafka.Topics))

	hub := infrastructure.NewHub()
	registry := infrastructure.NewHandlerRegistry()

	// JWT validator used to validate tokens issued by the Nest auth service
	validator := auth.NewJWTValidatorWithPublicKey(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey)
	slots := infrastructure.NewSlotHTTPClient(cfg.REST.BaseURL, cfg.REST.Timeout, nil)
	overlap := domain.ParseOverlapPolicy(cfg.Editor.OverlapPolicy)

	// Kafka topic handlers: mirror slot mutations made by other services onto
	// the websocket stream.
	for _, topic := range cfg.Kafka.Topics {
		registry.Register(handler.NewSlotStreamHandler(topic, cfg.Websocket.AllowedActions, hub))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topics)

	// Echo server
	e := echo.New()
	e.Logger.SetOutput(log.Writer())

	availabilityHandler := transport.NewAvailabilityHandler(slots, hub, validator, overlap)
	availabilityHandler.Register(e)

	wsHandler := transport.NewAvailabilityWebsocketHandler(hub, slots, validator, cfg.Websocket.SendBuffer)
	// Token in path or via query/header fallback.
	e.GET("/ws/availability/:restaurant/:token", wsHandler)
	e.GET("/ws/availability/:restaurant", wsHandler)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	e.Close()
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
