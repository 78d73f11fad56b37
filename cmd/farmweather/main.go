package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/client"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/config"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/observability"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/service"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/simulate"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	weatherClient, err := client.NewWttrClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	generator := simulate.NewGenerator(simulate.NewSeededRand(cfg.SimulationSeed))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weatherService := service.NewWeatherService(
		service.Options{Location: cfg.Location, OutputPath: cfg.OutputPath},
		weatherClient,
		generator,
		store.NewFileStore(),
		os.Stdout,
		logger,
	)
	outcome := weatherService.Run(ctx)
	logger.Info("run finished",
		zap.String("location", cfg.Location),
		zap.Bool("simulated", outcome.Simulated()),
		zap.Bool("saved", outcome.Saved),
		zap.String("recommendation", string(outcome.Record.IrrigationRecommendation)),
	)

	if err := observability.FlushTelemetry(context.Background(), logger, cfg.MetricsTextfile); err != nil {
		fmt.Fprintf(os.Stderr, "flush telemetry: %v\n", err)
	}
}
