package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/client"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/irrigation"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/observability"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/report"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/store"
)

// Generator produces a fallback record when the live fetch fails.
type Generator interface {
	Generate(location string) models.WeatherRecord
}

// Options fixes what a run reports on and where it writes.
type Options struct {
	Location   string
	OutputPath string
	Title      string
}

// Outcome describes a completed run. Record always carries the irrigation
// recommendation, whichever source produced it.
type Outcome struct {
	Record   models.WeatherRecord
	FetchErr error
	SaveErr  error
	Saved    bool
}

// Simulated reports whether the run fell back to generated data.
func (o Outcome) Simulated() bool {
	return o.Record.Source == models.SourceSimulated
}

// WeatherService runs the fetch, fallback, derive and report/persist pipeline
// once per Run call.
type WeatherService struct {
	opts      Options
	client    client.WeatherClient
	generator Generator
	store     store.RecordStore
	out       io.Writer
	logger    *zap.Logger
}

func NewWeatherService(opts Options, weatherClient client.WeatherClient, generator Generator, recordStore store.RecordStore, out io.Writer, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = "FARMTECH SOLUTIONS - WEATHER CHECK"
	}
	return &WeatherService{
		opts:      opts,
		client:    weatherClient,
		generator: generator,
		store:     recordStore,
		out:       out,
		logger:    logger,
	}
}

// Run executes one pass. It never returns an error: fetch failures switch to
// simulated data, and save or render failures are logged and recorded in the
// Outcome without stopping later steps.
func (s *WeatherService) Run(ctx context.Context) Outcome {
	start := time.Now()
	var out Outcome

	s.render("banner", func(w io.Writer) error { return report.RenderBanner(w, s.opts.Title) })

	s.logger.Info("fetching weather", zap.String("location", s.opts.Location))
	rec, err := s.client.Fetch(ctx, s.opts.Location)
	if err != nil {
		kind := client.KindOf(err)
		out.FetchErr = err
		observability.FallbackTotal.WithLabelValues(string(kind)).Inc()
		s.logger.Warn("weather fetch failed, using simulated data",
			zap.String("location", s.opts.Location),
			zap.String("error_kind", string(kind)),
			zap.Error(err),
		)
		rec = s.generator.Generate(s.opts.Location)
	} else {
		s.logger.Info("weather fetched", zap.String("location", s.opts.Location), zap.Duration("duration", time.Since(start)))
	}

	irrigation.Apply(&rec)
	out.Record = rec
	s.logger.Info("irrigation recommendation",
		zap.String("source", string(rec.Source)),
		zap.String("recommendation", string(rec.IrrigationRecommendation)),
		zap.Int("rain_probability_pct", rec.RainProbabilityPct),
		zap.Float64("precipitation_mm", rec.PrecipitationMM),
	)

	s.render("summary", func(w io.Writer) error { return report.RenderSummary(w, rec) })

	if err := s.store.Save(rec, s.opts.OutputPath); err != nil {
		out.SaveErr = err
		s.logger.Error("saving weather record failed",
			zap.String("path", s.opts.OutputPath),
			zap.String("error_kind", "storage"),
			zap.Error(err),
		)
	} else {
		out.Saved = true
		s.logger.Info("weather record saved", zap.String("path", s.opts.OutputPath))
	}

	s.render("embedded snippet", func(w io.Writer) error { return report.RenderEmbeddedSnippet(w, rec) })
	s.render("footer", report.RenderFooter)

	observability.MarkRunComplete(time.Now())
	s.logger.Debug("run complete", zap.Duration("duration", time.Since(start)), zap.Bool("simulated", out.Simulated()))
	return out
}

func (s *WeatherService) render(name string, fn func(io.Writer) error) {
	if err := fn(s.out); err != nil {
		s.logger.Warn("console render failed", zap.String("report", name), zap.Error(err))
	}
}
