package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry *prometheus.Registry

	// wttr.in call count by outcome. Watch for: error share creeping up.
	WeatherAPICallsTotal *prometheus.CounterVec

	// wttr.in latency. Watch for: calls approaching the 10s timeout.
	WeatherAPIDuration *prometheus.HistogramVec

	// Fetch failures by kind (network, parse, missing_field, unexpected).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Runs that fell back to simulated data, by the failure kind that caused it.
	FallbackTotal *prometheus.CounterVec

	// Derived recommendations by tier.
	IrrigationRecommendationsTotal *prometheus.CounterVec

	// Record file writes by result ("success" or "error").
	RecordSavesTotal *prometheus.CounterVec

	// Unix time of the last completed run.
	LastRunTimestamp prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of wttr.in API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "wttr.in API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Total number of failed weather fetches by error kind",
		},
		[]string{"kind"},
	)
	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulatedFallbackTotal",
			Help: "Total number of runs served from simulated data",
		},
		[]string{"kind"},
	)
	IrrigationRecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigationRecommendationsTotal",
			Help: "Total number of irrigation recommendations by tier",
		},
		[]string{"recommendation"},
	)
	RecordSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordSavesTotal",
			Help: "Total number of weather record file writes by result",
		},
		[]string{"result"},
	)
	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lastRunTimestampSeconds",
			Help: "Unix time of the last completed run",
		},
	)

	registry.MustRegister(
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		FallbackTotal, IrrigationRecommendationsTotal, RecordSavesTotal,
		LastRunTimestamp,
	)
}

// MarkRunComplete stamps LastRunTimestamp with t.
func MarkRunComplete(t time.Time) {
	LastRunTimestamp.Set(float64(t.Unix()))
}

// WriteTextfile dumps the registry in text exposition format to path, for
// pickup by node_exporter's textfile collector. The write is atomic.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
