// Package irrigation turns rain data into an irrigation recommendation.
package irrigation

import (
	"fmt"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/observability"
)

const (
	OffRainProbabilityPct    = 70
	OffPrecipitationMM       = 5.0
	ReduceRainProbabilityPct = 40
)

// Derive applies the three-tier policy; the first matching rule wins:
//
//	rain >= 70% or precipitation > 5.0mm -> OFF
//	rain >= 40%                          -> REDUCE
//	otherwise                            -> NORMAL
//
// The reason always quotes the rain probability, including when OFF was
// triggered by precipitation alone.
func Derive(rainProbabilityPct int, precipitationMM float64) (models.Recommendation, string) {
	switch {
	case rainProbabilityPct >= OffRainProbabilityPct || precipitationMM > OffPrecipitationMM:
		return models.RecommendationOff, fmt.Sprintf("High chance of rain (%d%%)", rainProbabilityPct)
	case rainProbabilityPct >= ReduceRainProbabilityPct:
		return models.RecommendationReduce, fmt.Sprintf("Moderate chance of rain (%d%%)", rainProbabilityPct)
	default:
		return models.RecommendationNormal, fmt.Sprintf("Low chance of rain (%d%%)", rainProbabilityPct)
	}
}

// Apply derives the recommendation from rec's rain fields and sets both
// irrigation fields together.
func Apply(rec *models.WeatherRecord) {
	rec.IrrigationRecommendation, rec.RecommendationReason = Derive(rec.RainProbabilityPct, rec.PrecipitationMM)
	observability.IrrigationRecommendationsTotal.WithLabelValues(string(rec.IrrigationRecommendation)).Inc()
}
