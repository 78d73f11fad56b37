// Package simulate produces stand-in weather records when the live API is
// unavailable.
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
)

// Rand is the pseudo-random source the generator draws from. *rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Conditions are the labels a simulated record can carry.
var Conditions = []string{"Sunny", "Partly cloudy", "Cloudy", "Rainy"}

// Inclusive ranges for simulated values.
const (
	MinTemperatureC    = 18
	MaxTemperatureC    = 28
	MinHumidityPct     = 50
	MaxHumidityPct     = 90
	MaxPrecipitationMM = 10.0
	MaxRainProbability = 100
	MinDailyMaxC       = 22
	MaxDailyMaxC       = 32
	MinDailyMinC       = 15
	MaxDailyMinC       = 20
	MinWindKmh         = 5
	MaxWindKmh         = 30
)

// Generator builds simulated records. It never fails.
type Generator struct {
	rng Rand
	now func() time.Time
}

func NewGenerator(rng Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// NewSeededRand returns a source seeded with seed, or with the current time
// when seed is 0.
func NewSeededRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Generate returns a record tagged as simulated, without irrigation fields.
func (g *Generator) Generate(location string) models.WeatherRecord {
	rain := g.between(0, MaxRainProbability)
	return models.WeatherRecord{
		Location:             location,
		RetrievedAt:          models.NewTimestamp(g.now()),
		Source:               models.SourceSimulated,
		CurrentTemperatureC:  g.between(MinTemperatureC, MaxTemperatureC),
		RelativeHumidityPct:  g.between(MinHumidityPct, MaxHumidityPct),
		ConditionDescription: Conditions[g.rng.Intn(len(Conditions))],
		PrecipitationMM:      math.Round(g.rng.Float64()*MaxPrecipitationMM*10) / 10,
		RainProbabilityPct:   rain,
		MaxTemperatureC:      g.between(MinDailyMaxC, MaxDailyMaxC),
		MinTemperatureC:      g.between(MinDailyMinC, MaxDailyMinC),
		WindSpeedKmh:         g.between(MinWindKmh, MaxWindKmh),
	}
}

// between returns an int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}
