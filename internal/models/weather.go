package models

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a WeatherRecord's values came from.
type Source string

const (
	SourceLiveAPI   Source = "live-api"
	SourceSimulated Source = "simulated"
)

// Recommendation is the irrigation tier derived from rain data.
type Recommendation string

const (
	RecommendationNormal Recommendation = "NORMAL"
	RecommendationReduce Recommendation = "REDUCE"
	RecommendationOff    Recommendation = "OFF"
)

// TimestampLayout is the on-disk and console format for RetrievedAt.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a local wall-clock time with second precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to local time and drops sub-second precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Local().Truncate(time.Second)}
}

func (ts Timestamp) String() string {
	return ts.Format(TimestampLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.Format(TimestampLayout) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

// WeatherRecord is the single entity produced per run. Recommendation fields
// stay empty until irrigation.Apply runs.
type WeatherRecord struct {
	Location             string    `json:"location"`
	RetrievedAt          Timestamp `json:"retrieved_at"`
	Source               Source    `json:"source"`
	CurrentTemperatureC  int       `json:"current_temperature_c"`
	RelativeHumidityPct  int       `json:"relative_humidity_pct"`
	ConditionDescription string    `json:"condition_description"`
	PrecipitationMM      float64   `json:"precipitation_mm"`
	RainProbabilityPct   int       `json:"rain_probability_pct"`
	MaxTemperatureC      int       `json:"max_temperature_c"`
	MinTemperatureC      int       `json:"min_temperature_c"`
	WindSpeedKmh         int       `json:"wind_speed_kmh"`

	IrrigationRecommendation Recommendation `json:"irrigation_recommendation,omitempty"`
	RecommendationReason     string         `json:"recommendation_reason,omitempty"`
}

// HasRecommendation reports whether the derived irrigation fields are set.
func (r WeatherRecord) HasRecommendation() bool {
	return r.IrrigationRecommendation != "" && r.RecommendationReason != ""
}
