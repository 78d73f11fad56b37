package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/client"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/simulate"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/store"
)

type mockWeatherClient struct {
	record models.WeatherRecord
	err    error
	calls  int
}

func (m *mockWeatherClient) Fetch(ctx context.Context, location string) (models.WeatherRecord, error) {
	m.calls++
	if m.err != nil {
		return models.WeatherRecord{}, m.err
	}
	rec := m.record
	rec.Location = location
	return rec, nil
}

type mockGenerator struct {
	record models.WeatherRecord
	calls  int
}

func (m *mockGenerator) Generate(location string) models.WeatherRecord {
	m.calls++
	rec := m.record
	rec.Location = location
	rec.Source = models.SourceSimulated
	return rec
}

// eventLog records the order in which output and storage happen.
type eventLog struct {
	events []string
	buf    bytes.Buffer
}

func (l *eventLog) Write(p []byte) (int, error) {
	s := string(p)
	switch {
	case strings.Contains(s, "WEATHER SUMMARY"):
		l.events = append(l.events, "summary")
	case strings.Contains(s, "#define"):
		l.events = append(l.events, "snippet")
	}
	return l.buf.Write(p)
}

type mockStore struct {
	log   *eventLog
	err   error
	saved []models.WeatherRecord
	paths []string
}

func (m *mockStore) Save(rec models.WeatherRecord, path string) error {
	if m.log != nil {
		m.log.events = append(m.log.events, "save")
	}
	m.saved = append(m.saved, rec)
	m.paths = append(m.paths, path)
	return m.err
}

func liveRecord(rain int, precip float64) models.WeatherRecord {
	return models.WeatherRecord{
		RetrievedAt:          models.NewTimestamp(time.Date(2026, 10, 16, 6, 0, 0, 0, time.Local)),
		Source:               models.SourceLiveAPI,
		CurrentTemperatureC:  23,
		RelativeHumidityPct:  70,
		ConditionDescription: "Overcast",
		PrecipitationMM:      precip,
		RainProbabilityPct:   rain,
		MaxTemperatureC:      27,
		MinTemperatureC:      18,
		WindSpeedKmh:         12,
	}
}

func newService(t *testing.T, c client.WeatherClient, g Generator, s store.RecordStore, out *eventLog) (*WeatherService, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	svc := NewWeatherService(Options{Location: "Sao Paulo", OutputPath: "current_weather.json"}, c, g, s, out, zap.New(core))
	return svc, logs
}

func TestRun_LiveScenarios(t *testing.T) {
	tests := []struct {
		name   string
		rain   int
		precip float64
		want   models.Recommendation
	}{
		{"scenario A", 80, 0, models.RecommendationOff},
		{"scenario B", 50, 1.0, models.RecommendationReduce},
		{"scenario C", 10, 0, models.RecommendationNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockWeatherClient{record: liveRecord(tt.rain, tt.precip)}
			g := &mockGenerator{}
			out := &eventLog{}
			s := &mockStore{log: out}
			svc, _ := newService(t, c, g, s, out)

			res := svc.Run(context.Background())

			if res.FetchErr != nil || res.SaveErr != nil || !res.Saved {
				t.Fatalf("Run() = %+v, want clean success", res)
			}
			if res.Simulated() || g.calls != 0 {
				t.Errorf("generator called %d times on live success", g.calls)
			}
			if res.Record.IrrigationRecommendation != tt.want {
				t.Errorf("recommendation = %q, want %q", res.Record.IrrigationRecommendation, tt.want)
			}
			if len(s.saved) != 1 || s.saved[0] != res.Record {
				t.Errorf("store received %+v, want the enriched record once", s.saved)
			}
			if s.paths[0] != "current_weather.json" {
				t.Errorf("saved to %q", s.paths[0])
			}
			if got := strings.Join(out.events, ","); got != "summary,save,snippet" {
				t.Errorf("step order = %s, want summary,save,snippet", got)
			}
		})
	}
}

func TestRun_FallbackOnEveryErrorKind(t *testing.T) {
	errs := map[client.ErrorKind]error{
		client.KindNetwork:      &client.FetchError{Kind: client.KindNetwork, Err: errors.New("connection refused")},
		client.KindParse:        &client.FetchError{Kind: client.KindParse, Err: errors.New("invalid character")},
		client.KindMissingField: &client.FetchError{Kind: client.KindMissingField, Field: "weather", Err: client.ErrMissingField},
		client.KindUnexpected:   &client.FetchError{Kind: client.KindUnexpected, Err: errors.New("boom")},
	}
	for kind, fetchErr := range errs {
		t.Run(string(kind), func(t *testing.T) {
			c := &mockWeatherClient{err: fetchErr}
			g := &mockGenerator{record: liveRecord(45, 0.5)}
			out := &eventLog{}
			s := &mockStore{}
			svc, logs := newService(t, c, g, s, out)

			res := svc.Run(context.Background())

			if !errors.Is(res.FetchErr, fetchErr) {
				t.Errorf("FetchErr = %v, want %v", res.FetchErr, fetchErr)
			}
			if c.calls != 1 {
				t.Errorf("client called %d times, want exactly 1 (no retry)", c.calls)
			}
			if g.calls != 1 || !res.Simulated() {
				t.Fatalf("expected one fallback generation, got %d (source %q)", g.calls, res.Record.Source)
			}
			if res.Record.IrrigationRecommendation != models.RecommendationReduce ||
				res.Record.RecommendationReason != "Moderate chance of rain (45%)" {
				t.Errorf("simulated record not enriched with the shared rule: %+v", res.Record)
			}

			warn := logs.FilterMessage("weather fetch failed, using simulated data").All()
			if len(warn) != 1 {
				t.Fatalf("expected one fallback warning, got %d", len(warn))
			}
			if got := warn[0].ContextMap()["error_kind"]; got != string(kind) {
				t.Errorf("error_kind = %v, want %q", got, kind)
			}
		})
	}
}

func TestRun_SaveFailureStillRendersSnippet(t *testing.T) {
	c := &mockWeatherClient{record: liveRecord(10, 0)}
	out := &eventLog{}
	s := &mockStore{log: out, err: errors.New("disk full")}
	svc, logs := newService(t, c, &mockGenerator{}, s, out)

	res := svc.Run(context.Background())

	if res.Saved || res.SaveErr == nil {
		t.Fatalf("Run() = %+v, want save failure recorded", res)
	}
	if got := strings.Join(out.events, ","); got != "summary,save,snippet" {
		t.Errorf("step order = %s, want snippet after failed save", got)
	}
	if logs.FilterMessage("saving weather record failed").Len() != 1 {
		t.Error("expected storage failure to be logged")
	}
}

func TestRun_RenderFailureDoesNotStopPipeline(t *testing.T) {
	c := &mockWeatherClient{record: liveRecord(75, 0)}
	s := &mockStore{}
	core, logs := observer.New(zap.WarnLevel)
	svc := NewWeatherService(Options{Location: "Sao Paulo", OutputPath: "x.json"}, c, &mockGenerator{}, s, brokenWriter{}, zap.New(core))

	res := svc.Run(context.Background())

	if !res.Saved {
		t.Error("save should run even when console output fails")
	}
	if logs.FilterMessage("console render failed").Len() == 0 {
		t.Error("expected render failures to be logged")
	}
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

// TestRun_ScenarioD wires the real client against a refused connection and the
// real generator; the record must be simulated with every field in range.
func TestRun_ScenarioD(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	wc, err := client.NewWttrClient(baseURL, time.Second)
	if err != nil {
		t.Fatalf("NewWttrClient() error = %v", err)
	}
	gen := simulate.NewGenerator(simulate.NewSeededRand(99))
	path := filepath.Join(t.TempDir(), "current_weather.json")
	out := &eventLog{}
	svc := NewWeatherService(Options{Location: "Sao Paulo", OutputPath: path}, wc, gen, store.NewFileStore(), out, zap.NewNop())

	res := svc.Run(context.Background())

	if client.KindOf(res.FetchErr) != client.KindNetwork {
		t.Errorf("FetchErr kind = %q, want network", client.KindOf(res.FetchErr))
	}
	r := res.Record
	if r.Source != models.SourceSimulated {
		t.Fatalf("Source = %q, want simulated", r.Source)
	}
	if r.Location != "Sao Paulo" || r.RetrievedAt.IsZero() || r.ConditionDescription == "" || !r.HasRecommendation() {
		t.Errorf("record not fully populated: %+v", r)
	}
	inRange := func(name string, v, lo, hi int) {
		if v < lo || v > hi {
			t.Errorf("%s = %d, want within [%d, %d]", name, v, lo, hi)
		}
	}
	inRange("temperature", r.CurrentTemperatureC, 18, 28)
	inRange("humidity", r.RelativeHumidityPct, 50, 90)
	inRange("rain", r.RainProbabilityPct, 0, 100)
	inRange("max", r.MaxTemperatureC, 22, 32)
	inRange("min", r.MinTemperatureC, 15, 20)
	inRange("wind", r.WindSpeedKmh, 5, 30)
	if r.PrecipitationMM < 0 || r.PrecipitationMM > 10 {
		t.Errorf("precipitation = %v, want within [0, 10]", r.PrecipitationMM)
	}

	saved, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Source != models.SourceSimulated || saved.IrrigationRecommendation != r.IrrigationRecommendation {
		t.Errorf("saved record = %+v, want the simulated record", saved)
	}
}

// TestRun_ScenarioE saves to an unwritable path with the real store; the
// snippet must still be printed.
func TestRun_ScenarioE(t *testing.T) {
	c := &mockWeatherClient{record: liveRecord(80, 0)}
	path := filepath.Join(t.TempDir(), "missing", "current_weather.json")
	out := &eventLog{}
	svc, _ := newService(t, c, &mockGenerator{}, store.NewFileStore(), out)
	svc.opts.OutputPath = path

	res := svc.Run(context.Background())

	if res.Saved {
		t.Fatal("Saved = true for unwritable path")
	}
	if !errors.Is(res.SaveErr, store.ErrStorage) {
		t.Errorf("SaveErr = %v, want ErrStorage", res.SaveErr)
	}
	text := out.buf.String()
	if !strings.Contains(text, "#define RAIN_PROBABILITY 80") || !strings.Contains(text, "bool rain_expected = true;") {
		t.Errorf("snippet not rendered after save failure:\n%s", text)
	}
	if !strings.Contains(text, "[OK] Done.") {
		t.Error("footer not rendered")
	}
}

func TestNewWeatherService_Defaults(t *testing.T) {
	svc := NewWeatherService(Options{}, &mockWeatherClient{}, &mockGenerator{}, &mockStore{}, &bytes.Buffer{}, nil)
	if svc.logger == nil {
		t.Error("nil logger should be replaced with a no-op logger")
	}
	if svc.opts.Title == "" {
		t.Error("empty title should get a default")
	}
}
