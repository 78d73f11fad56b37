package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/models"
	"github.com/JeffeSouza/fiap-wokwi-iot/internal/observability"
)

// WeatherClient fetches current conditions for a location. Implementations
// return the record without irrigation fields.
type WeatherClient interface {
	Fetch(ctx context.Context, location string) (models.WeatherRecord, error)
}

const maxBodyBytes = 4 << 20

// WttrClient reads the wttr.in j1 JSON format. It makes exactly one request
// per Fetch; there is no retry.
type WttrClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	now     func() time.Time
}

func NewWttrClient(baseURL string, timeout time.Duration) (*WttrClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", timeout)
	}
	return &WttrClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

// wttrScalar is a wttr.in value. The API sends numbers as JSON strings, but
// bare numbers are accepted too.
type wttrScalar struct {
	text   string
	quoted bool
}

func (s *wttrScalar) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s.text, s.quoted = str, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	s.text = n.String()
	return nil
}

type wttrResponse struct {
	CurrentCondition []wttrCurrent `json:"current_condition"`
	Weather          []wttrDay     `json:"weather"`
}

type wttrCurrent struct {
	TempC       *wttrScalar `json:"temp_C"`
	Humidity    *wttrScalar `json:"humidity"`
	WeatherDesc []struct {
		Value *string `json:"value"`
	} `json:"weatherDesc"`
	PrecipMM      *wttrScalar `json:"precipMM"`
	WindspeedKmph *wttrScalar `json:"windspeedKmph"`
}

type wttrDay struct {
	MaxTempC *wttrScalar `json:"maxtempC"`
	MinTempC *wttrScalar `json:"mintempC"`
	Hourly   []struct {
		ChanceOfRain *wttrScalar `json:"chanceofrain"`
	} `json:"hourly"`
}

// Fetch performs one GET against <base>/<location>?format=j1 and maps the
// response. Every returned error is a *FetchError.
func (c *WttrClient) Fetch(ctx context.Context, location string) (models.WeatherRecord, error) {
	rec, err := c.callAPI(ctx, location)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(KindOf(err))).Inc()
		return models.WeatherRecord{}, err
	}
	return rec, nil
}

func (c *WttrClient) callAPI(ctx context.Context, location string) (models.WeatherRecord, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.endpoint(location), nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherRecord{}, unexpectedError("", fmt.Errorf("create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			return models.WeatherRecord{}, networkError(fmt.Errorf("request timeout: %w", err))
		}
		return models.WeatherRecord{}, networkError(fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.WeatherRecord{}, networkError(fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.WeatherRecord{}, networkError(fmt.Errorf("read response body: %w", err))
	}

	var apiResp wttrResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherRecord{}, parseError(fmt.Errorf("parse response: %w", err))
	}

	return c.mapResponse(apiResp, location)
}

// endpoint percent-encodes spaces only; other characters are passed through
// and left to net/url.
func (c *WttrClient) endpoint(location string) string {
	return c.baseURL + "/" + strings.ReplaceAll(location, " ", "%20") + "?format=j1"
}

func (c *WttrClient) mapResponse(apiResp wttrResponse, location string) (models.WeatherRecord, error) {
	if len(apiResp.CurrentCondition) == 0 {
		return models.WeatherRecord{}, missingFieldError("current_condition")
	}
	if len(apiResp.Weather) == 0 {
		return models.WeatherRecord{}, missingFieldError("weather")
	}
	current := apiResp.CurrentCondition[0]
	today := apiResp.Weather[0]
	if len(today.Hourly) == 0 {
		return models.WeatherRecord{}, missingFieldError("weather[0].hourly")
	}
	hourly := today.Hourly[0]

	var x extractor
	rec := models.WeatherRecord{
		Location:             location,
		RetrievedAt:          models.NewTimestamp(c.now()),
		Source:               models.SourceLiveAPI,
		CurrentTemperatureC:  x.int(current.TempC, "current_condition[0].temp_C"),
		RelativeHumidityPct:  x.int(current.Humidity, "current_condition[0].humidity"),
		ConditionDescription: x.description(current),
		PrecipitationMM:      x.optionalFloat(current.PrecipMM, "current_condition[0].precipMM"),
		RainProbabilityPct:   x.int(hourly.ChanceOfRain, "weather[0].hourly[0].chanceofrain"),
		MaxTemperatureC:      x.int(today.MaxTempC, "weather[0].maxtempC"),
		MinTemperatureC:      x.int(today.MinTempC, "weather[0].mintempC"),
		WindSpeedKmh:         x.int(current.WindspeedKmph, "current_condition[0].windspeedKmph"),
	}
	if x.err != nil {
		return models.WeatherRecord{}, x.err
	}
	return rec, nil
}

// extractor coerces wttr fields, keeping the first failure.
type extractor struct {
	err error
}

func (x *extractor) int(v *wttrScalar, field string) int {
	if x.err != nil {
		return 0
	}
	if v == nil {
		x.err = missingFieldError(field)
		return 0
	}
	text := strings.TrimSpace(v.text)
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	if !v.quoted {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return int(f)
		}
	}
	x.err = unexpectedError(field, fmt.Errorf("cannot convert %q to integer", v.text))
	return 0
}

func (x *extractor) optionalFloat(v *wttrScalar, field string) float64 {
	if x.err != nil || v == nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil {
		x.err = unexpectedError(field, fmt.Errorf("cannot convert %q to number", v.text))
		return 0
	}
	return f
}

func (x *extractor) description(current wttrCurrent) string {
	if x.err != nil {
		return ""
	}
	if len(current.WeatherDesc) == 0 {
		x.err = missingFieldError("current_condition[0].weatherDesc")
		return ""
	}
	if current.WeatherDesc[0].Value == nil {
		x.err = missingFieldError("current_condition[0].weatherDesc[0].value")
		return ""
	}
	return *current.WeatherDesc[0].Value
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
