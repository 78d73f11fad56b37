package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JeffeSouza/fiap-wokwi-iot/internal/validation"
)

const (
	DefaultLocation          = "Sao Paulo"
	DefaultOutputPath        = "current_weather.json"
	DefaultWeatherAPIURL     = "https://wttr.in"
	DefaultWeatherAPITimeout = 10 * time.Second
	DefaultLocationMinLength = 2
	DefaultLocationMaxLength = 100
)

// Config holds run configuration loaded from YAML and env.
type Config struct {
	Location   string
	OutputPath string `validate:"required"`

	WeatherAPIURL     string        `validate:"required,url"`
	WeatherAPITimeout time.Duration `validate:"gt=0"`

	// SimulationSeed seeds the fallback generator; 0 seeds from the clock.
	SimulationSeed int64

	// MetricsTextfile, when set, receives a Prometheus text dump at exit.
	MetricsTextfile string

	LocationMinLength int `validate:"gte=0"`
	LocationMaxLength int `validate:"gte=0"`
}

type fileConfig struct {
	Location string `yaml:"location"`

	Output struct {
		Path string `yaml:"path"`
	} `yaml:"output"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Simulation struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"simulation"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	Validation struct {
		LocationMinLength int `yaml:"location_min_length"`
		LocationMaxLength int `yaml:"location_max_length"`
	} `yaml:"validation"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Location:          DefaultLocation,
		OutputPath:        DefaultOutputPath,
		WeatherAPIURL:     DefaultWeatherAPIURL,
		WeatherAPITimeout: DefaultWeatherAPITimeout,
		LocationMinLength: DefaultLocationMinLength,
		LocationMaxLength: DefaultLocationMaxLength,
	}
}

// Load reads .env (if present) and config/{ENV_NAME}.yaml (default dev)
// relative to the working directory, then applies env overrides. A missing
// YAML file is not an error: the run proceeds on defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "config", env+".yaml"))
}

// LoadFile builds a Config from the YAML file at path (optional), layered
// over Default and under env overrides, and validates the result.
func LoadFile(path string) (*Config, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	applyFile(cfg, &fc)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	if s := strings.TrimSpace(fc.Location); s != "" {
		cfg.Location = s
	}
	if s := strings.TrimSpace(fc.Output.Path); s != "" {
		cfg.OutputPath = s
	}
	if s := strings.TrimSpace(fc.WeatherAPI.URL); s != "" {
		cfg.WeatherAPIURL = s
	}
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, cfg.WeatherAPITimeout)
	if fc.Simulation.Seed != 0 {
		cfg.SimulationSeed = fc.Simulation.Seed
	}
	cfg.MetricsTextfile = strings.TrimSpace(fc.Metrics.Textfile)
	if fc.Validation.LocationMinLength > 0 {
		cfg.LocationMinLength = fc.Validation.LocationMinLength
	}
	if fc.Validation.LocationMaxLength > 0 {
		cfg.LocationMaxLength = fc.Validation.LocationMaxLength
	}
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("WEATHER_LOCATION")); v != "" {
		cfg.Location = v
	}
	if v := strings.TrimSpace(os.Getenv("WEATHER_OUTPUT_PATH")); v != "" {
		cfg.OutputPath = v
	}
	if v := strings.TrimSpace(os.Getenv("WEATHER_API_URL")); v != "" {
		cfg.WeatherAPIURL = v
	}
	cfg.WeatherAPITimeout = parseDuration(os.Getenv("WEATHER_API_TIMEOUT"), cfg.WeatherAPITimeout)
	if v := strings.TrimSpace(os.Getenv("SIMULATION_SEED")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SIMULATION_SEED must be an integer, got %q", v)
		}
		cfg.SimulationSeed = seed
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_TEXTFILE")); v != "" {
		cfg.MetricsTextfile = v
	}
	return nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validateConfig runs struct-tag checks, then normalizes and checks the
// location against the configured length bounds.
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.LocationMaxLength > 0 && cfg.LocationMaxLength < cfg.LocationMinLength {
		return fmt.Errorf("invalid config: location_max_length %d below location_min_length %d",
			cfg.LocationMaxLength, cfg.LocationMinLength)
	}
	loc, err := validation.ValidateLocation(cfg.Location, cfg.LocationMinLength, cfg.LocationMaxLength)
	if err != nil {
		return fmt.Errorf("invalid config: location %q: %w", cfg.Location, err)
	}
	cfg.Location = loc
	return nil
}
