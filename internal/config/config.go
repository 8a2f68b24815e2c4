package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-indexer/internal/common"
	"github.com/i474232898/weather-indexer/internal/weather"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`

	// Point to poll, decimal degrees.
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`

	StoreBackend           string   `validate:"oneof=elasticsearch memory"`
	ElasticsearchAddresses []string `validate:"required_if=StoreBackend elasticsearch,dive,url"`
	Index                  string   `validate:"required,lowercase"`
	StoreMaxHistory        int      `validate:"gte=0"` // memory backend only (0 = unlimited)

	// FetchSchedule is a cron expression; 6 fields means leading seconds.
	FetchSchedule string        `validate:"required"`
	CycleTimeout  time.Duration `validate:"gte=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	ProviderMaxRetries    int `validate:"gte=0,lte=10"`
	ProviderRatePerMinute int `validate:"gte=0"`

	// ProvisionFatal makes a failed index provisioning stop the process.
	ProvisionFatal bool

	LogLevel string `validate:"oneof=debug info warn error"`
	Port     string `validate:"required,numeric"`
}

// Coordinates returns the configured point.
func (c *AppConfig) Coordinates() weather.Coordinates {
	return weather.Coordinates{Lat: c.Latitude, Lon: c.Longitude}
}

var defaults = map[string]any{
	"OPENWEATHER_BASE_URL":     "https://api.openweathermap.org/data/2.5/weather",
	"WEATHER_LAT":              -82.8628,
	"WEATHER_LON":              135.0,
	"STORE_BACKEND":            BackendElasticsearch,
	"ELASTICSEARCH_ADDRESSES":  "http://elasticsearch:9200",
	"ELASTICSEARCH_INDEX":      weather.DefaultIndex,
	"STORE_MAX_HISTORY":        1440, // a day of one-minute cycles
	"FETCH_SCHEDULE":           "*/1 * * * *",
	"CYCLE_TIMEOUT":            "50s",
	"HTTP_TIMEOUT":             "20s",
	"PROVIDER_MAX_RETRIES":     0,
	"PROVIDER_RATE_PER_MINUTE": 60,
	"PROVISION_FATAL":          false,
	"LOG_LEVEL":                "info",
	"PORT":                     "8080",
}

var validate = validator.New()

// Load reads configuration from .env, an optional config.yaml in the working
// directory and the environment (highest precedence), with defaults for
// everything but the API key.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey:      v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL:     v.GetString("OPENWEATHER_BASE_URL"),
		Latitude:               v.GetFloat64("WEATHER_LAT"),
		Longitude:              v.GetFloat64("WEATHER_LON"),
		StoreBackend:           strings.ToLower(v.GetString("STORE_BACKEND")),
		ElasticsearchAddresses: common.SplitList(v.GetString("ELASTICSEARCH_ADDRESSES")),
		Index:                  v.GetString("ELASTICSEARCH_INDEX"),
		StoreMaxHistory:        v.GetInt("STORE_MAX_HISTORY"),
		FetchSchedule:          strings.TrimSpace(v.GetString("FETCH_SCHEDULE")),
		ProviderMaxRetries:     v.GetInt("PROVIDER_MAX_RETRIES"),
		ProviderRatePerMinute:  v.GetInt("PROVIDER_RATE_PER_MINUTE"),
		ProvisionFatal:         v.GetBool("PROVISION_FATAL"),
		LogLevel:               strings.ToLower(v.GetString("LOG_LEVEL")),
		Port:                   v.GetString("PORT"),
	}

	var err error
	if cfg.CycleTimeout, err = time.ParseDuration(v.GetString("CYCLE_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("invalid CYCLE_TIMEOUT: %w", err)
	}
	if cfg.HTTPTimeout, err = time.ParseDuration(v.GetString("HTTP_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateSchedule(cfg.FetchSchedule); err != nil {
		return nil, fmt.Errorf("invalid FETCH_SCHEDULE: %w", err)
	}

	return cfg, nil
}

var secondsParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// validateSchedule accepts the two forms the scheduler registers: standard
// 5-field cron and 6-field cron with seconds.
func validateSchedule(spec string) error {
	switch len(strings.Fields(spec)) {
	case 5:
		_, err := cron.ParseStandard(spec)
		return err
	case 6:
		_, err := secondsParser.Parse(spec)
		return err
	default:
		return fmt.Errorf("expected 5 or 6 fields, got %q", spec)
	}
}
