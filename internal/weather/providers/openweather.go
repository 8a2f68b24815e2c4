package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-indexer/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherURL is the current-weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherOptions configures an OpenWeatherProvider.
type OpenWeatherOptions struct {
	APIKey        string
	BaseURL       string // defaults to DefaultOpenWeatherURL
	MaxRetries    int
	RatePerMinute int // 0 disables throttling
}

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, opts OpenWeatherOptions) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Limiter: perMinute(opts.RatePerMinute),
		},
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// owmResponse is the current-weather payload as sent by OpenWeatherMap.
// Scalars are pointers so that absent fields can be told from zero values.
type owmResponse struct {
	Coord   *weather.GeoPoint   `json:"coord"`
	Weather []weather.Condition `json:"weather"`
	Base    *string             `json:"base"`
	Main    *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		TempMin   *float64 `json:"temp_min"`
		TempMax   *float64 `json:"temp_max"`
		Pressure  *int     `json:"pressure"`
		Humidity  *int     `json:"humidity"`
		SeaLevel  *int     `json:"sea_level"`
		GrndLevel *int     `json:"grnd_level"`
	} `json:"main"`
	Visibility *int                   `json:"visibility"`
	Wind       *weather.Wind          `json:"wind"`
	Clouds     *weather.Clouds        `json:"clouds"`
	Rain       *weather.Precipitation `json:"rain"`
	Snow       *weather.Precipitation `json:"snow"`
	Dt         *int64                 `json:"dt"`
	Sys        map[string]any         `json:"sys"`
	Timezone   *int                   `json:"timezone"`
	ID         *int64                 `json:"id"`
	Name       *string                `json:"name"`
	Cod        *int                   `json:"cod"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, at weather.Coordinates) (weather.Document, error) {
	if p.apiKey == "" {
		return weather.Document{}, p.fail(0, weather.ErrAPIKeyMissing)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		code := statusCode(err)
		if code != 0 {
			err = fmt.Errorf("%w: %v", weather.ErrUnexpectedStatus, err)
		}
		return weather.Document{}, p.fail(code, err)
	}
	defer resp.Body.Close()

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Document{}, p.fail(resp.StatusCode, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err))
	}
	if payload.Main == nil {
		return weather.Document{}, p.fail(resp.StatusCode, fmt.Errorf("%w: missing main block", weather.ErrMalformedResponse))
	}

	return payload.toDocument(), nil
}

func (p *OpenWeatherProvider) fail(code int, err error) *weather.FetchError {
	return &weather.FetchError{Provider: p.name, StatusCode: code, Err: err}
}

// toDocument moves the measurement fields under dataPoints and copies the
// rest. Nothing is filled in for fields the response left out.
func (r owmResponse) toDocument() weather.Document {
	return weather.Document{
		Coord:   r.Coord,
		Weather: r.Weather,
		Base:    r.Base,
		DataPoints: weather.DataPoints{
			Temp:       r.Main.Temp,
			FeelsLike:  r.Main.FeelsLike,
			TempMin:    r.Main.TempMin,
			TempMax:    r.Main.TempMax,
			Pressure:   r.Main.Pressure,
			Humidity:   r.Main.Humidity,
			SeaLevel:   r.Main.SeaLevel,
			GrndLevel:  r.Main.GrndLevel,
			Wind:       r.Wind,
			Visibility: r.Visibility,
			Clouds:     r.Clouds,
			Rain:       r.Rain,
			Snow:       r.Snow,
		},
		Dt:       r.Dt,
		Sys:      r.Sys,
		Timezone: r.Timezone,
		ID:       r.ID,
		Cod:      r.Cod,
		Name:     r.Name,
	}
}
