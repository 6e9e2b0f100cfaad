// Package nws is a client for the api.weather.gov gridpoint forecast, the
// source for horizons beyond TAF coverage.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.weather.gov"

// Period is one 12-hour text forecast period from a gridpoint forecast.
type Period struct {
	Name            string
	Start           time.Time
	End             time.Time
	Temperature     int
	TemperatureUnit string
	WindSpeed       string
	WindDirection   string
	ShortForecast   string
	IsDaytime       bool
}

// Client handles NWS API interactions.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new NWS API client. The NWS asks callers to identify
// themselves with a User-Agent; userAgent must not be empty in production.
func NewClient(baseURL, userAgent string, timeout time.Duration, rps float64, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "nws",
			MaxRequests: 3,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/geo+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("NWS API error: %d %s", resp.StatusCode, resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// pointResponse represents the NWS /points/ response.
type pointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

// forecastResponse represents the NWS /gridpoints/.../forecast response.
type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name            string `json:"name"`
			StartTime       string `json:"startTime"`
			EndTime         string `json:"endTime"`
			IsDaytime       bool   `json:"isDaytime"`
			Temperature     int    `json:"temperature"`
			TemperatureUnit string `json:"temperatureUnit"`
			WindSpeed       string `json:"windSpeed"`
			WindDirection   string `json:"windDirection"`
			ShortForecast   string `json:"shortForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// FetchGridPeriods resolves a coordinate to its gridpoint and fetches the
// text forecast periods for it.
func (c *Client) FetchGridPeriods(ctx context.Context, lat, lon float64) ([]Period, error) {
	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)
	data, err := c.get(ctx, pointURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get point metadata: %w", err)
	}

	var pt pointResponse
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("failed to parse point metadata: %w", err)
	}
	if pt.Properties.Forecast == "" {
		return nil, nil
	}

	forecastURL := pt.Properties.Forecast
	// The points response carries an absolute URL; keep relative ones usable
	// for self-hosted mirrors.
	if strings.HasPrefix(forecastURL, "/") {
		forecastURL = c.baseURL + forecastURL
	}

	data, err = c.get(ctx, forecastURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}

	var fc forecastResponse
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse forecast: %w", err)
	}

	periods := make([]Period, 0, len(fc.Properties.Periods))
	for _, p := range fc.Properties.Periods {
		period := Period{
			Name:            p.Name,
			Temperature:     p.Temperature,
			TemperatureUnit: p.TemperatureUnit,
			WindSpeed:       p.WindSpeed,
			WindDirection:   p.WindDirection,
			ShortForecast:   p.ShortForecast,
			IsDaytime:       p.IsDaytime,
		}
		if t, err := time.Parse(time.RFC3339, p.StartTime); err == nil {
			period.Start = t
		}
		if t, err := time.Parse(time.RFC3339, p.EndTime); err == nil {
			period.End = t
		}
		periods = append(periods, period)
	}
	return periods, nil
}
