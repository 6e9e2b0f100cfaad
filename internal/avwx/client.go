// Package avwx is a client for the Aviation Weather Center data API: current
// METAR observations, TAF forecast text, station information and historical
// observations from the dataserver.
package avwx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://aviationweather.gov"

var issuedRegex = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)

// Report is one encoded observation with the time it was taken.
type Report struct {
	RawText    string
	ObservedAt time.Time
}

// ForecastText is one encoded TAF with its issuance time, when the text
// carries one.
type ForecastText struct {
	RawText  string
	IssuedAt *time.Time
}

// Station describes a weather-reporting station from the stationinfo endpoint.
type Station struct {
	ICAO      string  `json:"icaoId"`
	Name      string  `json:"site"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Elevation int     `json:"elev"`
}

// Client talks to the Aviation Weather Center API. Calls are rate limited and
// guarded by a circuit breaker so a misbehaving upstream degrades fast instead
// of stacking timeouts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for the given base URL. An empty baseURL selects
// the public API. rps and burst bound the request rate toward the upstream.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "avwx",
			MaxRequests: 3,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// FetchMETAR fetches the latest observation for a station. A station with no
// current report returns (nil, nil).
func (c *Client) FetchMETAR(ctx context.Context, station string) (*Report, error) {
	requestURL := fmt.Sprintf("%s/api/data/metar?ids=%s&format=json", c.baseURL, url.QueryEscape(station))

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching METAR: %w", err)
	}

	var reports []struct {
		RawOb   string `json:"rawOb"`
		ObsTime int64  `json:"obsTime"`
	}
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, fmt.Errorf("error parsing METAR response: %w", err)
	}
	if len(reports) == 0 || strings.TrimSpace(reports[0].RawOb) == "" {
		return nil, nil
	}

	return &Report{
		RawText:    strings.TrimSpace(reports[0].RawOb),
		ObservedAt: time.Unix(reports[0].ObsTime, 0).UTC(),
	}, nil
}

// FetchTAF fetches the raw forecast text for a station. A station that does
// not issue TAFs returns (nil, nil).
func (c *Client) FetchTAF(ctx context.Context, station string) (*ForecastText, error) {
	requestURL := fmt.Sprintf("%s/api/data/taf?ids=%s", c.baseURL, url.QueryEscape(station))

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching TAF: %w", err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, nil
	}

	return &ForecastText{
		RawText:  text,
		IssuedAt: issuanceTime(text, time.Now().UTC()),
	}, nil
}

// issuanceTime extracts the first DDHHMMZ token of a report. The token does
// not encode month or year; both come from now, stepping back a month when
// the encoded day has not occurred yet.
func issuanceTime(text string, now time.Time) *time.Time {
	for _, tok := range strings.Fields(text) {
		m := issuedRegex.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])

		issued := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, time.UTC)
		if now.Day() < day {
			issued = issued.AddDate(0, -1, 0)
		}
		return &issued
	}
	return nil
}

// FetchStationInfo fetches directory data for a station, including the
// coordinates the grid-forecast tier needs. An unknown station returns
// (nil, nil).
func (c *Client) FetchStationInfo(ctx context.Context, station string) (*Station, error) {
	requestURL := fmt.Sprintf("%s/api/data/stationinfo?ids=%s&format=json", c.baseURL, url.QueryEscape(station))

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching station info: %w", err)
	}

	var stations []Station
	if err := json.Unmarshal(body, &stations); err != nil {
		return nil, fmt.Errorf("error parsing station info response: %w", err)
	}
	if len(stations) == 0 {
		return nil, nil
	}
	return &stations[0], nil
}
