package avwx

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// How far back to look for an observation near a point in time. METARs are
// issued at least hourly, so three hours covers outages at smaller fields.
const historicalWindow = 3 * time.Hour

var resultsLineRegex = regexp.MustCompile(`^[0-9]+ results$`)

// FetchHistorical fetches the observation nearest to (at or before) the given
// time from the dataserver archive. No archived report in the window returns
// (nil, nil).
func (c *Client) FetchHistorical(ctx context.Context, station string, at time.Time) (*Report, error) {
	requestURL := fmt.Sprintf(
		"%s/cgi-bin/data/dataserver.php?dataSource=metars&requestType=retrieve&format=csv&stationString=%s&startTime=%s&endTime=%s",
		c.baseURL,
		station,
		at.Add(-historicalWindow).UTC().Format("2006-01-02T15:04:05Z"),
		at.UTC().Format("2006-01-02T15:04:05Z"),
	)

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching historical observations: %w", err)
	}

	reports, err := parseDataserverCSV(string(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing historical observations: %w", err)
	}

	var nearest *Report
	for i := range reports {
		r := &reports[i]
		if r.ObservedAt.After(at) {
			continue
		}
		if nearest == nil || r.ObservedAt.After(nearest.ObservedAt) {
			nearest = r
		}
	}
	return nearest, nil
}

// parseDataserverCSV reads the dataserver response: a short preamble ending in
// an "N results" line, a CSV header row, then one row per observation.
func parseDataserverCSV(s string) ([]Report, error) {
	var out []Report
	headers := map[string]int{}
	preambling := true

	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if preambling {
			if resultsLineRegex.MatchString(line) {
				preambling = false
			}
			continue
		}

		vals, err := csv.NewReader(strings.NewReader(line)).Read()
		if err != nil {
			return out, err
		}

		if len(headers) == 0 {
			for i, k := range vals {
				headers[k] = i
			}
			continue
		}

		rawIdx, rawOK := headers["raw_text"]
		timeIdx, timeOK := headers["observation_time"]
		if !rawOK || !timeOK || len(vals) <= rawIdx || len(vals) <= timeIdx {
			continue
		}

		observed, err := time.Parse("2006-01-02T15:04:05Z", vals[timeIdx])
		if err != nil {
			return out, err
		}

		out = append(out, Report{
			RawText:    vals[rawIdx],
			ObservedAt: observed,
		})
	}

	return out, scanner.Err()
}
