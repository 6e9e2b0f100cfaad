package wx

import (
	"strconv"
	"strings"
	"time"
)

type fmMarker struct {
	index int
	at    time.Time
}

// SelectSegment extracts the tokens of the forecast period covering target
// from a multi-period forecast text. FM markers encode day/hour/minute only;
// the month and year are taken from the target time itself. When no marker
// is at or before the target (or the text has no markers at all), the tokens
// ahead of the first marker are returned: they form the base period.
func SelectSegment(raw string, target time.Time) []string {
	tokens := strings.Fields(strings.TrimSpace(raw))

	var markers []fmMarker
	for i, tok := range tokens {
		m := fmRegex.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		at := time.Date(target.Year(), target.Month(), day, hour, minute, 0, 0, time.UTC)
		markers = append(markers, fmMarker{index: i, at: at})
	}

	if len(markers) == 0 {
		return tokens
	}

	chosen := -1
	for i, m := range markers {
		if m.at.After(target) {
			continue
		}
		if chosen == -1 || m.at.After(markers[chosen].at) {
			chosen = i
		}
	}
	if chosen == -1 {
		return tokens[:markers[0].index]
	}

	start := markers[chosen].index + 1
	end := len(tokens)
	if chosen+1 < len(markers) {
		end = markers[chosen+1].index
	}
	return tokens[start:end]
}

// DecodeSegment selects the forecast period covering target and decodes it as
// a self-contained report. The observation time is left nil: the result
// represents a forecast period, not an observation instant.
func DecodeSegment(raw, station string, target time.Time) Observation {
	segment := SelectSegment(raw, target)
	obs := Decode(strings.Join(segment, " "), station, nil)
	obs.Raw = raw
	return obs
}
