package wx

import (
	"math"
	"strconv"
	"strings"
	"time"

	"k8s.io/utils/ptr"
)

const mpsToKt = 1.943844

// Decode parses one whitespace-tokenized encoded report into an Observation.
// The observation time is taken as provided, never inferred from the text.
// A well-formed but sparse report is not an error: groups that are absent
// decode to their absent values.
func Decode(raw, station string, observedAt *time.Time) Observation {
	obs := Observation{
		Station:    station,
		ObservedAt: observedAt,
		Raw:        raw,
		Sky:        Sky{Cover: SkyUnknown},
		Wx:         Phenomenon{Kind: KindNone},
	}

	tokens := strings.Fields(strings.TrimSpace(raw))
	tokens = trimHeader(tokens, station)

	obs.Wind = decodeWind(tokens)
	obs.TemperatureC, obs.DewpointC = decodeTemperature(tokens)
	obs.Wx = decodePhenomenon(tokens)
	obs.Sky = decodeSky(tokens)

	return obs
}

// trimHeader drops a leading report-type keyword, station identifier and
// issuance-time token so field scans only see the body of the report.
func trimHeader(tokens []string, station string) []string {
	for len(tokens) > 0 {
		head := tokens[0]
		switch {
		case head == "METAR" || head == "SPECI" || head == "TAF":
			tokens = tokens[1:]
		case strings.EqualFold(head, station) && stationRegex.MatchString(strings.ToUpper(head)):
			tokens = tokens[1:]
		case issueRegex.MatchString(head):
			tokens = tokens[1:]
		default:
			return tokens
		}
	}
	return tokens
}

func decodeWind(tokens []string) Wind {
	for _, tok := range tokens {
		if m := windRegex.FindStringSubmatch(tok); m != nil {
			return windFromMatch(m, 1)
		}
		if m := windRegexMPS.FindStringSubmatch(tok); m != nil {
			return windFromMatch(m, mpsToKt)
		}
	}
	return Wind{}
}

func windFromMatch(m []string, speedFactor float64) Wind {
	w := Wind{}
	if m[1] == "VRB" {
		w.Variable = true
	} else {
		deg, _ := strconv.Atoi(m[1])
		w.DirectionDeg = ptr.To(deg)
	}

	speed, _ := strconv.Atoi(m[2])
	w.SpeedKt = ptr.To(int(math.Round(float64(speed) * speedFactor)))

	if m[4] != "" {
		gust, _ := strconv.Atoi(m[4])
		w.GustKt = ptr.To(int(math.Round(float64(gust) * speedFactor)))
	}
	return w
}

func decodeTemperature(tokens []string) (temp, dewpoint *int) {
	for _, tok := range tokens {
		if m := tempRegex.FindStringSubmatch(tok); m != nil {
			return signedValue(m[1], m[2]), signedValue(m[3], m[4])
		}
		if m := tempOnly.FindStringSubmatch(tok); m != nil {
			return signedValue(m[1], m[2]), nil
		}
	}
	return nil, nil
}

func signedValue(sign, digits string) *int {
	v, _ := strconv.Atoi(digits)
	if sign == "M" {
		v = -v
	}
	return ptr.To(v)
}

func decodePhenomenon(tokens []string) Phenomenon {
	for _, tok := range tokens {
		if !containsPhenomenonCode(tok) {
			continue
		}
		for _, pc := range phenomenonCodes {
			if strings.Contains(tok, pc.code) {
				return Phenomenon{Kind: pc.kind, Token: ptr.To(tok)}
			}
		}
	}
	return Phenomenon{Kind: KindNone}
}

func containsPhenomenonCode(tok string) bool {
	for _, pc := range phenomenonCodes {
		if strings.Contains(tok, pc.code) {
			return true
		}
	}
	return false
}

func decodeSky(tokens []string) Sky {
	sky := Sky{Cover: SkyUnknown}
	best := -1
	for _, tok := range tokens {
		m := cloudRegex.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		// Ties break toward the first occurrence.
		if order := coverOrder[m[1]]; order > best {
			best = order
			sky.Cover = coverClass[m[1]]
			sky.CeilingFt = nil
			if m[2] != "" {
				hundreds, _ := strconv.Atoi(m[2])
				sky.CeilingFt = ptr.To(hundreds * 100)
			}
		}
	}
	return sky
}
