// Package wx decodes encoded aviation weather text (METAR observations and
// TAF forecast segments) into structured observations.
package wx

import (
	"regexp"
	"time"
)

// SkyCover is the coverage class of the governing cloud layer.
type SkyCover string

const (
	SkyClear     SkyCover = "clear"
	SkyFew       SkyCover = "few"
	SkyScattered SkyCover = "scattered"
	SkyBroken    SkyCover = "broken"
	SkyOvercast  SkyCover = "overcast"
	SkyUnknown   SkyCover = "unknown"
)

// Kind classifies a reported weather phenomenon.
type Kind string

const (
	KindNone         Kind = "none"
	KindRain         Kind = "rain"
	KindSnow         Kind = "snow"
	KindThunderstorm Kind = "thunderstorm"
	KindMist         Kind = "mist"
	KindFog          Kind = "fog"
	KindOther        Kind = "other"
)

// Wind represents the decoded wind group of a report.
type Wind struct {
	DirectionDeg *int `json:"directionDeg"`
	SpeedKt      *int `json:"speedKt"`
	GustKt       *int `json:"gustKt"`
	// Variable means the direction was reported as VRB; DirectionDeg is nil.
	Variable bool `json:"variable"`
}

// Sky represents the governing sky-cover layer of a report.
type Sky struct {
	Cover SkyCover `json:"cover"`
	// CeilingFt is nil when the layer carries no height.
	CeilingFt *int `json:"ceilingFt"`
}

// Phenomenon represents the decoded weather group of a report.
type Phenomenon struct {
	Kind  Kind    `json:"kind"`
	Token *string `json:"token"`
}

// Observation is the canonical decoded shape shared by current observations,
// TAF segments and grid-forecast conversions. Absent groups are represented
// by nil fields, SkyUnknown and KindNone; they are not errors.
type Observation struct {
	Station      string     `json:"station"`
	ObservedAt   *time.Time `json:"observedAt"`
	Raw          string     `json:"rawText"`
	Wind         Wind       `json:"wind"`
	TemperatureC *int       `json:"temperatureC"`
	DewpointC    *int       `json:"dewpointC,omitempty"`
	Sky          Sky        `json:"sky"`
	Wx           Phenomenon `json:"wx"`
}

// Weather phenomenon codes in decode-priority order. A token carrying more
// than one code classifies as the highest-priority one it contains.
var phenomenonCodes = []struct {
	code string
	kind Kind
}{
	{"TS", KindThunderstorm},
	{"SN", KindSnow},
	{"RA", KindRain},
	{"DZ", KindRain},
	{"FG", KindFog},
	{"BR", KindMist},
	{"PL", KindOther},
	{"GR", KindOther},
	{"GS", KindOther},
	{"HZ", KindOther},
}

// Cover-order values; the greatest wins as the governing layer.
var coverOrder = map[string]int{
	"SKC": 0,
	"CLR": 0,
	"FEW": 1,
	"SCT": 2,
	"BKN": 3,
	"OVC": 4,
}

var coverClass = map[string]SkyCover{
	"SKC": SkyClear,
	"CLR": SkyClear,
	"FEW": SkyFew,
	"SCT": SkyScattered,
	"BKN": SkyBroken,
	"OVC": SkyOvercast,
}

// Commonly used regular expressions
var (
	windRegex    = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(G(\d{2,3}))?KT$`)
	windRegexMPS = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(G(\d{2,3}))?MPS$`)
	tempRegex    = regexp.MustCompile(`^(M?)(\d{1,2})/(M?)(\d{1,2})$`)
	tempOnly     = regexp.MustCompile(`^(M?)(\d{1,2})/$`)
	cloudRegex   = regexp.MustCompile(`^(SKC|CLR|FEW|SCT|BKN|OVC)(\d{3})?$`)
	fmRegex      = regexp.MustCompile(`^FM(\d{2})(\d{2})(\d{2})$`)
	stationRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	issueRegex   = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
)
