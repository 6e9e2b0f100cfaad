package forecast

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"k8s.io/utils/ptr"

	"github.com/avlogbook/weather/internal/nws"
	"github.com/avlogbook/weather/internal/wx"
)

const mphToKt = 0.868976

// 16-point compass, clockwise from north in 22.5 degree steps.
var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

var firstNumberRegex = regexp.MustCompile(`\d+`)

// Keyword rules for classifying a grid-forecast summary. Evaluated in order;
// the more specific phrases come first so "Mostly Cloudy" never classifies as
// plain cloudy.
var summaryCover = []struct {
	phrase string
	cover  wx.SkyCover
}{
	{"mostly sunny", wx.SkyFew},
	{"mostly clear", wx.SkyFew},
	{"partly sunny", wx.SkyScattered},
	{"partly cloudy", wx.SkyScattered},
	{"mostly cloudy", wx.SkyBroken},
	{"overcast", wx.SkyOvercast},
	{"cloudy", wx.SkyOvercast},
	{"sunny", wx.SkyClear},
	{"clear", wx.SkyClear},
}

var summaryWx = []struct {
	phrase string
	kind   wx.Kind
}{
	{"thunderstorm", wx.KindThunderstorm},
	{"snow", wx.KindSnow},
	{"sleet", wx.KindSnow},
	{"flurries", wx.KindSnow},
	{"rain", wx.KindRain},
	{"showers", wx.KindRain},
	{"drizzle", wx.KindRain},
	{"fog", wx.KindFog},
	{"mist", wx.KindMist},
	{"haze", wx.KindMist},
}

// FromGridPeriods converts the coarse periodic forecast into the shared
// observation shape, selecting the period whose [start, end) interval covers
// target. When no period covers the target the first period is used.
func FromGridPeriods(periods []nws.Period, station string, target time.Time) *wx.Observation {
	if len(periods) == 0 {
		return nil
	}

	period := periods[0]
	for _, p := range periods {
		if !target.Before(p.Start) && target.Before(p.End) {
			period = p
			break
		}
	}

	obs := &wx.Observation{
		Station: station,
		Raw:     period.Name + ": " + period.ShortForecast,
		Sky:     coverFromSummary(period.ShortForecast),
		Wx:      phenomenonFromSummary(period.ShortForecast),
	}

	obs.Wind.DirectionDeg = CompassToDegrees(period.WindDirection)
	if m := firstNumberRegex.FindString(period.WindSpeed); m != "" {
		mph, _ := strconv.Atoi(m)
		obs.Wind.SpeedKt = ptr.To(int(math.Round(float64(mph) * mphToKt)))
	}

	obs.TemperatureC = ptr.To(toCelsius(period.Temperature, period.TemperatureUnit))

	return obs
}

// CompassToDegrees maps a 16-point compass direction to degrees clockwise
// from north. Unrecognized strings map to nil.
func CompassToDegrees(dir string) *int {
	dir = strings.ToUpper(strings.TrimSpace(dir))
	for i, point := range compassPoints {
		if dir == point {
			return ptr.To(int(math.Round(float64(i) * 22.5)))
		}
	}
	return nil
}

func toCelsius(value int, unit string) int {
	if strings.EqualFold(unit, "C") {
		return value
	}
	return int(math.Round(float64(value-32) * 5.0 / 9.0))
}

func coverFromSummary(summary string) wx.Sky {
	s := strings.ToLower(summary)
	for _, rule := range summaryCover {
		if strings.Contains(s, rule.phrase) {
			// Grid forecasts never carry layer heights.
			return wx.Sky{Cover: rule.cover}
		}
	}
	return wx.Sky{Cover: wx.SkyUnknown}
}

func phenomenonFromSummary(summary string) wx.Phenomenon {
	s := strings.ToLower(summary)
	for _, rule := range summaryWx {
		if strings.Contains(s, rule.phrase) {
			return wx.Phenomenon{Kind: rule.kind, Token: ptr.To(rule.phrase)}
		}
	}
	return wx.Phenomenon{Kind: wx.KindNone}
}
