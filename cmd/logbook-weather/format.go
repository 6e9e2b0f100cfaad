package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/avlogbook/weather/internal/forecast"
	"github.com/avlogbook/weather/internal/wx"
)

// Color definitions using fatih/color
var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgWhite)
	dateColor    = color.New(color.FgGreen)
	sectionColor = color.New(color.FgBlue)
	noticeColor  = color.New(color.FgYellow)
)

// formatWind converts a decoded wind group to a human-readable string
func formatWind(wind wx.Wind) string {
	if wind.SpeedKt == nil && wind.DirectionDeg == nil && !wind.Variable {
		return "not reported"
	}

	var b strings.Builder
	if wind.Variable {
		b.WriteString("Variable")
	} else if wind.DirectionDeg != nil {
		fmt.Fprintf(&b, "From %d°", *wind.DirectionDeg)
	}

	if wind.SpeedKt != nil {
		if b.Len() > 0 {
			b.WriteString(" at ")
		}
		fmt.Fprintf(&b, "%d knots", *wind.SpeedKt)
	}
	if wind.GustKt != nil {
		fmt.Fprintf(&b, ", gusting %d knots", *wind.GustKt)
	}
	return b.String()
}

func formatSky(sky wx.Sky) string {
	switch sky.Cover {
	case wx.SkyUnknown:
		return "no cloud layer reported"
	case wx.SkyClear:
		return "clear"
	}
	if sky.CeilingFt != nil {
		return fmt.Sprintf("%s at %d ft", sky.Cover, *sky.CeilingFt)
	}
	return string(sky.Cover)
}

func formatPhenomenon(p wx.Phenomenon) string {
	if p.Kind == wx.KindNone {
		return "none reported"
	}
	if p.Token != nil {
		return fmt.Sprintf("%s (%s)", p.Kind, *p.Token)
	}
	return string(p.Kind)
}

func printObservation(heading string, obs *wx.Observation, src forecast.StationSource) {
	sectionColor.Println(heading)
	if obs == nil {
		note := src.Note
		if note == "" {
			note = "no weather available"
		}
		noticeColor.Printf("  %s\n\n", note)
		return
	}

	labelColor.Print("  Station:     ")
	valueColor.Println(obs.Station)
	if obs.ObservedAt != nil {
		labelColor.Print("  Observed:    ")
		dateColor.Println(obs.ObservedAt.UTC().Format(time.RFC3339))
	}
	labelColor.Print("  Wind:        ")
	valueColor.Println(formatWind(obs.Wind))
	if obs.TemperatureC != nil {
		labelColor.Print("  Temperature: ")
		valueColor.Printf("%d°C\n", *obs.TemperatureC)
	}
	labelColor.Print("  Sky:         ")
	valueColor.Println(formatSky(obs.Sky))
	labelColor.Print("  Weather:     ")
	valueColor.Println(formatPhenomenon(obs.Wx))
	if src.Source != "" && src.Source != forecast.SourceNone {
		labelColor.Print("  Source:      ")
		valueColor.Println(src.Source)
	}
	fmt.Println()
}

func printResponse(resp forecast.Response) {
	switch resp.Mode {
	case forecast.ModeSnapshot:
		snap := resp.Snapshot
		sectionColor.Println("Archived weather snapshot")
		labelColor.Print("  Captured: ")
		dateColor.Println(snap.CapturedAt.UTC().Format(time.RFC3339))
		if snap.Notes != nil {
			noticeColor.Printf("  Notes: %s\n", *snap.Notes)
		}
		fmt.Println()
		printObservation("Origin", snap.Origin, forecast.StationSource{})
		printObservation("Destination", snap.Destination, forecast.StationSource{})
	case forecast.ModeForecast:
		sectionColor.Printf("Forecast for %s\n\n", resp.TargetTime.UTC().Format(time.RFC3339))
		printObservation("Origin", resp.Origin, resp.OriginSource)
		printObservation("Destination", resp.Destination, resp.DestinationSource)
	default:
		noticeColor.Println("No weather available for this flight")
	}

	for _, notice := range resp.Notices {
		noticeColor.Printf("Note: %s\n", notice)
	}
}
