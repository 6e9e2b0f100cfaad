package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/avlogbook/weather/internal/avwx"
	"github.com/avlogbook/weather/internal/config"
	"github.com/avlogbook/weather/internal/forecast"
	"github.com/avlogbook/weather/internal/nws"
	"github.com/avlogbook/weather/internal/store"
	"github.com/avlogbook/weather/internal/wx"
)

func main() {
	flightID := flag.Int64("flight", 0, "Show weather for a logged flight by id")
	station := flag.String("station", "", "Show decoded weather for a station (e.g. KSFO)")
	atFlag := flag.String("at", "", "Target time for TAF segment selection (RFC3339, default now)")
	noRawFlag := flag.Bool("no-raw", false, "Hide raw report text")
	flagNoColor := flag.Bool("no-color", false, "Disable color output")
	flag.Parse()

	if *flagNoColor {
		color.NoColor = true // disables colorized output globally
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	avwxClient := avwx.NewClient(cfg.AvwxBaseURL, cfg.HTTPTimeout, cfg.UpstreamRPS, cfg.UpstreamBurst)

	if *station != "" {
		target := time.Now().UTC()
		if *atFlag != "" {
			parsed, err := time.Parse(time.RFC3339, *atFlag)
			if err != nil {
				fmt.Printf("Error: invalid -at time: %v\n", err)
				os.Exit(1)
			}
			target = parsed.UTC()
		}
		processStation(ctx, avwxClient, *station, target, *noRawFlag)
		return
	}

	if *flightID == 0 {
		fmt.Println("Usage: logbook-weather -station KSFO | -flight <id>")
		os.Exit(1)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	nwsClient := nws.NewClient(cfg.NwsBaseURL, cfg.NwsUserAgent, cfg.HTTPTimeout, cfg.UpstreamRPS, cfg.UpstreamBurst)
	svc := forecast.NewService(db, db, avwxClient, nwsClient, log)

	resp, err := svc.GetWeather(ctx, *flightID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

// processStation fetches, decodes and displays the current observation and
// the TAF segment covering the target time for one station.
func processStation(ctx context.Context, client *avwx.Client, station string, target time.Time, noRaw bool) {
	resolver := forecast.NewResolver(nil)
	resolved := resolver.Resolve(ctx, station, "")
	if resolved == "" {
		fmt.Printf("Error: %q does not resolve to a station code\n", station)
		os.Exit(1)
	}

	report, err := client.FetchMETAR(ctx, resolved)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else if report == nil {
		fmt.Printf("No current observation for %s\n", resolved)
	} else {
		if !noRaw {
			fmt.Println("Raw METAR:")
			fmt.Println(report.RawText)
			fmt.Println()
		}
		observedAt := report.ObservedAt
		obs := wx.Decode(report.RawText, resolved, &observedAt)
		printObservation("Current observation", &obs, forecast.StationSource{Source: forecast.SourceMETAR})
	}

	taf, err := client.FetchTAF(ctx, resolved)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if taf == nil {
		fmt.Printf("No TAF issued for %s\n", resolved)
		return
	}
	if !noRaw {
		fmt.Println("Raw TAF:")
		fmt.Println(taf.RawText)
		fmt.Println()
	}
	obs := wx.DecodeSegment(taf.RawText, resolved, target)
	printObservation(fmt.Sprintf("Forecast segment covering %s", target.Format(time.RFC3339)), &obs,
		forecast.StationSource{Source: forecast.SourceTAF})
}
