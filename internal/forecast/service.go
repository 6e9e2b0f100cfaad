package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avlogbook/weather/internal/avwx"
	"github.com/avlogbook/weather/internal/nws"
	"github.com/avlogbook/weather/internal/wx"
)

// Tier boundaries, in hours until planned departure.
const (
	nearTermHorizon = 24 * time.Hour
	gridHorizon     = 168 * time.Hour
)

// ObservationSource provides encoded aviation weather for a station.
// *avwx.Client satisfies it.
type ObservationSource interface {
	FetchMETAR(ctx context.Context, station string) (*avwx.Report, error)
	FetchTAF(ctx context.Context, station string) (*avwx.ForecastText, error)
	FetchStationInfo(ctx context.Context, station string) (*avwx.Station, error)
	FetchHistorical(ctx context.Context, station string, at time.Time) (*avwx.Report, error)
}

// GridSource provides periodic text forecasts by coordinate. *nws.Client
// satisfies it.
type GridSource interface {
	FetchGridPeriods(ctx context.Context, lat, lon float64) ([]nws.Period, error)
}

// Service answers weather requests for flights. All work happens within the
// scope of the inbound request; the two station fetches of a tier run
// concurrently and are joined before the response is assembled.
type Service struct {
	flights  FlightStore
	resolver *Resolver
	obs      ObservationSource
	grid     GridSource
	log      *slog.Logger

	now func() time.Time
}

func NewService(flights FlightStore, dir StationDirectory, obs ObservationSource, grid GridSource, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		flights:  flights,
		resolver: NewResolver(dir),
		obs:      obs,
		grid:     grid,
		log:      log,
		now:      time.Now,
	}
}

// GetWeather produces the weather response for a flight: a permanent snapshot
// when departure has passed, otherwise a forecast from the tier matching the
// time to departure. Upstream failures degrade to null stations with source
// notes; they never surface as errors. Only record-store failures do.
func (s *Service) GetWeather(ctx context.Context, flightID int64) (Response, error) {
	flight, err := s.flights.Flight(ctx, flightID)
	if err != nil {
		return Response{}, fmt.Errorf("loading flight %d: %w", flightID, err)
	}

	now := s.now()
	if !flight.Departure().After(now) {
		snap, err := s.ensureSnapshot(ctx, flight)
		if err != nil {
			return Response{}, err
		}
		return snapshotResponse(snap), nil
	}

	return s.forecastFor(ctx, flight, now), nil
}

// EnsureSnapshot triggers the one-time snapshot capture for a past flight.
// It is idempotent: a flight with a successful snapshot is left alone, and a
// flight still in the future is a no-op.
func (s *Service) EnsureSnapshot(ctx context.Context, flightID int64) error {
	flight, err := s.flights.Flight(ctx, flightID)
	if err != nil {
		return fmt.Errorf("loading flight %d: %w", flightID, err)
	}
	if flight.Departure().After(s.now()) {
		return nil
	}
	_, err = s.ensureSnapshot(ctx, flight)
	return err
}

type stationResult struct {
	obs    *wx.Observation
	source StationSource
}

func (s *Service) forecastFor(ctx context.Context, flight *Flight, now time.Time) Response {
	origin := s.resolver.Resolve(ctx, flight.Origin, flight.OriginStationHint)
	destination := s.resolver.Resolve(ctx, flight.Destination, flight.DestinationStationHint)

	if origin == "" && destination == "" {
		return unavailableResponse("no weather station could be resolved for either airport")
	}

	departure := flight.Departure()
	untilDeparture := departure.Sub(now)

	resp := Response{Mode: ModeForecast, TargetTime: departure}

	if untilDeparture > gridHorizon {
		note := "forecasts are not yet available this far out"
		resp.OriginSource = StationSource{Station: origin, Source: SourceNone, Note: note}
		resp.DestinationSource = StationSource{Station: destination, Source: SourceNone, Note: note}
		resp.Notices = append(resp.Notices, "departure is more than 7 days away; no forecast source covers it yet")
		return resp
	}

	fetch := s.nearTermStation
	if untilDeparture > nearTermHorizon {
		fetch = s.gridStation
	}

	var wg sync.WaitGroup
	var results [2]stationResult
	for i, req := range []struct {
		station string
		target  time.Time
	}{
		{origin, departure},
		{destination, flight.Arrival()},
	} {
		i, req := i, req
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = fetch(ctx, req.station, req.target)
		}()
	}
	wg.Wait()

	resp.Origin, resp.OriginSource = results[0].obs, results[0].source
	resp.Destination, resp.DestinationSource = results[1].obs, results[1].source

	for _, r := range results {
		if r.source.Note != "" && r.source.Station != "" {
			resp.Notices = append(resp.Notices, r.source.Station+": "+r.source.Note)
		}
	}
	return resp
}

// nearTermStation prefers the forecast segment covering the target time and
// falls back to the current observation when the station issues no TAF.
func (s *Service) nearTermStation(ctx context.Context, station string, target time.Time) stationResult {
	if station == "" {
		return stationResult{source: StationSource{Source: SourceNone, Note: "no weather station resolved"}}
	}

	taf, tafErr := s.obs.FetchTAF(ctx, station)
	if tafErr != nil {
		s.log.Warn("forecast text fetch failed", "station", station, "err", tafErr)
	}
	if taf != nil {
		obs := wx.DecodeSegment(taf.RawText, station, target)
		return stationResult{obs: &obs, source: StationSource{Station: station, Source: SourceTAF}}
	}

	report, metarErr := s.obs.FetchMETAR(ctx, station)
	if metarErr != nil {
		s.log.Warn("current observation fetch failed", "station", station, "err", metarErr)
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "weather services unreachable",
		}}
	}
	if report == nil {
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "no current observation or forecast reported",
		}}
	}

	observedAt := report.ObservedAt
	obs := wx.Decode(report.RawText, station, &observedAt)
	return stationResult{obs: &obs, source: StationSource{
		Station: station,
		Source:  SourceMETAR,
		Note:    "no forecast text available; using current observation",
	}}
}

// gridStation serves the medium-term tier from the gridpoint forecast, which
// needs the station's coordinates from the directory service.
func (s *Service) gridStation(ctx context.Context, station string, target time.Time) stationResult {
	if station == "" {
		return stationResult{source: StationSource{Source: SourceNone, Note: "no weather station resolved"}}
	}

	info, err := s.obs.FetchStationInfo(ctx, station)
	if err != nil {
		s.log.Warn("station info fetch failed", "station", station, "err", err)
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "station coordinates unavailable",
		}}
	}
	if info == nil {
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "station coordinates unavailable",
		}}
	}

	periods, err := s.grid.FetchGridPeriods(ctx, info.Latitude, info.Longitude)
	if err != nil {
		s.log.Warn("grid forecast fetch failed", "station", station, "err", err)
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "grid forecast unavailable",
		}}
	}

	obs := FromGridPeriods(periods, station, target)
	if obs == nil {
		return stationResult{source: StationSource{
			Station: station,
			Source:  SourceNone,
			Note:    "grid forecast returned no periods",
		}}
	}
	return stationResult{obs: obs, source: StationSource{Station: station, Source: SourceGrid}}
}
