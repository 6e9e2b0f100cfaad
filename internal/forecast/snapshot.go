package forecast

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"k8s.io/utils/ptr"

	"github.com/avlogbook/weather/internal/wx"
)

// ensureSnapshot returns the flight's snapshot, capturing and persisting one
// first if none exists. A successful snapshot is permanent; a prior
// unavailable one is retried best-effort. Capture failures are recorded in
// the snapshot itself so a later request can tell "attempted and failed"
// from "never attempted" — the write happens regardless.
func (s *Service) ensureSnapshot(ctx context.Context, flight *Flight) (Snapshot, error) {
	if flight.Snapshot != nil && !flight.Snapshot.Unavailable {
		return *flight.Snapshot, nil
	}

	snap := s.captureSnapshot(ctx, flight)
	if err := s.flights.SaveSnapshot(ctx, flight.ID, snap); err != nil {
		return Snapshot{}, fmt.Errorf("persisting snapshot for flight %d: %w", flight.ID, err)
	}
	return snap, nil
}

func (s *Service) captureSnapshot(ctx context.Context, flight *Flight) Snapshot {
	origin := s.resolver.Resolve(ctx, flight.Origin, flight.OriginStationHint)
	destination := s.resolver.Resolve(ctx, flight.Destination, flight.DestinationStationHint)

	type capture struct {
		obs  *wx.Observation
		note string
	}

	fetchOne := func(station string, at time.Time) capture {
		if station == "" {
			return capture{}
		}
		report, err := s.obs.FetchHistorical(ctx, station, at)
		if err != nil {
			s.log.Warn("historical observation fetch failed", "station", station, "err", err)
			return capture{note: fmt.Sprintf("%s: historical fetch failed: %v", station, err)}
		}
		if report == nil {
			return capture{note: fmt.Sprintf("%s: no archived observation near %s", station, at.UTC().Format(time.RFC3339))}
		}
		observedAt := report.ObservedAt
		obs := wx.Decode(report.RawText, station, &observedAt)
		return capture{obs: &obs}
	}

	var wg sync.WaitGroup
	var captures [2]capture
	for i, req := range []struct {
		station string
		at      time.Time
	}{
		{origin, flight.ActualStart()},
		{destination, flight.ActualEnd()},
	} {
		i, req := i, req
		wg.Add(1)
		go func() {
			defer wg.Done()
			captures[i] = fetchOne(req.station, req.at)
		}()
	}
	wg.Wait()

	snap := Snapshot{
		Version:     SnapshotVersion,
		CapturedAt:  s.now().UTC(),
		Origin:      captures[0].obs,
		Destination: captures[1].obs,
		Unavailable: captures[0].obs == nil && captures[1].obs == nil,
	}

	var notes []string
	if origin == "" && destination == "" {
		notes = append(notes, "no weather station could be resolved for either airport")
	}
	for _, c := range captures {
		if c.note != "" {
			notes = append(notes, c.note)
		}
	}
	if len(notes) > 0 {
		snap.Notes = ptr.To(strings.Join(notes, "; "))
	}
	return snap
}
