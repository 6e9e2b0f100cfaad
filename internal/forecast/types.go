// Package forecast selects a weather data source for a flight, orchestrates
// the per-station fetches and persists point-in-time snapshots for flights
// already flown.
package forecast

import (
	"context"
	"time"

	"github.com/avlogbook/weather/internal/wx"
)

// SnapshotVersion is the persisted snapshot format version.
const SnapshotVersion = 1

// Snapshot is the permanent weather record attached to a completed flight.
// Once written with Unavailable=false it is never replaced; an unavailable
// snapshot may be retried on a later request.
type Snapshot struct {
	Version     int             `json:"version"`
	CapturedAt  time.Time       `json:"capturedAt"`
	Unavailable bool            `json:"unavailable"`
	Origin      *wx.Observation `json:"origin"`
	Destination *wx.Observation `json:"destination"`
	Notes       *string         `json:"notes"`
}

// Flight is the engine's view of a flight record. Zero planned times fall
// back to the actual times and vice versa.
type Flight struct {
	ID                     int64
	Origin                 string
	Destination            string
	OriginStationHint      string
	DestinationStationHint string
	StartTime              time.Time
	EndTime                time.Time
	PlannedStart           time.Time
	PlannedEnd             time.Time
	Snapshot               *Snapshot
}

// Departure is the time used for tier selection and the origin target.
func (f *Flight) Departure() time.Time {
	if !f.PlannedStart.IsZero() {
		return f.PlannedStart
	}
	return f.StartTime
}

// Arrival is the destination target time.
func (f *Flight) Arrival() time.Time {
	if !f.PlannedEnd.IsZero() {
		return f.PlannedEnd
	}
	if !f.EndTime.IsZero() {
		return f.EndTime
	}
	return f.Departure()
}

// ActualStart is the time the historical origin observation is anchored to.
func (f *Flight) ActualStart() time.Time {
	if !f.StartTime.IsZero() {
		return f.StartTime
	}
	return f.Departure()
}

// ActualEnd is the time the historical destination observation is anchored to.
func (f *Flight) ActualEnd() time.Time {
	if !f.EndTime.IsZero() {
		return f.EndTime
	}
	return f.Arrival()
}

// FlightStore is the persistence boundary for flight records. The snapshot
// write replaces the whole snapshot value for the flight: two concurrent
// captures both write valid values for the same historical fact, so the last
// writer wins without corruption.
type FlightStore interface {
	Flight(ctx context.Context, id int64) (*Flight, error)
	SaveSnapshot(ctx context.Context, flightID int64, snap Snapshot) error
}

// StationDirectory answers exact-code lookups against the airport directory.
// A label with no match returns an empty code and a nil error.
type StationDirectory interface {
	PreferredStation(ctx context.Context, code string) (string, error)
}

// Mode discriminates the response union.
type Mode string

const (
	ModeSnapshot    Mode = "snapshot"
	ModeForecast    Mode = "forecast"
	ModeUnavailable Mode = "unavailable"
)

// StationSource describes where one station's observation came from, or why
// there is none.
type StationSource struct {
	Station string `json:"station,omitempty"`
	Source  string `json:"source,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Source descriptors used in StationSource.Source.
const (
	SourceMETAR      = "metar"
	SourceTAF        = "taf"
	SourceGrid       = "nws-grid"
	SourceHistorical = "historical"
	SourceNone       = "none"
)

// Response is what a weather request produces. Exactly one mode is populated:
// Snapshot for past flights, the forecast fields for future ones, or neither
// when no weather can be produced at all.
type Response struct {
	Mode Mode `json:"mode"`

	Snapshot *Snapshot `json:"snapshot,omitempty"`

	Origin            *wx.Observation `json:"origin,omitempty"`
	Destination       *wx.Observation `json:"destination,omitempty"`
	TargetTime        time.Time       `json:"targetTime,omitzero"`
	OriginSource      StationSource   `json:"originSource,omitzero"`
	DestinationSource StationSource   `json:"destinationSource,omitzero"`

	Notices []string `json:"notices,omitempty"`
}

func snapshotResponse(snap Snapshot) Response {
	return Response{Mode: ModeSnapshot, Snapshot: &snap}
}

func unavailableResponse(notices ...string) Response {
	return Response{Mode: ModeUnavailable, Notices: notices}
}
