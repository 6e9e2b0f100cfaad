package avwx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, 100, 100)
}

func TestFetchMETAR(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/metar", r.URL.Path)
		assert.Equal(t, "KSFO", r.URL.Query().Get("ids"))
		w.Write([]byte(`[{"rawOb":"KSFO 011756Z 28011KT 10SM FEW020 18/11 A3012","obsTime":1754071200}]`))
	}))

	report, err := client.FetchMETAR(context.Background(), "KSFO")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "KSFO 011756Z 28011KT 10SM FEW020 18/11 A3012", report.RawText)
	assert.Equal(t, time.Unix(1754071200, 0).UTC(), report.ObservedAt)
}

func TestFetchMETAR_noReport(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	report, err := client.FetchMETAR(context.Background(), "KXYZ")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestFetchMETAR_serverError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchMETAR(context.Background(), "KSFO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 502")
}

func TestFetchTAF(t *testing.T) {
	t.Parallel()

	const taf = "TAF KSFO 011720Z 0118/0224 28012KT P6SM FEW020\n"
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/taf", r.URL.Path)
		w.Write([]byte(taf))
	}))

	ft, err := client.FetchTAF(context.Background(), "KSFO")
	require.NoError(t, err)
	require.NotNil(t, ft)
	assert.Equal(t, "TAF KSFO 011720Z 0118/0224 28012KT P6SM FEW020", ft.RawText)
	require.NotNil(t, ft.IssuedAt)
	assert.Equal(t, 17, ft.IssuedAt.Hour())
	assert.Equal(t, 20, ft.IssuedAt.Minute())
}

func TestFetchTAF_stationWithoutTAF(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n"))
	}))

	ft, err := client.FetchTAF(context.Background(), "KHAF")
	require.NoError(t, err)
	assert.Nil(t, ft)
}

func TestIssuanceTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want *time.Time
	}{
		{
			name: "same month",
			text: "TAF KSFO 141720Z 1418/1524 28012KT",
			want: timePtr(time.Date(2026, time.August, 14, 17, 20, 0, 0, time.UTC)),
		},
		{
			name: "day ahead of now rolls back a month",
			text: "TAF KSFO 301720Z 3018/0124 28012KT",
			want: timePtr(time.Date(2026, time.July, 30, 17, 20, 0, 0, time.UTC)),
		},
		{
			name: "no issuance token",
			text: "28012KT P6SM FEW020",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := issuanceTime(tt.text, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestFetchStationInfo(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/stationinfo", r.URL.Path)
		w.Write([]byte(`[{"icaoId":"KSFO","site":"San Francisco Intl","state":"CA","country":"US","lat":37.6188,"lon":-122.3756,"elev":3}]`))
	}))

	station, err := client.FetchStationInfo(context.Background(), "KSFO")
	require.NoError(t, err)
	require.NotNil(t, station)
	assert.Equal(t, "KSFO", station.ICAO)
	assert.InDelta(t, 37.6188, station.Latitude, 0.0001)
	assert.InDelta(t, -122.3756, station.Longitude, 0.0001)
}

func TestFetchStationInfo_unknownStation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	station, err := client.FetchStationInfo(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, station)
}

const dataserverBody = `No errors
No warnings
3 ms
data source=metars
2 results
raw_text,station_id,observation_time,latitude,longitude
KSFO 011656Z 28008KT 10SM FEW020 17/11 A3013,KSFO,2026-08-01T16:56:00Z,37.62,-122.37
KSFO 011756Z 28011KT 10SM FEW020 18/11 A3012,KSFO,2026-08-01T17:56:00Z,37.62,-122.37
`

func TestFetchHistorical(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/data/dataserver.php", r.URL.Path)
		assert.Equal(t, "metars", r.URL.Query().Get("dataSource"))
		w.Write([]byte(dataserverBody))
	}))

	at := time.Date(2026, time.August, 1, 18, 10, 0, 0, time.UTC)
	report, err := client.FetchHistorical(context.Background(), "KSFO", at)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "KSFO 011756Z 28011KT 10SM FEW020 18/11 A3012", report.RawText)
	assert.Equal(t, time.Date(2026, time.August, 1, 17, 56, 0, 0, time.UTC), report.ObservedAt)
}

func TestFetchHistorical_onlyEarlierReportsQualify(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dataserverBody))
	}))

	// Between the two archived reports: the later one must not be chosen.
	at := time.Date(2026, time.August, 1, 17, 30, 0, 0, time.UTC)
	report, err := client.FetchHistorical(context.Background(), "KSFO", at)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, time.Date(2026, time.August, 1, 16, 56, 0, 0, time.UTC), report.ObservedAt)
}

func TestFetchHistorical_noArchivedReports(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No errors\nNo warnings\n0 results\nraw_text,station_id,observation_time\n"))
	}))

	report, err := client.FetchHistorical(context.Background(), "KSFO", time.Now())
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestParseDataserverCSV(t *testing.T) {
	t.Parallel()

	reports, err := parseDataserverCSV(dataserverBody)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "KSFO 011656Z 28008KT 10SM FEW020 17/11 A3013", reports[0].RawText)
	assert.Equal(t, time.Date(2026, time.August, 1, 16, 56, 0, 0, time.UTC), reports[0].ObservedAt)
}

func TestParseDataserverCSV_columnsInAnyOrder(t *testing.T) {
	t.Parallel()

	body := "1 results\nstation_id,observation_time,raw_text\nKSFO,2026-08-01T16:56:00Z,KSFO 011656Z 28008KT\n"
	reports, err := parseDataserverCSV(body)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "KSFO 011656Z 28008KT", reports[0].RawText)
}
