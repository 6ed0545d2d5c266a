package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pitbuddy/internal/f1"
)

func TestOpenF1DriversSessionScoping(t *testing.T) {
	queries := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drivers", r.URL.Path)
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"driver_number":44,"full_name":"Lewis HAMILTON","name_acronym":"HAM","team_name":"Mercedes","session_key":9158}]`))
	}))
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)

	drivers, err := c.Drivers(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "HAM", drivers[0].NameAcronym)
	assert.Equal(t, 9158, drivers[0].SessionKey)

	_, err = c.Drivers(context.Background(), "9158")
	require.NoError(t, err)

	assert.Equal(t, "", <-queries)
	assert.Equal(t, "session_key=9158", <-queries)
}

func TestOpenF1LiveTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/laps", r.URL.Path)
		assert.Equal(t, "latest", r.URL.Query().Get("session_key"))
		_, _ = w.Write([]byte(`[
			{"date_start":"2024-03-02T15:03:12.123000+00:00","driver_number":1,"lap_number":2,
			 "duration_sector_1":30.5,"duration_sector_2":null,"lap_duration":null,"i1_speed":305,"is_pit_out_lap":false}
		]`))
	}))
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	laps, err := c.LiveTiming(context.Background(), f1.LatestSession)
	require.NoError(t, err)
	require.Len(t, laps, 1)

	lap := laps[0]
	assert.Equal(t, 2, lap.LapNumber)
	require.NotNil(t, lap.Sector1)
	assert.Equal(t, 30.5, *lap.Sector1)
	assert.Nil(t, lap.Sector2)
	assert.Nil(t, lap.LapDuration)
	require.NotNil(t, lap.I1Speed)
	assert.Equal(t, 305, *lap.I1Speed)
	assert.Equal(t, 2024, lap.DateStart.Year())
}

func TestOpenF1SessionKeyRequired(t *testing.T) {
	c := NewOpenF1Client(HTTPClientConfig{Client: http.DefaultClient}, "http://localhost:1")

	_, err := c.LiveTiming(context.Background(), "")
	assert.ErrorIs(t, err, f1.ErrInvalidQuery)
	_, err = c.Weather(context.Background(), "")
	assert.ErrorIs(t, err, f1.ErrInvalidQuery)
}

func TestOpenF1Weather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		_, _ = w.Write([]byte(`[{"date":"2024-03-02T15:00:00+00:00","air_temperature":27.4,"track_temperature":38.1,"humidity":45,"rainfall":0,"wind_direction":180,"wind_speed":1.2}]`))
	}))
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	samples, err := c.Weather(context.Background(), "9158")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 27.4, samples[0].AirTemperature)
	assert.Equal(t, 180, samples[0].WindDirection)
}

const (
	meetings2024 = `[
		{"meeting_key":1228,"meeting_name":"Pre-Season Testing","circuit_short_name":"Sakhir","country_name":"Bahrain","date_start":"2024-02-21T07:00:00+00:00","year":2024},
		{"meeting_key":1229,"meeting_name":"Bahrain Grand Prix","circuit_short_name":"Sakhir","country_name":"Bahrain","date_start":"2024-02-29T14:30:00+03:00","year":2024},
		{"meeting_key":1230,"meeting_name":"Saudi Arabian Grand Prix","circuit_short_name":"Jeddah","country_name":"Saudi Arabia","date_start":"2024-03-07T13:30:00+00:00","year":2024}
	]`
	raceSessions2024 = `[
		{"session_key":9480,"session_name":"Race","meeting_key":1230,"location":"Jeddah","circuit_short_name":"Jeddah","country_name":"Saudi Arabia","date_start":"2024-03-09T17:00:00+00:00"},
		{"session_key":9472,"session_name":"Race","meeting_key":1229,"location":"Sakhir","circuit_short_name":"Sakhir","country_name":"Bahrain","date_start":"2024-03-02T18:00:00+03:00"}
	]`
)

func newScheduleServer(t *testing.T, sessions, meetings string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		switch r.URL.Path {
		case "/sessions":
			assert.Equal(t, "Race", r.URL.Query().Get("session_name"))
			_, _ = w.Write([]byte(sessions))
		case "/meetings":
			_, _ = w.Write([]byte(meetings))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOpenF1Schedule(t *testing.T) {
	srv := newScheduleServer(t, raceSessions2024, meetings2024)
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	races, err := MeetingSchedule{Client: c, Year: 2024}.Schedule(context.Background())
	require.NoError(t, err)
	require.Len(t, races, 2, "meetings without a race session are not rounds")

	assert.Equal(t, f1.Race{
		Round:       1,
		RaceName:    "Bahrain Grand Prix",
		CircuitName: "Sakhir",
		Date:        "2024-03-02",
		Time:        "15:00:00Z",
		Country:     "Bahrain",
		FlagURL:     "https://flagcdn.com/w80/bh.png",
	}, races[0])
	assert.Equal(t, 2, races[1].Round)
	assert.Equal(t, "Saudi Arabian Grand Prix", races[1].RaceName)
	assert.Equal(t, "https://flagcdn.com/w80/sa.png", races[1].FlagURL)
}

func TestOpenF1ScheduleNextRaceDuringRaceWeekend(t *testing.T) {
	srv := newScheduleServer(t, raceSessions2024, meetings2024)
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	races, err := c.Schedule(context.Background(), 2024)
	require.NoError(t, err)

	// Friday of the Bahrain weekend: practice has started, the race has not.
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cal, err := f1.BuildCalendar(races, now)
	require.NoError(t, err)

	require.NotNil(t, cal.Next)
	assert.Equal(t, "Bahrain Grand Prix", cal.Next.Race.RaceName)
	assert.Equal(t, 1, cal.Next.Race.Round)
	assert.False(t, cal.Entries[0].Past)
	for _, e := range cal.Entries {
		assert.NotEqual(t, "Pre-Season Testing", e.Race.RaceName)
	}
}

func TestOpenF1ScheduleWithoutMeeting(t *testing.T) {
	srv := newScheduleServer(t, raceSessions2024, `[]`)
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	races, err := c.Schedule(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, "Sakhir", races[0].RaceName)
	assert.Equal(t, "Bahrain", races[0].Country)
}

func TestOpenF1ScheduleBadDate(t *testing.T) {
	srv := newScheduleServer(t,
		`[{"session_key":1,"session_name":"Race","meeting_key":1,"location":"X","date_start":"tomorrow"}]`,
		`[]`)
	defer srv.Close()

	c := NewOpenF1Client(testConfig(srv, 0), srv.URL)
	_, err := c.Schedule(context.Background(), 2024)
	assert.ErrorIs(t, err, f1.ErrInvalidPayload)
}

func TestFlagURL(t *testing.T) {
	assert.Equal(t, "https://flagcdn.com/w80/it.png", FlagURL("Italy"))
	assert.Equal(t, "", FlagURL("Atlantis"))
}
