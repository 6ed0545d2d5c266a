package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/pitbuddy/internal/f1"
)

// DefaultOpenF1URL is the public OpenF1 API.
const DefaultOpenF1URL = "https://api.openf1.org/v1"

// OpenF1Client reads drivers, lap timing, weather and the race calendar from the OpenF1 API.
type OpenF1Client struct {
	endpoint
}

func NewOpenF1Client(cfg HTTPClientConfig, baseURL string) *OpenF1Client {
	if baseURL == "" {
		baseURL = DefaultOpenF1URL
	}
	return &OpenF1Client{endpoint: newEndpoint("openf1", baseURL, cfg)}
}

func sessionQuery(sessionKey string) url.Values {
	values := url.Values{}
	if sessionKey != "" {
		values.Set("session_key", sessionKey)
	}
	return values
}

// Drivers lists drivers. An empty sessionKey lists them across all sessions.
func (c *OpenF1Client) Drivers(ctx context.Context, sessionKey string) ([]f1.Driver, error) {
	return getJSON[[]f1.Driver](ctx, &c.endpoint, "/drivers", sessionQuery(sessionKey))
}

// LiveTiming returns the lap samples of a session.
func (c *OpenF1Client) LiveTiming(ctx context.Context, sessionKey string) ([]f1.LiveTiming, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("%w: session key is required", f1.ErrInvalidQuery)
	}
	return getJSON[[]f1.LiveTiming](ctx, &c.endpoint, "/laps", sessionQuery(sessionKey))
}

// Weather returns the weather samples of a session.
func (c *OpenF1Client) Weather(ctx context.Context, sessionKey string) ([]f1.Weather, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("%w: session key is required", f1.ErrInvalidQuery)
	}
	return getJSON[[]f1.Weather](ctx, &c.endpoint, "/weather", sessionQuery(sessionKey))
}

type openF1Meeting struct {
	MeetingKey       int    `json:"meeting_key"`
	MeetingName      string `json:"meeting_name"`
	CircuitShortName string `json:"circuit_short_name"`
	CountryName      string `json:"country_name"`
	DateStart        string `json:"date_start"`
	Year             int    `json:"year"`
}

type openF1Session struct {
	SessionKey       int    `json:"session_key"`
	SessionName      string `json:"session_name"`
	MeetingKey       int    `json:"meeting_key"`
	Location         string `json:"location"`
	CircuitShortName string `json:"circuit_short_name"`
	CountryName      string `json:"country_name"`
	DateStart        string `json:"date_start"`
}

// raceSessionName is the session name OpenF1 gives the Grand Prix itself.
const raceSessionName = "Race"

// MeetingSchedule adapts the OpenF1 races of one year to f1.ScheduleSource.
type MeetingSchedule struct {
	Client *OpenF1Client
	Year   int
}

func (m MeetingSchedule) Schedule(ctx context.Context) ([]f1.Race, error) {
	return m.Client.Schedule(ctx, m.Year)
}

// Schedule lists the Grand Prix of a year. Each race starts at its Race session,
// so meetings without one (pre-season testing) are not rounds. Rounds are
// numbered in start order; name, circuit and country come from the meeting.
func (c *OpenF1Client) Schedule(ctx context.Context, year int) ([]f1.Race, error) {
	var (
		sessions []openF1Session
		meetings []openF1Meeting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		q := url.Values{}
		q.Set("year", strconv.Itoa(year))
		q.Set("session_name", raceSessionName)
		sessions, err = getJSON[[]openF1Session](gctx, &c.endpoint, "/sessions", q)
		return err
	})
	g.Go(func() (err error) {
		q := url.Values{}
		q.Set("year", strconv.Itoa(year))
		meetings, err = getJSON[[]openF1Meeting](gctx, &c.endpoint, "/meetings", q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKey := lo.KeyBy(meetings, func(m openF1Meeting) int { return m.MeetingKey })

	type raceStart struct {
		session openF1Session
		start   time.Time
	}
	starts := make([]raceStart, 0, len(sessions))
	for _, s := range sessions {
		if s.SessionName != raceSessionName {
			continue
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s.DateStart))
		if err != nil {
			return nil, fmt.Errorf("%w: session %d: %v", f1.ErrInvalidPayload, s.SessionKey, err)
		}
		starts = append(starts, raceStart{session: s, start: ts.UTC()})
	}
	sort.SliceStable(starts, func(i, j int) bool { return starts[i].start.Before(starts[j].start) })

	races := make([]f1.Race, 0, len(starts))
	for i, rs := range starts {
		s := rs.session
		race := f1.Race{
			Round:       i + 1,
			RaceName:    s.Location,
			CircuitName: s.CircuitShortName,
			Date:        rs.start.Format("2006-01-02"),
			Time:        rs.start.Format("15:04:05Z07:00"),
			Country:     s.CountryName,
		}
		if m, ok := byKey[s.MeetingKey]; ok {
			race.RaceName = m.MeetingName
			race.CircuitName = lo.Ternary(m.CircuitShortName != "", m.CircuitShortName, race.CircuitName)
			race.Country = lo.Ternary(m.CountryName != "", m.CountryName, race.Country)
		}
		race.FlagURL = FlagURL(race.Country)
		races = append(races, race)
	}
	if err := f1.Validate(races); err != nil {
		return nil, err
	}
	return races, nil
}
