package f1

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LatestSession is the session key the statistics API resolves to the most recent session.
const LatestSession = "latest"

// Sources bundles the upstreams the Service reads from.
type Sources struct {
	Stats     StatsSource
	Schedule  ScheduleSource
	Standings StandingsSource
	Plots     PlotSource
}

// Service builds the per-page views. It keeps no state between calls.
type Service struct {
	src Sources
	log *zap.Logger
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the reference clock used for schedule flags.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new Service.
func NewService(src Sources, opts ...Option) *Service {
	s := &Service{
		src: src,
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar fetches the schedule and flags past and next races at the current instant.
func (s *Service) Calendar(ctx context.Context) (Calendar, error) {
	races, err := s.src.Schedule.Schedule(ctx)
	if err != nil {
		return Calendar{}, fmt.Errorf("schedule: %w", err)
	}
	now := s.now()
	cal, err := BuildCalendar(races, now)
	if err != nil {
		return Calendar{}, err
	}
	if cal.Concluded {
		s.log.Debug("no upcoming race", zap.Int("races", len(races)), zap.Time("now", now))
	}
	return cal, nil
}

// Standings is the combined drivers and constructors view.
type Standings struct {
	Drivers      []DriverStanding
	Constructors []ConstructorStanding
}

// Standings fetches both championships concurrently. Either failure fails the
// whole view.
func (s *Service) Standings(ctx context.Context) (Standings, error) {
	var out Standings

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.src.Standings.DriverStandings(gctx)
		if err != nil {
			return fmt.Errorf("driver standings: %w", err)
		}
		out.Drivers = d
		return nil
	})
	g.Go(func() error {
		c, err := s.src.Standings.ConstructorStandings(gctx)
		if err != nil {
			return fmt.Errorf("constructor standings: %w", err)
		}
		out.Constructors = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return Standings{}, err
	}
	return out, nil
}

// Drivers lists drivers, scoped to a session when sessionKey is set.
func (s *Service) Drivers(ctx context.Context, sessionKey string) ([]Driver, error) {
	drivers, err := s.src.Stats.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("drivers: %w", err)
	}
	return drivers, nil
}

// SessionTiming is the live timing view of one session.
type SessionTiming struct {
	SessionKey string
	Drivers    map[int]Driver
	Laps       []LiveTiming
	// Weather is the most recent sample, nil when the session has none.
	Weather *Weather
	// Conditions summarizes every weather sample of the session.
	Conditions WeatherSummary
}

// LiveTiming fetches drivers, laps and weather of a session concurrently.
func (s *Service) LiveTiming(ctx context.Context, sessionKey string) (SessionTiming, error) {
	if sessionKey == "" {
		sessionKey = LatestSession
	}

	var (
		drivers []Driver
		laps    []LiveTiming
		samples []Weather
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		drivers, err = s.src.Stats.Drivers(gctx, sessionKey)
		if err != nil {
			return fmt.Errorf("drivers: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		laps, err = s.src.Stats.LiveTiming(gctx, sessionKey)
		if err != nil {
			return fmt.Errorf("live timing: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		samples, err = s.src.Stats.Weather(gctx, sessionKey)
		if err != nil {
			return fmt.Errorf("weather: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return SessionTiming{}, err
	}

	view := SessionTiming{
		SessionKey: sessionKey,
		Drivers:    make(map[int]Driver, len(drivers)),
		Laps:       append([]LiveTiming(nil), laps...),
	}
	for _, d := range drivers {
		view.Drivers[d.DriverNumber] = d
	}

	sort.SliceStable(view.Laps, func(i, j int) bool {
		if view.Laps[i].LapNumber != view.Laps[j].LapNumber {
			return view.Laps[i].LapNumber > view.Laps[j].LapNumber
		}
		return view.Laps[i].DriverNumber < view.Laps[j].DriverNumber
	})

	for i := range samples {
		if view.Weather == nil || samples[i].Date.After(view.Weather.Date) {
			view.Weather = &samples[i]
		}
	}
	view.Conditions = SummarizeWeather(samples)

	return view, nil
}

// GearShiftPlot validates the query and fetches the plot image.
func (s *Service) GearShiftPlot(ctx context.Context, q PlotQuery) (Plot, error) {
	if err := validate.Struct(q); err != nil {
		return Plot{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	p, err := s.src.Plots.GearShiftPlot(ctx, q)
	if err != nil {
		return Plot{}, fmt.Errorf("gear shift plot: %w", err)
	}
	return p, nil
}
