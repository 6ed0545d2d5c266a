package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/pitbuddy/internal/f1"
	"github.com/i474232898/pitbuddy/internal/store"
)

// Dataset keys used in the store.
const (
	KeyDriverStandings      = "driver-standings"
	KeyConstructorStandings = "constructor-standings"
	KeySchedule             = "schedule"
)

// Upstream is the season data source the backend serves from.
type Upstream interface {
	DriverStandings(ctx context.Context, season string) ([]f1.DriverStanding, error)
	ConstructorStandings(ctx context.Context, season string) ([]f1.ConstructorStanding, error)
	Schedule(ctx context.Context, season string) ([]f1.Race, error)
	TeamResults(ctx context.Context, season string) ([]f1.TeamResult, error)
}

// Stores holds one snapshot store per dataset.
type Stores struct {
	Drivers      *store.MemoryStore[[]f1.DriverStanding]
	Constructors *store.MemoryStore[[]f1.ConstructorStanding]
	Schedule     *store.MemoryStore[[]f1.Race]
}

// NewStores creates the dataset stores with the same retention.
func NewStores(maxHistory int, maxAge time.Duration) Stores {
	return Stores{
		Drivers:      store.NewMemoryStore[[]f1.DriverStanding](maxHistory, maxAge),
		Constructors: store.NewMemoryStore[[]f1.ConstructorStanding](maxHistory, maxAge),
		Schedule:     store.NewMemoryStore[[]f1.Race](maxHistory, maxAge),
	}
}

// Service serves one season's standings and schedule, reading through the stores.
type Service struct {
	upstream Upstream
	stores   Stores
	season   string
	log      *zap.Logger

	// group collapses concurrent upstream fetches of the same dataset.
	group singleflight.Group
}

// NewService creates a new Service.
func NewService(upstream Upstream, stores Stores, season string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		upstream: upstream,
		stores:   stores,
		season:   season,
		log:      log.Named("backend"),
	}
}

// Season returns the season identifier the service serves.
func (s *Service) Season() string { return s.season }

// readThrough returns the fresh snapshot for key or fetches and saves a new one.
// Concurrent misses for the same key share a single upstream fetch.
func readThrough[T any](
	s *Service,
	st *store.MemoryStore[T],
	key string,
	fetch func() (T, error),
) (T, error) {
	var zero T

	snap, err := st.GetLatest(key)
	if err == nil {
		return snap.Value, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return zero, err
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		// a flight that just finished may have saved a snapshot
		if snap, err := st.GetLatest(key); err == nil {
			return snap.Value, nil
		}
		s.log.Debug("cache miss", zap.String("dataset", key), zap.String("season", s.season))
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		st.Save(key, v)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		s.log.Debug("shared upstream fetch", zap.String("dataset", key))
	}
	return v.(T), nil
}

// refreshDataset fetches and saves key unconditionally, joining any fetch
// of the same key already in flight.
func refreshDataset[T any](
	s *Service,
	st *store.MemoryStore[T],
	key string,
	fetch func() (T, error),
) error {
	_, err, _ := s.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		st.Save(key, v)
		return v, nil
	})
	return err
}

// DriverStandings returns the drivers' championship.
func (s *Service) DriverStandings(ctx context.Context) ([]f1.DriverStanding, error) {
	return readThrough(s, s.stores.Drivers, KeyDriverStandings, func() ([]f1.DriverStanding, error) {
		return s.fetchDriverStandings(ctx)
	})
}

// ConstructorStandings returns the constructors' championship. When the upstream
// has no constructors' standings for the season, they are ranked from race results.
func (s *Service) ConstructorStandings(ctx context.Context) ([]f1.ConstructorStanding, error) {
	return readThrough(s, s.stores.Constructors, KeyConstructorStandings, func() ([]f1.ConstructorStanding, error) {
		return s.fetchConstructorStandings(ctx)
	})
}

// Schedule returns the season calendar.
func (s *Service) Schedule(ctx context.Context) ([]f1.Race, error) {
	return readThrough(s, s.stores.Schedule, KeySchedule, func() ([]f1.Race, error) {
		return s.fetchSchedule(ctx)
	})
}

func (s *Service) fetchDriverStandings(ctx context.Context) ([]f1.DriverStanding, error) {
	d, err := s.upstream.DriverStandings(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("driver standings: %w", err)
	}
	return d, nil
}

func (s *Service) fetchConstructorStandings(ctx context.Context) ([]f1.ConstructorStanding, error) {
	c, err := s.upstream.ConstructorStandings(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("constructor standings: %w", err)
	}
	if len(c) > 0 {
		return c, nil
	}

	results, err := s.upstream.TeamResults(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("team results: %w", err)
	}
	s.log.Info("ranking constructors from race results",
		zap.String("season", s.season), zap.Int("results", len(results)))
	return RankConstructors(results), nil
}

func (s *Service) fetchSchedule(ctx context.Context) ([]f1.Race, error) {
	r, err := s.upstream.Schedule(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return r, nil
}

// Refresh fetches every dataset concurrently and stores the results.
// Datasets that fail keep their previous snapshot; one failure does not
// cancel the others.
func (s *Service) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return refreshDataset(s, s.stores.Drivers, KeyDriverStandings, func() ([]f1.DriverStanding, error) {
			return s.fetchDriverStandings(ctx)
		})
	})
	g.Go(func() error {
		return refreshDataset(s, s.stores.Constructors, KeyConstructorStandings, func() ([]f1.ConstructorStanding, error) {
			return s.fetchConstructorStandings(ctx)
		})
	})
	g.Go(func() error {
		return refreshDataset(s, s.stores.Schedule, KeySchedule, func() ([]f1.Race, error) {
			return s.fetchSchedule(ctx)
		})
	})
	return g.Wait()
}

// DatasetStatus describes what the store holds for a dataset.
type DatasetStatus struct {
	Dataset   string     `json:"dataset"`
	Snapshots int        `json:"snapshots"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
	Records   int        `json:"records"`
}

func datasetStatus[T any](st *store.MemoryStore[[]T], key string) DatasetStatus {
	history := st.History(key)
	status := DatasetStatus{Dataset: key, Snapshots: len(history)}
	if len(history) > 0 {
		latest := history[len(history)-1]
		status.FetchedAt = &latest.FetchedAt
		status.Records = len(latest.Value)
	}
	return status
}

// Status reports the retained snapshots of every dataset.
func (s *Service) Status() []DatasetStatus {
	return []DatasetStatus{
		datasetStatus(s.stores.Drivers, KeyDriverStandings),
		datasetStatus(s.stores.Constructors, KeyConstructorStandings),
		datasetStatus(s.stores.Schedule, KeySchedule),
	}
}

// RankConstructors sums points per team and ranks teams by total, highest first.
// Ties are ordered by name; positions are 1-based.
func RankConstructors(results []f1.TeamResult) []f1.ConstructorStanding {
	totals := make(map[string]decimal.Decimal)
	for _, r := range results {
		totals[r.Team] = totals[r.Team].Add(r.Points)
	}

	out := make([]f1.ConstructorStanding, 0, len(totals))
	for team, pts := range totals {
		out = append(out, f1.ConstructorStanding{Name: team, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Points.Cmp(out[j].Points); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
