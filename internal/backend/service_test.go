package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pitbuddy/internal/f1"
)

type fakeUpstream struct {
	drivers      []f1.DriverStanding
	constructors []f1.ConstructorStanding
	races        []f1.Race
	results      []f1.TeamResult
	scheduleErr  error

	driverCalls  atomic.Int32
	resultsCalls atomic.Int32
	seasons      chan string
	release      chan struct{}
}

func (f *fakeUpstream) DriverStandings(_ context.Context, season string) ([]f1.DriverStanding, error) {
	f.driverCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.seasons != nil {
		f.seasons <- season
	}
	return f.drivers, nil
}

func (f *fakeUpstream) ConstructorStandings(context.Context, string) ([]f1.ConstructorStanding, error) {
	return f.constructors, nil
}

func (f *fakeUpstream) Schedule(context.Context, string) ([]f1.Race, error) {
	return f.races, f.scheduleErr
}

func (f *fakeUpstream) TeamResults(context.Context, string) ([]f1.TeamResult, error) {
	f.resultsCalls.Add(1)
	return f.results, nil
}

func pts(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDriverStandingsReadThrough(t *testing.T) {
	up := &fakeUpstream{
		drivers: []f1.DriverStanding{{Position: 1, DriverNumber: "1", FullName: "Max Verstappen", Points: pts(86)}},
		seasons: make(chan string, 1),
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	first, err := svc.DriverStandings(context.Background())
	require.NoError(t, err)
	second, err := svc.DriverStandings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), up.driverCalls.Load(), "second read is served from the store")
	assert.Equal(t, "2024", <-up.seasons)
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	up := &fakeUpstream{
		drivers: []f1.DriverStanding{{Position: 1, DriverNumber: "1", FullName: "Max Verstappen", Points: pts(86)}},
		release: make(chan struct{}),
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	const readers = 5
	results := make([][]f1.DriverStanding, readers)
	errs := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.DriverStandings(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return up.driverCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(up.release)
	wg.Wait()

	assert.Equal(t, int32(1), up.driverCalls.Load())
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, up.drivers, results[i])
	}
	assert.Len(t, svc.stores.Drivers.History(KeyDriverStandings), 1)
}

func TestReadThroughRefetchesStaleSnapshots(t *testing.T) {
	up := &fakeUpstream{drivers: []f1.DriverStanding{}}
	svc := NewService(up, NewStores(4, time.Nanosecond), "current", nil)

	_, err := svc.DriverStandings(context.Background())
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = svc.DriverStandings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), up.driverCalls.Load())
}

func TestConstructorStandingsFallsBackToResults(t *testing.T) {
	up := &fakeUpstream{
		constructors: []f1.ConstructorStanding{},
		results: []f1.TeamResult{
			{Round: 1, Team: "Ferrari", Points: pts(18)},
			{Round: 1, Team: "Red Bull", Points: pts(25)},
			{Round: 2, Team: "Ferrari", Points: pts(25)},
			{Round: 2, Team: "Red Bull", Points: pts(15)},
		},
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	rows, err := svc.ConstructorStandings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []f1.ConstructorStanding{
		{Position: 1, Name: "Ferrari", Points: pts(43)},
		{Position: 2, Name: "Red Bull", Points: pts(40)},
	}, rows)
}

func TestConstructorStandingsPreferUpstream(t *testing.T) {
	up := &fakeUpstream{
		constructors: []f1.ConstructorStanding{{Position: 1, Name: "McLaren", Points: pts(666)}},
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	rows, err := svc.ConstructorStandings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, up.constructors, rows)
	assert.Zero(t, up.resultsCalls.Load())
}

func TestRankConstructors(t *testing.T) {
	rows := RankConstructors([]f1.TeamResult{
		{Team: "Williams", Points: decimal.RequireFromString("0.5")},
		{Team: "Alpine", Points: decimal.RequireFromString("0.5")},
		{Team: "Haas", Points: pts(1)},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "Haas", rows[0].Name)
	assert.Equal(t, 2, rows[1].Position)
	assert.Equal(t, "Alpine", rows[1].Name, "ties are ordered by name")
	assert.Equal(t, "Williams", rows[2].Name)
	assert.Equal(t, 3, rows[2].Position)

	assert.Empty(t, RankConstructors(nil))
}

func TestRefreshKeepsGoingOnFailure(t *testing.T) {
	up := &fakeUpstream{
		drivers:      []f1.DriverStanding{{Position: 1, DriverNumber: "4", FullName: "Lando Norris", Points: pts(10)}},
		constructors: []f1.ConstructorStanding{{Position: 1, Name: "McLaren", Points: pts(10)}},
		scheduleErr:  f1.ErrFetchFailed,
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, f1.ErrFetchFailed)

	status := svc.Status()
	require.Len(t, status, 3)
	assert.Equal(t, KeyDriverStandings, status[0].Dataset)
	assert.Equal(t, 1, status[0].Snapshots)
	assert.Equal(t, 1, status[0].Records)
	assert.NotNil(t, status[0].FetchedAt)
	assert.Equal(t, 1, status[1].Snapshots)
	assert.Equal(t, KeySchedule, status[2].Dataset)
	assert.Zero(t, status[2].Snapshots)
	assert.Nil(t, status[2].FetchedAt)
}

func TestRefreshFillsStore(t *testing.T) {
	up := &fakeUpstream{
		drivers: []f1.DriverStanding{},
		races:   []f1.Race{{Round: 1, RaceName: "Bahrain Grand Prix", Date: "2024-03-02"}},
	}
	svc := NewService(up, NewStores(4, time.Hour), "2024", nil)

	require.NoError(t, svc.Refresh(context.Background()))
	up.scheduleErr = errors.New("unreachable")

	races, err := svc.Schedule(context.Background())
	require.NoError(t, err, "schedule is served from the refreshed snapshot")
	assert.Len(t, races, 1)
}
