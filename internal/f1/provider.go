package f1

import (
	"context"
)

// StatsSource abstracts the remote statistics API.
// An empty sessionKey on Drivers lists drivers across all sessions.
type StatsSource interface {
	Drivers(ctx context.Context, sessionKey string) ([]Driver, error)
	LiveTiming(ctx context.Context, sessionKey string) ([]LiveTiming, error)
	Weather(ctx context.Context, sessionKey string) ([]Weather, error)
}

// ScheduleSource returns the season calendar in round order.
type ScheduleSource interface {
	Schedule(ctx context.Context) ([]Race, error)
}

// StandingsSource abstracts the championship standings endpoint.
type StandingsSource interface {
	DriverStandings(ctx context.Context) ([]DriverStanding, error)
	ConstructorStandings(ctx context.Context) ([]ConstructorStanding, error)
}

// PlotSource abstracts the telemetry plotting endpoint.
type PlotSource interface {
	GearShiftPlot(ctx context.Context, q PlotQuery) (Plot, error)
}
