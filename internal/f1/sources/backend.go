package sources

import (
	"context"

	"github.com/i474232898/pitbuddy/internal/f1"
)

// DefaultBackendURL is where `pitbuddy backend` listens by default.
const DefaultBackendURL = "http://localhost:8000"

// BackendClient reads standings and the schedule from the local backend.
type BackendClient struct {
	endpoint
}

func NewBackendClient(cfg HTTPClientConfig, baseURL string) *BackendClient {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return &BackendClient{endpoint: newEndpoint("backend", baseURL, cfg)}
}

func (c *BackendClient) DriverStandings(ctx context.Context) ([]f1.DriverStanding, error) {
	return getJSON[[]f1.DriverStanding](ctx, &c.endpoint, "/api/standings", nil)
}

func (c *BackendClient) ConstructorStandings(ctx context.Context) ([]f1.ConstructorStanding, error) {
	return getJSON[[]f1.ConstructorStanding](ctx, &c.endpoint, "/api/standings/constructors", nil)
}

func (c *BackendClient) Schedule(ctx context.Context) ([]f1.Race, error) {
	return getJSON[[]f1.Race](ctx, &c.endpoint, "/api/schedule", nil)
}
