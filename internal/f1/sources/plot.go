package sources

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/i474232898/pitbuddy/internal/f1"
)

// maxPlotBytes bounds the image body read into memory.
const maxPlotBytes = 16 << 20

// PlotClient fetches telemetry plot images.
type PlotClient struct {
	endpoint
}

func NewPlotClient(cfg HTTPClientConfig, baseURL string) *PlotClient {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return &PlotClient{endpoint: newEndpoint("plot", baseURL, cfg)}
}

// GearShiftPlot returns the gear shift plot of the session identified by q.
func (c *PlotClient) GearShiftPlot(ctx context.Context, q f1.PlotQuery) (f1.Plot, error) {
	values := url.Values{}
	values.Set("year", strconv.Itoa(q.Year))
	values.Set("location", q.Location)
	values.Set("event_type", q.EventType)

	resp, err := c.get(ctx, "/api/gear-shifts", values)
	if err != nil {
		return f1.Plot{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPlotBytes+1))
	if err != nil {
		return f1.Plot{}, fmt.Errorf("plot: reading body: %w", err)
	}
	if len(data) > maxPlotBytes {
		return f1.Plot{}, fmt.Errorf("%w: plot exceeds %d bytes", f1.ErrInvalidPayload, maxPlotBytes)
	}
	if len(data) == 0 {
		return f1.Plot{}, fmt.Errorf("%w: empty plot", f1.ErrInvalidPayload)
	}

	return f1.Plot{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
