package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/pitbuddy/internal/f1"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero disables retries.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Logger  *zap.Logger
}

// DefaultBackoff is the backoff used when none is configured.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      0,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// FetchError reports a non-success HTTP status. It matches f1.ErrFetchFailed.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", f1.ErrFetchFailed, e.Status)
}

func (e *FetchError) Is(target error) bool {
	return target == f1.ErrFetchFailed
}

func (e *FetchError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newFetchError(u string, code int) *FetchError {
	status := http.StatusText(code)
	if status == "" {
		status = fmt.Sprintf("status %d", code)
	}
	return &FetchError{URL: u, StatusCode: code, Status: status}
}

// endpoint is the shared plumbing of every upstream client: base URL,
// circuit breaker and retry policy.
type endpoint struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func newEndpoint(name, baseURL string, cfg HTTPClientConfig) endpoint {
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors and cancelled callers say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			var fe *FetchError
			if errors.As(err, &fe) {
				return !fe.retryable()
			}
			return err == nil
		},
	})

	return endpoint{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: cb,
		log:     l.Named("sources." + name),
	}
}

func (e *endpoint) url(path string, query url.Values) string {
	u := e.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get issues one GET and returns the response of a 2xx answer. Any other
// status fails with *FetchError before the body is read.
func (e *endpoint) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := e.url(path, query)
	resp, err := doRequestWithResilience(ctx, e.httpCfg, e.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	})
	if err != nil {
		e.log.Debug("request failed", zap.String("url", u), zap.Error(err))
		return nil, err
	}
	e.log.Debug("request ok", zap.String("url", u), zap.Int("status", resp.StatusCode))
	return resp, nil
}

// getJSON fetches path and decodes the body into T, validating the result.
func getJSON[T any](ctx context.Context, e *endpoint, path string, query url.Values) (T, error) {
	var out T

	resp, err := e.get(ctx, path, query)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", f1.ErrInvalidPayload, e.name, err)
	}
	if err := f1.Validate(out); err != nil {
		return out, fmt.Errorf("%s: %w", e.name, err)
	}
	return out, nil
}

// doRequestWithResilience executes the HTTP request through the circuit breaker,
// retrying rate limited, server and transport errors with exponential backoff.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, fmt.Errorf("%w: %w", f1.ErrFetchFailed, execErr)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, newFetchError(req.URL.String(), resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", f1.ErrFetchFailed, errCircuitOpen, err)
		}

		var fe *FetchError
		if errors.As(err, &fe) && !fe.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
