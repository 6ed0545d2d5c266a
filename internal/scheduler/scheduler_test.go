package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

func TestStartRunsImmediately(t *testing.T) {
	called := make(chan bool, 1)
	target := refresherFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		select {
		case called <- hasDeadline:
		default:
		}
		return nil
	})

	s := New(target, time.Hour, time.Second, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case hasDeadline := <-called:
		require.True(t, hasDeadline, "refresh context must be bounded")
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not called on start")
	}
}

func TestRefreshErrorDoesNotStopScheduler(t *testing.T) {
	called := make(chan struct{}, 1)
	target := refresherFunc(func(context.Context) error {
		select {
		case called <- struct{}{}:
		default:
		}
		return errors.New("upstream down")
	})

	s := New(target, 0, 0, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not called on start")
	}
}
