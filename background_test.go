package scopehost_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/scopehost"
)

func TestBackgroundService_StopCancelsWork(t *testing.T) {
	t.Parallel()

	running := make(chan struct{})
	svc := scopehost.NewBackgroundService("ticker", nil, func(ctx context.Context) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})

	startCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(startCtx))
	cancel()

	select {
	case <-running:
	case <-time.After(time.Second):
		t.Fatal("work did not start")
	}

	require.NoError(t, svc.Stop(context.Background()))
	assert.NoError(t, svc.Err())
}

func TestBackgroundService_FailureStopsScope(t *testing.T) {
	t.Parallel()

	errWork := errors.New("work failed")
	lt := scopehost.NewScopeLifetime(nil)
	svc := scopehost.NewBackgroundService("worker", lt, func(context.Context) error {
		return errWork
	})

	require.NoError(t, svc.Start(context.Background()))

	select {
	case <-lt.Stopping().Done():
	case <-time.After(time.Second):
		t.Fatal("scope stop was not requested")
	}
	require.NoError(t, svc.Stop(context.Background()))
	assert.ErrorIs(t, svc.Err(), errWork)
}

func TestBackgroundService_IgnoreError(t *testing.T) {
	t.Parallel()

	lt := scopehost.NewScopeLifetime(nil)
	svc := scopehost.NewBackgroundService("worker", lt, func(context.Context) error {
		panic("boom")
	}, scopehost.WithErrorBehavior(scopehost.IgnoreError))

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))

	assert.True(t, scopehost.IsPanic(svc.Err()))
	assert.False(t, lt.Stopping().Triggered())
}

func TestBackgroundService_StopTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	svc := scopehost.NewBackgroundService("stuck", nil, func(context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, svc.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Stop(ctx), context.DeadlineExceeded)
}

func TestBackgroundService_InHost(t *testing.T) {
	t.Parallel()

	c := scopehost.New()
	ticks := make(chan struct{}, 1)
	require.NoError(t, scopehost.ProvideHostedService(c,
		func(ctx context.Context, r scopehost.Resolver) (*scopehost.BackgroundService, error) {
			lt, err := scopehost.Invoke[*scopehost.ScopeLifetime](ctx, r)
			if err != nil {
				return nil, err
			}
			return scopehost.NewBackgroundService("poller", lt, func(ctx context.Context) error {
				ticks <- struct{}{}
				<-ctx.Done()
				return nil
			}), nil
		},
	))

	host, _ := newHost(t, c)
	require.NoError(t, host.Start(context.Background()))

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("background work did not run")
	}
	require.NoError(t, host.Stop(context.Background()))
}
