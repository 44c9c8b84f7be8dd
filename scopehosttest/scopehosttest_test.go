package scopehosttest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/scopehost"
	"github.com/danpasecinic/scopehost/scopehosttest"
)

type Config struct {
	Port int
}

func TestStartScope_StopsOnCleanup(t *testing.T) {
	t.Parallel()

	rec := &scopehosttest.Recorder{}

	t.Run("scope", func(t *testing.T) {
		tc := scopehosttest.New(t)
		scopehosttest.MustProvideHostedService(tc, scopehosttest.NewRecordingService("a", rec))

		_, host := tc.StartScope(context.Background())
		assert.True(t, host.Lifetime().Started().Triggered())
	})

	assert.Equal(t, []string{
		"a.starting", "a.start", "a.started",
		"a.stopping", "a.stop", "a.stopped",
	}, rec.Calls())
}

func TestStartScope_AlreadyStopped(t *testing.T) {
	t.Parallel()

	rec := &scopehosttest.Recorder{}
	// runs last: cleanup must not stop the host a second time
	t.Cleanup(func() { assert.Empty(t, rec.Calls()) })

	tc := scopehosttest.New(t)
	scopehosttest.MustProvideHostedService(tc, scopehosttest.NewRecordingService("a", rec))

	_, host := tc.StartScope(context.Background())
	tc.RequireStop(context.Background(), host)
	rec.Reset()
}

func TestRecordingService_FailOn(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	rec := &scopehosttest.Recorder{}
	tc := scopehosttest.New(t)
	scopehosttest.MustProvideHostedService(tc,
		scopehosttest.NewRecordingService("a", rec).FailOn(scopehost.PhaseStart, errBoom),
	)

	_, host := tc.NewScope(context.Background())
	require.ErrorIs(t, host.Start(context.Background()), errBoom)
	assert.Equal(t, []string{"a.starting", "a.start", "a.started"}, rec.Calls())
}

func TestReplaceAndInvoke(t *testing.T) {
	t.Parallel()

	tc := scopehosttest.New(t)
	scopehosttest.MustProvideValue(tc, &Config{Port: 80})
	scopehosttest.Replace(tc, &Config{Port: 8080})

	s, _ := tc.NewScope(context.Background())
	scopehosttest.AssertHas[*Config](tc, s)
	assert.Equal(t, 8080, scopehosttest.MustInvoke[*Config](tc, s).Port)

	scopehosttest.ReplaceProvider(tc, func(context.Context, scopehost.Resolver) (*Config, error) {
		return &Config{Port: 9090}, nil
	})
	assert.Equal(t, 9090, scopehosttest.MustInvoke[*Config](tc, tc.Container.NewScope()).Port)
}

func TestAssertNotHas(t *testing.T) {
	t.Parallel()

	tc := scopehosttest.New(t)
	s, _ := tc.NewScope(context.Background())
	scopehosttest.AssertNotHas[*Config](tc, s)
}
