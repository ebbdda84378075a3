package pinger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
)

var errDown = errors.New("down")

type fakePinger struct {
	name           string
	err            atomic.Pointer[error]
	calls          atomic.Int32
	readyCritical  *bool
	healthCritical *bool
	timeout        time.Duration
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls.Add(1)

	if f.timeout > 0 {
		<-ctx.Done()

		return ctx.Err()
	}

	if p := f.err.Load(); p != nil {
		return *p
	}

	return nil
}

func (f *fakePinger) fail(err error) { f.err.Store(&err) }

type readyOptionalPinger struct{ *fakePinger }

func (readyOptionalPinger) PingerReadyCritical() bool { return false }

type healthOptionalPinger struct{ *fakePinger }

func (healthOptionalPinger) PingerCritical() bool { return false }

type slowPinger struct{ *fakePinger }

func (s slowPinger) PingerTimeout() time.Duration { return s.timeout }

func newService() *pinger.Service {
	return pinger.New(slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Millisecond)
}

func startAndWait(t *testing.T, s *pinger.Service) {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())

	require.NoError(t, s.Start(ctx))

	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("pinger service did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		require.NoError(t, s.Shutdown(context.Background()))
	})
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	s := newService()

	require.ErrorIs(t, s.Register(nil), pinger.ErrNilPinger)
	require.NoError(t, s.Register(&fakePinger{name: "a"}))
	require.ErrorIs(t, s.Register(&fakePinger{name: "a"}), pinger.ErrPingerAlreadyRegistered)
	require.Len(t, s.Results(), 1)
}

func TestService_NoPingers(t *testing.T) {
	t.Parallel()

	s := newService()

	require.True(t, s.AllReady())
	require.True(t, s.AllHealthy())
}

func TestService_NotReadyBeforeFirstPing(t *testing.T) {
	t.Parallel()

	s := newService()
	require.NoError(t, s.Register(&fakePinger{name: "http-server"}))

	require.False(t, s.AllReady())
	require.True(t, s.AllHealthy())
}

func TestService_Results(t *testing.T) {
	t.Parallel()

	ok := &fakePinger{name: "ok"}
	bad := &fakePinger{name: "bad"}
	bad.fail(errDown)

	s := newService()
	require.NoError(t, s.Register(ok))
	require.NoError(t, s.Register(bad))

	startAndWait(t, s)

	results := s.Results()
	require.True(t, results["ok"].OK())
	require.False(t, results["bad"].OK())
	require.Equal(t, "down", results["bad"].Error)
	require.GreaterOrEqual(t, results["bad"].ConsecutiveFailures, 1)
	require.False(t, s.AllReady())
}

func TestService_Criticality(t *testing.T) {
	t.Parallel()

	optional := &fakePinger{name: "optional"}
	optional.fail(errDown)

	s := newService()
	require.NoError(t, s.Register(readyOptionalPinger{optional}))

	startAndWait(t, s)

	require.True(t, s.AllReady(), "non ready-critical failure must not affect readiness")

	require.Eventually(t, func() bool {
		return !s.AllHealthy()
	}, time.Second, 5*time.Millisecond)

	flaky := &fakePinger{name: "flaky"}
	flaky.fail(errDown)

	s2 := newService()
	require.NoError(t, s2.Register(healthOptionalPinger{flaky}))

	startAndWait(t, s2)

	require.Eventually(t, func() bool {
		return flaky.calls.Load() > 3
	}, time.Second, 5*time.Millisecond)
	require.True(t, s2.AllHealthy())
	require.False(t, s2.AllReady())
}

func TestService_RecoversAfterFailure(t *testing.T) {
	t.Parallel()

	p := &fakePinger{name: "token-refresher"}
	p.fail(errDown)

	s := newService()
	require.NoError(t, s.Register(p))

	startAndWait(t, s)

	require.False(t, s.AllReady())

	p.err.Store(nil)

	require.Eventually(t, s.AllReady, time.Second, 5*time.Millisecond)
	require.Zero(t, s.Results()["token-refresher"].ConsecutiveFailures)
}

func TestService_PingerTimeout(t *testing.T) {
	t.Parallel()

	p := slowPinger{&fakePinger{name: "slow", timeout: 20 * time.Millisecond}}

	s := newService()
	require.NoError(t, s.Register(p))

	startAndWait(t, s)

	require.Equal(t, context.DeadlineExceeded.Error(), s.Results()["slow"].Error)
}

func TestService_ShutdownWithoutStart(t *testing.T) {
	t.Parallel()

	s := newService()

	require.NoError(t, s.Shutdown(t.Context()))
	require.NoError(t, s.Start(t.Context()))
	require.Equal(t, "pinger-service", s.Name())
}
