package shutdown_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown/mocks"
)

var errShutdown = errors.New("shutdown failed")

func TestCheckTerminationFile(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("file missing returns false", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "nonexistent")

		got := shutdown.CheckTerminationFile(t.Context(), logger, path)
		require.False(t, got)
	})

	t.Run("file exists returns true", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "terminating")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		got := shutdown.CheckTerminationFile(t.Context(), logger, path)
		require.True(t, got)
	})
}

func TestGracefulShutdown(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("empty list returns nil", func(t *testing.T) {
		t.Parallel()

		err := shutdown.GracefulShutdown(t.Context(), logger, nil)
		require.NoError(t, err)
	})

	t.Run("one shutdowner success returns nil", func(t *testing.T) {
		t.Parallel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("test").Once()
		m.EXPECT().Shutdown(mock.Anything).Return(nil).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{m})
		require.NoError(t, err)
	})

	t.Run("one shutdowner error returns error", func(t *testing.T) {
		t.Parallel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("test").Once()
		m.EXPECT().Shutdown(mock.Anything).Return(context.DeadlineExceeded).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{m})
		require.Error(t, err)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("multiple shutdowners called in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string

		first := mocks.NewMockShutdowner(t)
		first.EXPECT().Name().Return("first").Once()
		first.EXPECT().Shutdown(mock.Anything).Run(func(context.Context) {
			order = append(order, "first")
		}).Return(nil).Once()

		second := mocks.NewMockShutdowner(t)
		second.EXPECT().Name().Return("second").Once()
		second.EXPECT().Shutdown(mock.Anything).Run(func(context.Context) {
			order = append(order, "second")
		}).Return(nil).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{first, second})
		require.NoError(t, err)
		require.Equal(t, []string{"second", "first"}, order)
	})

	t.Run("failure does not stop remaining shutdowners", func(t *testing.T) {
		t.Parallel()

		first := mocks.NewMockShutdowner(t)
		first.EXPECT().Name().Return("first").Once()
		first.EXPECT().Shutdown(mock.Anything).Return(nil).Once()

		second := mocks.NewMockShutdowner(t)
		second.EXPECT().Name().Return("second").Once()
		second.EXPECT().Shutdown(mock.Anything).Return(errShutdown).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{first, second})
		require.ErrorIs(t, err, errShutdown)
	})

	t.Run("cancelled parent context still allows shutdown", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("test").Once()
		m.EXPECT().Shutdown(mock.Anything).RunAndReturn(func(ctx context.Context) error {
			return ctx.Err()
		}).Once()

		err := shutdown.GracefulShutdown(ctx, logger, []shutdown.Shutdowner{m})
		require.NoError(t, err)
	})
}

func TestCheckTerminationFile_EmptyPath(t *testing.T) {
	t.Parallel()

	require.False(t, shutdown.CheckTerminationFile(t.Context(), slog.Default(), ""))
}

type fakeQuiter struct {
	ch chan os.Signal
}

func (f fakeQuiter) Quit() <-chan os.Signal {
	return f.ch
}

func TestHandler_HandleSignals(t *testing.T) {
	t.Parallel()

	t.Run("signal cancels", func(t *testing.T) {
		t.Parallel()

		q := fakeQuiter{ch: make(chan os.Signal, 1)}
		q.ch <- syscall.SIGTERM

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		shutdown.New(slog.Default(), q).HandleSignals(ctx, cancel)

		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("context done returns without cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		called := false

		shutdown.New(slog.Default(), fakeQuiter{ch: make(chan os.Signal)}).HandleSignals(ctx, func() { called = true })

		require.False(t, called)
	})
}
