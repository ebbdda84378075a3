package token

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/cronparser"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/metrics"
)

// Refresher reloads the token file into a Store on a cron schedule.
type Refresher struct {
	logger     *slog.Logger
	path       string
	store      *Store
	schedule   *cronparser.Schedule
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
	started    atomic.Bool
	mu         sync.RWMutex
	lastErr    error
}

func NewRefresher(
	logger *slog.Logger,
	path string,
	store *Store,
	schedule *cronparser.Schedule,
) *Refresher {
	return &Refresher{
		logger:   logger.With("component", "token-refresher", "path", path),
		path:     path,
		store:    store,
		schedule: schedule,
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *Refresher) Name() string {
	return "token-refresher"
}

func (r *Refresher) Start(ctx context.Context) error {
	if r.inShutdown.Load() {
		r.logger.InfoContext(ctx, "token refresher is shutting down, skipping start")

		return nil
	}

	if !r.started.CompareAndSwap(false, true) {
		return nil
	}

	go r.RunCommand(ctx)

	return nil
}

func (r *Refresher) Ready() <-chan struct{} {
	return r.ready
}

// Ping reports the outcome of the most recent reload.
func (r *Refresher) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ready:
		r.mu.RLock()
		defer r.mu.RUnlock()

		if r.lastErr != nil {
			return fmt.Errorf("last token reload failed: %w", r.lastErr)
		}

		return nil
	default:
		return fmt.Errorf("token refresher is not ready")
	}
}

func (r *Refresher) Shutdown(ctx context.Context) error {
	if !r.inShutdown.CompareAndSwap(false, true) {
		return nil
	}

	if !r.started.Load() {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before token refresh loop exited: %w", ctx.Err())
	case <-r.doneCh:
		r.logger.InfoContext(ctx, "token refresh loop exited")
	}

	return nil
}

// ReloadCommand reads the token file once. On failure the previous token stays in use.
func (r *Refresher) ReloadCommand(ctx context.Context) error {
	tok, err := Load(r.path)

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	metrics.RecordTokenRefresh(err == nil)

	if err != nil {
		return err
	}

	if tok != r.store.Get() {
		r.logger.InfoContext(ctx, "token rotated")
	}

	r.store.Set(tok)

	return nil
}

// RunCommand reloads the token at every schedule occurrence until ctx is done.
func (r *Refresher) RunCommand(ctx context.Context) {
	defer close(r.doneCh)

	close(r.ready)

	r.logger.InfoContext(ctx, "token refresh loop started", "schedule", r.schedule.String())

	for {
		wait := r.schedule.Until(time.Now())

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.InfoContext(ctx, "terminating token refresh loop")

			return
		case <-timer.C:
		}

		if err := r.ReloadCommand(ctx); err != nil {
			r.logger.ErrorContext(ctx, "token reload failed, keeping previous token", "reason", err)
		}
	}
}
