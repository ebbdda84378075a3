package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/metrics"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
)

const (
	defaultPingTimeout = 1 * time.Second

	// unhealthyAfter is the number of consecutive failures after which a
	// health-critical component makes the process unhealthy.
	unhealthyAfter = 3
)

// Optional interfaces a Pinger may implement. Both criticalities default to true.
type readyCriticalPinger interface {
	PingerReadyCritical() bool
}

type healthCriticalPinger interface {
	PingerCritical() bool
}

type timeoutPinger interface {
	PingerTimeout() time.Duration
}

// Result is the outcome of the most recent ping of one component.
type Result struct {
	LastRun             time.Time     `json:"lastRun"`
	Latency             time.Duration `json:"latency"`
	Error               string        `json:"error,omitempty"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
}

// OK reports whether the component has been pinged and answered.
func (r Result) OK() bool {
	return !r.LastRun.IsZero() && r.Error == ""
}

type entry struct {
	pinger         Pinger
	readyCritical  bool
	healthCritical bool
	timeout        time.Duration
	result         Result
}

// Service pings registered components at a fixed interval and keeps the last result of each.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	mu         sync.RWMutex
	entries    map[string]*entry
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
	started    atomic.Bool
}

func New(
	logger *slog.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		logger:   logger.With("component", "pinger"),
		interval: interval,
		entries:  make(map[string]*entry),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a component. Names must be unique.
func (s *Service) Register(p Pinger) error {
	if p == nil {
		return ErrNilPinger
	}

	e := &entry{
		pinger:         p,
		readyCritical:  true,
		healthCritical: true,
		timeout:        defaultPingTimeout,
	}

	if rc, ok := p.(readyCriticalPinger); ok {
		e.readyCritical = rc.PingerReadyCritical()
	}

	if hc, ok := p.(healthCriticalPinger); ok {
		e.healthCritical = hc.PingerCritical()
	}

	if tp, ok := p.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		e.timeout = tp.PingerTimeout()
	}

	name := p.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	s.entries[name] = e

	s.logger.Info("pinger registered",
		"name", name,
		"readyCritical", e.readyCritical,
		"healthCritical", e.healthCritical,
		"timeout", e.timeout,
	)

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed once the first round of pings has completed.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		return nil
	}

	if !s.started.Load() {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "pinger loop exited")
	}

	return nil
}

// Results returns a copy of the latest result of every component.
func (s *Service) Results() map[string]Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Result, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.result
	}

	return out
}

// AllReady reports whether every ready-critical component answered its last ping.
func (s *Service) AllReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.readyCritical && !e.result.OK() {
			return false
		}
	}

	return true
}

// AllHealthy reports whether no health-critical component has kept failing.
func (s *Service) AllHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.healthCritical && e.result.ConsecutiveFailures >= unhealthyAfter {
			return false
		}
	}

	return true
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pingAll(ctx)

	close(s.ready)

	for {
		select {
		case <-ticker.C:
			s.pingAll(ctx)
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}
	}
}

// pingAll pings every component in parallel and waits for all of them.
func (s *Service) pingAll(ctx context.Context) {
	s.mu.RLock()

	names := make([]string, 0, len(s.entries))
	pingers := make([]*entry, 0, len(s.entries))

	for name, e := range s.entries {
		names = append(names, name)
		pingers = append(pingers, e)
	}

	s.mu.RUnlock()

	var wg sync.WaitGroup

	for i := range pingers {
		wg.Add(1)

		go func(name string, e *entry) {
			defer wg.Done()

			pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			start := time.Now()
			err := e.pinger.Ping(pingCtx)

			s.record(ctx, name, e, start, time.Since(start), err)
		}(names[i], pingers[i])
	}

	wg.Wait()
}

func (s *Service) record(
	ctx context.Context,
	name string,
	e *entry,
	at time.Time,
	latency time.Duration,
	err error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.result.LastRun = at
	e.result.Latency = latency

	metrics.SetComponentUp(name, err == nil)

	if err == nil {
		e.result.Error = ""
		e.result.ConsecutiveFailures = 0

		return
	}

	e.result.Error = err.Error()
	e.result.ConsecutiveFailures++

	s.logger.DebugContext(ctx, "ping failed",
		"name", name,
		"latency", latency,
		"failures", e.result.ConsecutiveFailures,
		"reason", err,
	)
}
