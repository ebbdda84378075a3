package appstate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
)

// State is a lifecycle phase of the gateway process.
type State string

const (
	StateInit        State = "init"
	StateStarting    State = "starting"
	StateRunning     State = "running"
	StateTerminating State = "terminating"
	StateTerminated  State = "terminated"
)

// transitions lists the states reachable from each state. Terminating may be
// re-entered so that a repeated shutdown request is harmless.
var transitions = map[State][]State{
	StateInit:        {StateStarting, StateTerminating},
	StateStarting:    {StateRunning, StateTerminating},
	StateRunning:     {StateTerminating},
	StateTerminating: {StateTerminating, StateTerminated},
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// AppState tracks the gateway lifecycle and owns the ordered list of
// components to stop on shutdown. It is safe for concurrent use.
type AppState struct {
	logger          *slog.Logger
	quit            <-chan os.Signal
	terminationFile string
	pinger          pingerServer

	mu        sync.RWMutex
	state     State
	startedAt time.Time
	enteredAt map[State]time.Time

	shutdownMu  sync.Mutex
	shutdowners []shutdown.Shutdowner
}

func New(
	logger *slog.Logger,
	appStart time.Time,
	terminationFile string,
	quit <-chan os.Signal,
	pinger pingerServer,
) *AppState {
	return &AppState{
		logger:          logger,
		quit:            quit,
		terminationFile: terminationFile,
		pinger:          pinger,
		state:           StateInit,
		startedAt:       appStart,
		enteredAt:       map[State]time.Time{StateInit: appStart},
	}
}

func (s *AppState) RegisterPinger(p pinger.Pinger) error {
	return s.pinger.Register(p)
}

// RegisterShutdowner appends a component. Components shut down in reverse order.
func (s *AppState) RegisterShutdowner(c shutdown.Shutdowner) error {
	if c == nil {
		return ErrNilShutdowner
	}

	s.shutdownMu.Lock()
	s.shutdowners = append(s.shutdowners, c)
	s.shutdownMu.Unlock()

	return nil
}

// ComponentResults returns the latest ping result of every registered component.
func (s *AppState) ComponentResults() map[string]pinger.Result {
	return s.pinger.Results()
}

func (s *AppState) SetStarting(_ context.Context) error {
	return s.moveTo(StateStarting)
}

// SetRunning marks the gateway ready for traffic. When the termination file
// already exists the pod is being deleted, so the state moves to terminating
// instead and ErrTerminationRequested is returned.
func (s *AppState) SetRunning(ctx context.Context) error {
	if shutdown.CheckTerminationFile(ctx, s.logger, s.terminationFile) {
		if err := s.moveTo(StateTerminating); err != nil {
			return err
		}

		return fmt.Errorf("%w: %s", ErrTerminationRequested, s.terminationFile)
	}

	return s.moveTo(StateRunning)
}

func (s *AppState) SetTerminating(_ context.Context) error {
	return s.moveTo(StateTerminating)
}

func (s *AppState) moveTo(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return fmt.Errorf("%s to %s: %w", s.state, next, ErrAlreadyTerminated)
	}

	if !CanTransition(s.state, next) {
		return fmt.Errorf("%s to %s: %w", s.state, next, ErrInvalidStateTransition)
	}

	s.state = next
	if _, seen := s.enteredAt[next]; !seen {
		s.enteredAt[next] = time.Now()
	}

	return nil
}

func (s *AppState) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *AppState) GetStartTime() time.Time {
	return s.startedAt
}

func (s *AppState) GetUptime() time.Duration {
	return time.Since(s.startedAt)
}

// EnteredAt returns when the state was first entered.
func (s *AppState) EnteredAt(state State) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.enteredAt[state]

	return at, ok
}

// IsHealthy reports whether the process is past startup, not yet terminated
// and no health-critical component keeps failing.
func (s *AppState) IsHealthy() bool {
	switch s.GetState() {
	case StateStarting, StateRunning, StateTerminating:
		return s.pinger.AllHealthy()
	default:
		return false
	}
}

// IsReady reports whether the gateway should receive traffic: running and
// every ready-critical component answered its last ping.
func (s *AppState) IsReady() bool {
	return s.GetState() == StateRunning && s.pinger.AllReady()
}

func (s *AppState) Quit() <-chan os.Signal {
	return s.quit
}

// Shutdown stops every registered component and moves to the terminated state.
// Calling it again after termination is a no-op.
func (s *AppState) Shutdown(ctx context.Context) error {
	if s.GetState() == StateTerminated {
		return nil
	}

	if err := s.SetTerminating(ctx); err != nil {
		return fmt.Errorf("set terminating application state: %w", err)
	}

	s.shutdownMu.Lock()
	components := slices.Clone(s.shutdowners)
	s.shutdownMu.Unlock()

	shutdownErr := shutdown.GracefulShutdown(ctx, s.logger, components)

	if err := s.moveTo(StateTerminated); err != nil {
		s.logger.DebugContext(ctx, "state already final", "reason", err)
	}

	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}

	return nil
}
