package app

import (
	"context"
	"os"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/appstate"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
)

// appstater defines the interface for application state management
type appstater interface {
	RegisterPinger(pinger pinger.Pinger) error
	RegisterShutdowner(shutdowner shutdown.Shutdowner) error
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	Shutdown(ctx context.Context) error

	IsHealthy() bool
	IsReady() bool
	GetState() appstate.State
	GetUptime() time.Duration
	GetStartTime() time.Time
	ComponentResults() map[string]pinger.Result
}

type signalHandler interface {
	HandleSignals(ctx context.Context, cancel func())
}

// component is a long-running part of the gateway started by Run.
type component interface {
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
}

type pingedComponent interface {
	component
	pinger.Pinger
}
