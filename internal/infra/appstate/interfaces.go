package appstate

import (
	"context"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
)

// pingerServer is an internal interface for pinger management
type pingerServer interface {
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
	Register(pinger pinger.Pinger) error
	Results() map[string]pinger.Result
	AllReady() bool
	AllHealthy() bool
}

type healthChecker interface {
	IsHealthy() bool
}

type readyChecker interface {
	IsReady() bool
}

type statusGetter interface {
	GetState() State
	GetUptime() time.Duration
	GetStartTime() time.Time
	ComponentResults() map[string]pinger.Result
}
