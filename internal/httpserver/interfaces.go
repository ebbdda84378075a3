package httpserver

import (
	"context"
	"io"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/appstate"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/aggregator"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

// appstater is what the health endpoints need from the application state.
type appstater interface {
	IsHealthy() bool
	IsReady() bool
	GetState() appstate.State
	GetUptime() time.Duration
	GetStartTime() time.Time
	ComponentResults() map[string]pinger.Result
}

type requestGate interface {
	IsValidNamespaceName(ctx context.Context, name string) bool
	IsWhitelistedPath(ctx context.Context, path string) bool
}

type podDirectory interface {
	FetchPods(ctx context.Context, namespace, servicePrefix string) (poddirectory.Directory, error)
}

type scatterGatherer interface {
	Aggregate(
		ctx context.Context,
		dir poddirectory.Directory,
		target aggregator.Target,
		w io.Writer,
	) (aggregator.Tally, error)
}
