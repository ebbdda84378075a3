package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skillcoder/kube-metrics-gateway/internal/adapters/outbound/k8s"
	"github.com/skillcoder/kube-metrics-gateway/internal/adapters/outbound/podhttp"
	"github.com/skillcoder/kube-metrics-gateway/internal/config"
	"github.com/skillcoder/kube-metrics-gateway/internal/httpserver"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/appstate"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/cronparser"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/shutdown"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/token"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/aggregator"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/passthrough"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/whitelist"
)

type App struct {
	logger     *slog.Logger
	appState   appstater
	signals    signalHandler
	pingers    component
	components []pingedComponent
}

// New wires the gateway. pingers is started last so that it only pings
// components that are already up.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingers component,
) (*App, error) {
	whitelistCfg, err := whitelist.NewConfig(cfg.CIDRWhitelist, cfg.PathWhitelist)
	if err != nil {
		return nil, fmt.Errorf("whitelist config: %w", err)
	}

	gate := whitelist.New(logger.With("component", "whitelist"), whitelistCfg)

	components := make([]pingedComponent, 0, 3)

	tokens, refresher, err := newTokenSource(logger, cfg)
	if err != nil {
		return nil, err
	}

	if refresher != nil {
		components = append(components, refresher)
	}

	clientCfg := k8s.ClientConfig{
		KubeConfig: cfg.KubeConfig,
		Host:       cfg.KubeHost,
		Port:       cfg.KubePort,
		CAFile:     cfg.CACertFile,
	}

	if tokens != nil {
		clientCfg.Tokens = tokens
	}

	clientset, err := k8s.NewClientset(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client: %w", err)
	}

	directory := poddirectory.New(
		logger.With("component", "pod-directory"),
		k8s.New(logger.With("component", "k8s"), clientset),
		gate,
		cfg.DiscoveryTimeout,
	)

	transport := podhttp.NewTransport(podhttp.Config{
		InsecureSkipVerify: cfg.UpstreamTLSInsecure,
	})

	scatter := aggregator.New(
		logger.With("component", "aggregator"),
		podhttp.New(logger.With("component", "podhttp"), transport),
		cfg.ScrapeTimeout,
	)

	router := httpserver.NewRouter(logger, appState, httpserver.Routes{
		Prefix:      cfg.URLPrefix,
		FanOut:      httpserver.NewFanOutHandler(logger, gate, directory, scatter),
		Passthrough: passthrough.New(logger, gate, transport, cfg.ScrapeTimeout),
	})

	tlsConfig, err := serverTLS(cfg)
	if err != nil {
		return nil, err
	}

	components = append(components,
		httpserver.New(logger, cfg.ServePort(), router, tlsConfig,
			httpserver.WriteTimeout(cfg.DiscoveryTimeout, cfg.ScrapeTimeout)),
		httpserver.NewMetricsServer(logger, cfg.MetricsPort),
	)

	return &App{
		logger:     logger,
		appState:   appState,
		signals:    shutdown.New(logger, appState),
		pingers:    pingers,
		components: components,
	}, nil
}

// newTokenSource returns the bearer token store for the control plane.
// A static token disables file reloads; a kubeconfig carries its own credentials.
func newTokenSource(logger *slog.Logger, cfg *config.Config) (*token.Store, *token.Refresher, error) {
	if cfg.KubeConfig != "" {
		return nil, nil, nil
	}

	if cfg.GlobalToken != "" {
		return token.NewStore(cfg.GlobalToken), nil, nil
	}

	initial, err := token.Load(cfg.TokenFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load service account token: %w", err)
	}

	schedule, err := cronparser.Parse(cfg.TokenRefreshSchedule, "")
	if err != nil {
		return nil, nil, fmt.Errorf("token refresh schedule: %w", err)
	}

	store := token.NewStore(initial)

	return store, token.NewRefresher(logger, cfg.TokenFile, store, schedule), nil
}

func serverTLS(cfg *config.Config) (*tls.Config, error) {
	if !cfg.TLSEnabled() {
		return nil, nil //nolint:nilnil // plain http
	}

	tlsConfig, err := httpserver.LoadTLSConfig(httpserver.TLSFiles{
		Cert:        cfg.TLSCertFile,
		Key:         cfg.TLSKeyFile,
		CA:          cfg.TLSCAFile,
		KeyPassword: cfg.TLSKeyPasswordFile,
	})
	if err != nil {
		return nil, fmt.Errorf("server tls: %w", err)
	}

	return tlsConfig, nil
}

// Run starts every component, marks the application running once all of them
// are ready, and blocks until a termination signal or ctx cancellation.
func (a *App) Run(originCtx context.Context) error {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	readies := make([]<-chan struct{}, 0, len(a.components)+1)

	for _, c := range a.components {
		if err := a.start(ctx, c); err != nil {
			return errors.Join(err, a.appState.Shutdown(originCtx))
		}

		if err := a.appState.RegisterPinger(c); err != nil {
			return errors.Join(fmt.Errorf("register pinger %s: %w", c.Name(), err), a.appState.Shutdown(originCtx))
		}

		readies = append(readies, c.Ready())
	}

	if err := a.start(ctx, a.pingers); err != nil {
		return errors.Join(err, a.appState.Shutdown(originCtx))
	}

	readies = append(readies, a.pingers.Ready())

	select {
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "terminated before all components became ready")

		return a.appState.Shutdown(originCtx)
	case <-allChannelsClose(ctx, a.logger, readies...):
	}

	if err := a.appState.SetRunning(ctx); err != nil {
		if errors.Is(err, appstate.ErrTerminationRequested) {
			a.logger.InfoContext(ctx, "pod is terminating, skipping running state", "reason", err)

			return a.appState.Shutdown(originCtx)
		}

		return errors.Join(fmt.Errorf("set running application state: %w", err), a.appState.Shutdown(originCtx))
	}

	a.logger.InfoContext(ctx, "gateway is running")

	<-ctx.Done()

	return a.appState.Shutdown(originCtx)
}

func (a *App) start(ctx context.Context, c component) error {
	if err := a.appState.RegisterShutdowner(c); err != nil {
		return fmt.Errorf("register shutdowner %s: %w", c.Name(), err)
	}

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", c.Name(), err)
	}

	a.logger.DebugContext(ctx, "component started", "component", c.Name())

	return nil
}

// allChannelsClose returns a channel closed once every input channel is closed.
// ctx cancellation is only logged; the caller selects on ctx itself.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for i, ch := range chans {
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				logger.DebugContext(ctx, "context done while waiting for components", "pending", len(chans)-i)
			}

			<-ch
		}
	}()

	return out
}
