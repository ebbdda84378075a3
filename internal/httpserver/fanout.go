package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/metrics"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/aggregator"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/upstream"
)

const fanOutRoute = "mproxy"

var errInvalidUpstreamPort = errors.New("invalid upstream port")

// FanOutHandler serves {prefix}/mproxy/{namespace}/{service}/{path...}: it
// scrapes every running pod of the service and merges their payloads.
type FanOutHandler struct {
	logger     *slog.Logger
	gate       requestGate
	directory  podDirectory
	aggregator scatterGatherer
}

func NewFanOutHandler(
	logger *slog.Logger,
	gate requestGate,
	directory podDirectory,
	aggregator scatterGatherer,
) *FanOutHandler {
	return &FanOutHandler{
		logger:     logger.With("route", fanOutRoute),
		gate:       gate,
		directory:  directory,
		aggregator: aggregator,
	}
}

var _ http.Handler = (*FanOutHandler)(nil)

func (h *FanOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	namespace := chi.URLParam(r, "namespace")
	service := chi.URLParam(r, "service")
	upstreamPath := upstream.DeriveUpstreamURI(r.URL.EscapedPath(), upstream.FanOutPrefix)

	logger := h.logger.With(
		"traceID", middleware.GetReqID(ctx),
		"namespace", namespace,
		"service", service,
		"path", upstreamPath,
	)

	if !h.gate.IsValidNamespaceName(ctx, namespace) {
		metrics.RecordRejectedRequest(fanOutRoute, "namespace")
		writeText(w, http.StatusInternalServerError, failurePayload)

		return
	}

	if !h.gate.IsWhitelistedPath(ctx, upstreamPath) {
		metrics.RecordRejectedRequest(fanOutRoute, "path")
		writeText(w, http.StatusInternalServerError, failurePayload)

		return
	}

	target, err := fanOutTarget(r, upstreamPath)
	if err != nil {
		logger.WarnContext(ctx, "request rejected", "reason", err)
		metrics.RecordRejectedRequest(fanOutRoute, "port")
		writeText(w, http.StatusInternalServerError, failurePayload)

		return
	}

	dir, err := h.directory.FetchPods(ctx, namespace, service)
	if err != nil {
		logger.ErrorContext(ctx, "pod discovery failed", "reason", err)
		metrics.RecordDiscoveryError(discoveryReason(err))
		writeText(w, http.StatusInternalServerError, discoveryPayload)

		return
	}

	sw := newStreamWriter(w)

	tally, err := h.aggregator.Aggregate(ctx, dir, target, sw)
	if err != nil {
		logger.ErrorContext(ctx, "no pod metrics collected",
			"pods", tally.Total,
			"failed", tally.Failed,
			"reason", err,
		)

		if !sw.started {
			writeText(w, http.StatusInternalServerError, failurePayload)
		}

		return
	}

	logger.DebugContext(ctx, "metrics collected",
		"pods", tally.Total,
		"succeeded", tally.Succeeded,
		"failed", tally.Failed,
		"bytes", sw.written,
	)
}

// fanOutTarget reads upstreamPort and ssl. An empty port selects the scheme default.
func fanOutTarget(r *http.Request, upstreamPath string) (aggregator.Target, error) {
	query := r.URL.Query()

	target := aggregator.Target{
		Path:          upstreamPath,
		Port:          query.Get(queryUpstreamPort),
		TLS:           query.Get(querySSL) == "true",
		Authorization: r.Header.Get(headerAuthorization),
	}

	if target.Port != "" {
		port, err := strconv.Atoi(target.Port)
		if err != nil || port < 1 || port > 65535 {
			return aggregator.Target{}, fmt.Errorf("%w: %q", errInvalidUpstreamPort, target.Port)
		}
	}

	return target, nil
}

func discoveryReason(err error) string {
	switch {
	case errors.Is(err, poddirectory.ErrNoPodsRunning):
		return "no_pods"
	case errors.Is(err, poddirectory.ErrControlPlaneStatus):
		return "status"
	case errors.Is(err, poddirectory.ErrControlPlaneTimeout):
		return "timeout"
	default:
		return "list"
	}
}
