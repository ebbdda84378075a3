// Package passthrough forwards a request to one pod and relays its response unchanged.
package passthrough

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/metrics"
)

const (
	// FailurePayload is the body of every failed passthrough.
	FailurePayload = "#Unable to collect metrics"

	routeName = "kubesd"
)

type targetKey struct{}

type Service struct {
	logger  *slog.Logger
	gate    gate
	proxy   *httputil.ReverseProxy
	timeout time.Duration
}

// New creates a passthrough handler. timeout bounds the whole upstream exchange.
func New(
	logger *slog.Logger,
	gate gate,
	transport http.RoundTripper,
	timeout time.Duration,
) *Service {
	s := &Service{
		logger:  logger.With("route", routeName),
		gate:    gate,
		timeout: timeout,
	}

	s.proxy = &httputil.ReverseProxy{
		Rewrite:      rewrite,
		Transport:    transport,
		ErrorHandler: s.proxyError,
	}

	return s
}

var _ http.Handler = (*Service)(nil)

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := s.Resolve(ctx, r)
	if err != nil {
		s.logger.ErrorContext(ctx, "passthrough rejected", "reason", err)
		writeFailure(w)

		return
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx = context.WithValue(ctx, targetKey{}, target)

	s.logger.DebugContext(ctx, "forwarding request", "pod", target.PodIP, "path", target.Path)

	s.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// Resolve validates the inbound request and returns the pod endpoint to forward to.
func (s *Service) Resolve(ctx context.Context, r *http.Request) (Target, error) {
	target, err := ParseTarget(r.URL)
	if err != nil {
		metrics.RecordRejectedRequest(routeName, "target")

		return Target{}, err
	}

	if !s.gate.IsWhitelistedIP(ctx, target.PodIP) {
		metrics.RecordRejectedRequest(routeName, "ip")

		return Target{}, fmt.Errorf("%w: %q", ErrPodNotWhitelisted, target.PodIP)
	}

	if !s.gate.IsWhitelistedPath(ctx, target.Path) {
		metrics.RecordRejectedRequest(routeName, "path")

		return Target{}, fmt.Errorf("%w: %q", ErrPathNotWhitelisted, target.Path)
	}

	return target, nil
}

func rewrite(pr *httputil.ProxyRequest) {
	target, _ := pr.In.Context().Value(targetKey{}).(Target)

	pr.Out.URL = target.URL()
	pr.Out.Host = ""
}

func (s *Service) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "passthrough failed", "url", r.URL.String(), "reason", err)
	writeFailure(w)
}

func writeFailure(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(FailurePayload))
}
