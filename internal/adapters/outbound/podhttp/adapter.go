// Package podhttp scrapes pod metrics endpoints over plain HTTP or HTTPS.
package podhttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/aggregator"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/upstream"
)

const headerAuthorization = "Authorization"

// DialContextFunc matches net.Dialer.DialContext.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type Config struct {
	// InsecureSkipVerify disables certificate checks for https pods.
	// Pods are addressed by IP, so their certificates rarely match.
	InsecureSkipVerify bool
	// DialContext overrides how pod connections are opened. Nil uses net.Dialer.
	DialContext DialContextFunc
}

type adapter struct {
	logger *slog.Logger
	client *http.Client
}

// NewTransport builds the transport used to reach pods. Requests never go
// through an environment proxy.
func NewTransport(cfg Config) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 30 * time.Second
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // pod certificates are issued for names, pods are dialed by IP
		MinVersion:         tls.VersionTLS12,
	}

	if cfg.DialContext != nil {
		transport.DialContext = cfg.DialContext
	}

	return transport
}

// New creates a pod scraper. Redirects are reported as unexpected statuses.
func New(logger *slog.Logger, transport http.RoundTripper) aggregator.Scraper {
	return &adapter{
		logger: logger,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

var _ aggregator.Scraper = (*adapter)(nil)

// Scrape issues one GET to the pod. The deadline comes from ctx.
func (a *adapter) Scrape(
	ctx context.Context,
	req aggregator.ScrapeRequest,
) (aggregator.ScrapeResult, error) {
	var remoteAddr string

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn != nil {
				remoteAddr = info.Conn.RemoteAddr().String()
			}
		},
	}

	target := podURL(req)

	httpReq, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return aggregator.ScrapeResult{}, fmt.Errorf("build request %s: %w", target, err)
	}

	if req.Target.Authorization != "" {
		httpReq.Header.Set(headerAuthorization, req.Target.Authorization)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return aggregator.ScrapeResult{}, fmt.Errorf("get %s: %w", target, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			a.logger.DebugContext(ctx, "failed to close pod response body", "reason", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return aggregator.ScrapeResult{}, fmt.Errorf("get %s: %w", target, &UnexpectedStatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return aggregator.ScrapeResult{}, fmt.Errorf("read %s: %w", target, err)
	}

	return aggregator.ScrapeResult{
		Payload:        body,
		RespondingHost: upstream.DeriveRespHost(remoteAddr, httpReq.Host),
	}, nil
}

func podURL(req aggregator.ScrapeRequest) string {
	host := req.Pod.IP
	if req.Target.Port != "" {
		host = net.JoinHostPort(host, req.Target.Port)
	} else if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}

	return req.Target.Scheme() + "://" + host + req.Target.Path
}
