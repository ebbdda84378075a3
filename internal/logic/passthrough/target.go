package passthrough

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/upstream"
)

// Query parameters consumed by the gateway. Everything else is forwarded.
const (
	QueryPod          = "pod"
	QueryTargetPort   = "target_port"
	QueryTargetScheme = "target_scheme"
)

// Target is the single pod endpoint a passthrough request is forwarded to.
type Target struct {
	PodIP  string
	Port   string
	Scheme string
	Path   string
	Query  url.Values
}

// ParseTarget reads the target out of an inbound passthrough URL.
func ParseTarget(in *url.URL) (Target, error) {
	query := in.Query()

	t := Target{
		PodIP:  query.Get(QueryPod),
		Port:   query.Get(QueryTargetPort),
		Scheme: query.Get(QueryTargetScheme),
		Path:   upstream.DeriveUpstreamURI(in.Path, upstream.PassthroughPrefix),
	}

	if t.Scheme == "" {
		t.Scheme = "http"
	}

	if t.Scheme != "http" && t.Scheme != "https" {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidScheme, t.Scheme)
	}

	if t.Port != "" {
		port, err := strconv.Atoi(t.Port)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidPort, t.Port)
		}
	}

	query.Del(QueryPod)
	query.Del(QueryTargetPort)
	query.Del(QueryTargetScheme)

	t.Query = query

	return t, nil
}

// URL builds the pod URL.
func (t Target) URL() *url.URL {
	host := t.PodIP
	if t.Port != "" {
		host = net.JoinHostPort(t.PodIP, t.Port)
	} else if ip := net.ParseIP(t.PodIP); ip != nil && ip.To4() == nil {
		host = "[" + t.PodIP + "]"
	}

	return &url.URL{
		Scheme:   t.Scheme,
		Host:     host,
		Path:     t.Path,
		RawQuery: t.Query.Encode(),
	}
}
