// Package upstream derives what the gateway requests from a pod out of what the
// caller requested from the gateway.
package upstream

import (
	"net"
	"strings"
)

// Routing prefixes served by the gateway.
const (
	FanOutPrefix      = "/mproxy"
	PassthroughPrefix = "/kubesd"
)

// fanOutRoutingSegments is the number of segments following FanOutPrefix that
// address the pods (namespace and service prefix) rather than the pod path.
const fanOutRoutingSegments = 2

// DeriveUpstreamURI strips everything up to and including the gateway routing
// segments from requestPath and returns the path to request from each pod.
// Segments in front of routingPrefix (an external URL prefix) are dropped as well.
func DeriveUpstreamURI(requestPath, routingPrefix string) string {
	path, _, _ := strings.Cut(requestPath, "?")

	segments := strings.Split(path, "/")
	marker := strings.Trim(routingPrefix, "/")

	start := -1

	for i, s := range segments {
		if s == marker {
			start = i + 1

			break
		}
	}

	if start < 0 {
		return "/"
	}

	if routingPrefix == FanOutPrefix {
		start += fanOutRoutingSegments
	}

	if start >= len(segments) {
		return "/"
	}

	return "/" + strings.Join(segments[start:], "/")
}

// DeriveRespHost returns the host part of the peer that answered a scrape.
// The peer address wins; the Host header is the fallback when the transport
// did not expose one.
func DeriveRespHost(remoteAddr, hostHeader string) string {
	host := remoteAddr
	if host == "" {
		host = hostHeader
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return host
}
