package httpserver

import "time"

const (
	defaultPort = "5050"

	readTimeout       = 5 * time.Second
	readHeaderTimeout = 3 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 14 // 16kb, bearer tokens included

	// defaultWriteTimeout is the floor of WriteTimeout.
	defaultWriteTimeout = 30 * time.Second
	writeTimeoutMargin  = 5 * time.Second
	metricsWriteTimeout = 5 * time.Second
)

// Response payloads kept byte for byte for existing scrapers and dashboards.
const (
	failurePayload   = "#Unable to collect data."
	discoveryPayload = "Error processing request. could not get pods data"
	landingMessage   = "kubernetes prometheus proxy"
)

const (
	queryUpstreamPort = "upstreamPort"
	querySSL          = "ssl"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeText     = "text/plain"
)
