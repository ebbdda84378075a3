package config

import "time"

// Env key constants. All gateway configuration env vars use the KMG_ prefix;
// where the gateway historically read another variable, that one is the fallback.
// Duration values support explicit units (e.g. 5s, 1m).

// Log level: debug, info, warn, error.
const envKeyLogLevel = "KMG_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "KMG_LOG_FORMAT"

// Port of the gateway HTTP server (fan-out, passthrough, health checks).
const (
	envKeyHTTPPort         = "KMG_HTTP_PORT"
	envKeyHTTPPortFallback = "HTTP_PORT"
	defaultHTTPPort        = "5050"
)

// Port of the gateway HTTPS server, used instead of the HTTP port when TLS is configured.
const (
	envKeyHTTPSPort         = "KMG_HTTPS_PORT"
	envKeyHTTPSPortFallback = "HTTPS_PORT"
	defaultHTTPSPort        = "5053"
)

// Port for self metrics (GET /metrics).
const (
	envKeyMetricsPort         = "KMG_METRICS_PORT"
	envKeyMetricsPortFallback = "METRICS_HTTP_PORT"
	defaultMetricsPort        = "5055"
)

// External URL prefix the gateway is mounted under (e.g. /prometheus-proxy).
const (
	envKeyURLPrefix         = "KMG_APP_URL_PREFIX"
	envKeyURLPrefixFallback = "APP_URL_PREFIX"
)

// Comma separated CIDR ranges pods must belong to.
const (
	envKeyCIDRWhitelist         = "KMG_CIDR_WHITELIST"
	envKeyCIDRWhitelistFallback = "CIDR_WHITELIST"
)

// Comma separated regular expressions upstream paths must match.
const (
	envKeyPathWhitelist         = "KMG_PATH_WHITELIST"
	envKeyPathWhitelistFallback = "METRICS_PATH_WHITELIST"
)

// Path to kubeconfig file. Takes precedence over host, port and CA file.
const (
	envKeyKubeConfig         = "KMG_KUBECONFIG"
	envKeyKubeConfigFallback = "KUBECONFIG"
)

// Control plane address.
const (
	envKeyKubeHost         = "KMG_KUBE_HOST"
	envKeyKubeHostFallback = "KUBERNETES_SERVICE_HOST"
	envKeyKubePort         = "KMG_KUBE_PORT"
	envKeyKubePortFallback = "KUBERNETES_SERVICE_PORT"
)

// Bearer token sources. A global token disables file reloads.
const (
	envKeyTokenFile           = "KMG_TOKEN_FILE"
	envKeyTokenFileFallback   = "TOKEN_FILE"
	defaultTokenFile          = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	envKeyGlobalToken         = "KMG_GLOBAL_TOKEN"
	envKeyGlobalTokenFallback = "K8S_GLOBAL_TOKEN"
)

// CA bundle used to verify the control plane.
const (
	envKeyCACertFile         = "KMG_CA_CERT_FILE"
	envKeyCACertFileFallback = "K8S_CACERT"
	defaultCACertFile        = "/var/run/secrets/kubernetes.io/serviceaccount/ca.crt"
)

// Cron expression for token file reloads.
const (
	envKeyTokenRefreshSchedule  = "KMG_TOKEN_REFRESH_SCHEDULE"
	defaultTokenRefreshSchedule = "*/5 * * * *"
)

// Pod discovery timeout.
const (
	envKeyDiscoveryTimeout  = "KMG_DISCOVERY_TIMEOUT"
	defaultDiscoveryTimeout = 5 * time.Second
	envMinDiscoveryTimeout  = 100 * time.Millisecond
)

// Per pod scrape timeout.
const (
	envKeyScrapeTimeout  = "KMG_SCRAPE_TIMEOUT"
	defaultScrapeTimeout = 15 * time.Second
	envMinScrapeTimeout  = 100 * time.Millisecond
)

// Skip certificate verification when scraping pods over https.
const envKeyUpstreamTLSInsecure = "KMG_UPSTREAM_TLS_INSECURE"

// Serving certificate of the gateway. Both or neither of cert and key must be set;
// certificates from the CA file are appended to the served chain.
const (
	envKeyTLSCertFile         = "KMG_TLS_CERT_FILE"
	envKeyTLSCertFileFallback = "CERT_FILE"
	envKeyTLSKeyFile          = "KMG_TLS_KEY_FILE"
	envKeyTLSKeyFileFallback  = "CERT_KEY_FILE"
	envKeyTLSCAFile           = "KMG_TLS_CA_FILE"
	envKeyTLSCAFileFallback   = "CERT_CA_FILE"
)

// File holding the passphrase of an encrypted PEM serving key.
const (
	envKeyTLSKeyPasswordFile         = "KMG_TLS_KEY_PASSWORD_FILE"
	envKeyTLSKeyPasswordFileFallback = "CERT_KEY_PASSWD_FILE"
)

// Pinger check interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyPingerInterval  = "KMG_PINGER_INTERVAL"
	defaultPingerInterval = 10 * time.Second
	envMinPingerInterval  = time.Second
)

// File whose presence marks the pod as terminating. Empty disables the check.
const envKeyTerminationFile = "KMG_TERMINATION_FILE"
