package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/cronparser"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/whitelist"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidBool     = errors.New("invalid boolean")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrInvalidPort     = errors.New("invalid port")
	ErrTLSKeyPair      = errors.New("tls cert and key must be set together")
)

type Config struct {
	LogLevel    string
	LogFormat   string
	HTTPPort    string
	HTTPSPort   string
	MetricsPort string
	URLPrefix   string

	CIDRWhitelist []string
	PathWhitelist []string

	KubeConfig           string
	KubeHost             string
	KubePort             string
	TokenFile            string
	GlobalToken          string
	CACertFile           string
	TokenRefreshSchedule string

	DiscoveryTimeout    time.Duration
	ScrapeTimeout       time.Duration
	UpstreamTLSInsecure bool

	TLSCertFile        string
	TLSKeyFile         string
	TLSCAFile          string
	TLSKeyPasswordFile string

	PingerInterval  time.Duration
	TerminationFile string
}

// TLSEnabled reports whether the gateway serves https.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != ""
}

// ServePort is the HTTPS port when TLS is enabled, the HTTP port otherwise.
func (c *Config) ServePort() string {
	if c.TLSEnabled() {
		return c.HTTPSPort
	}

	return c.HTTPPort
}

func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:    getEnv(envKeyLogLevel, "", "info"),
		LogFormat:   getEnv(envKeyLogFormat, "", "json"),
		HTTPPort:    getEnv(envKeyHTTPPort, envKeyHTTPPortFallback, defaultHTTPPort),
		HTTPSPort:   getEnv(envKeyHTTPSPort, envKeyHTTPSPortFallback, defaultHTTPSPort),
		MetricsPort: getEnv(envKeyMetricsPort, envKeyMetricsPortFallback, defaultMetricsPort),
		URLPrefix:   normalizePrefix(getEnv(envKeyURLPrefix, envKeyURLPrefixFallback, "")),

		CIDRWhitelist: whitelist.SplitList(getEnv(envKeyCIDRWhitelist, envKeyCIDRWhitelistFallback, "")),
		PathWhitelist: whitelist.SplitList(getEnv(envKeyPathWhitelist, envKeyPathWhitelistFallback, "")),

		KubeConfig:           getEnv(envKeyKubeConfig, envKeyKubeConfigFallback, ""),
		KubeHost:             getEnv(envKeyKubeHost, envKeyKubeHostFallback, ""),
		KubePort:             getEnv(envKeyKubePort, envKeyKubePortFallback, ""),
		TokenFile:            getEnv(envKeyTokenFile, envKeyTokenFileFallback, defaultTokenFile),
		GlobalToken:          strings.TrimSpace(getEnv(envKeyGlobalToken, envKeyGlobalTokenFallback, "")),
		CACertFile:           getEnv(envKeyCACertFile, envKeyCACertFileFallback, defaultCACertFile),
		TokenRefreshSchedule: getEnv(envKeyTokenRefreshSchedule, "", defaultTokenRefreshSchedule),

		TLSCertFile:        getEnv(envKeyTLSCertFile, envKeyTLSCertFileFallback, ""),
		TLSKeyFile:         getEnv(envKeyTLSKeyFile, envKeyTLSKeyFileFallback, ""),
		TLSCAFile:          getEnv(envKeyTLSCAFile, envKeyTLSCAFileFallback, ""),
		TLSKeyPasswordFile: getEnv(envKeyTLSKeyPasswordFile, envKeyTLSKeyPasswordFileFallback, ""),

		TerminationFile: getEnv(envKeyTerminationFile, "", ""),
	}

	var err error

	for _, p := range []struct{ key, value string }{
		{envKeyHTTPPort, cfg.HTTPPort},
		{envKeyHTTPSPort, cfg.HTTPSPort},
		{envKeyMetricsPort, cfg.MetricsPort},
	} {
		if err = validatePort(p.key, p.value); err != nil {
			return nil, err
		}
	}

	cfg.DiscoveryTimeout, err = parseDuration(envKeyDiscoveryTimeout, defaultDiscoveryTimeout, envMinDiscoveryTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ScrapeTimeout, err = parseDuration(envKeyScrapeTimeout, defaultScrapeTimeout, envMinScrapeTimeout)
	if err != nil {
		return nil, err
	}

	cfg.PingerInterval, err = parseDuration(envKeyPingerInterval, defaultPingerInterval, envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	cfg.UpstreamTLSInsecure, err = parseBool(envKeyUpstreamTLSInsecure, true)
	if err != nil {
		return nil, err
	}

	if _, err = cronparser.Parse(cfg.TokenRefreshSchedule, ""); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidSchedule, envKeyTokenRefreshSchedule, err)
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, ErrTLSKeyPair
	}

	return cfg, nil
}

// getEnv returns key, then fallbackKey, then def.
func getEnv(key, fallbackKey, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	if fallbackKey != "" {
		if v := os.Getenv(fallbackKey); v != "" {
			return v
		}
	}

	return def
}

func parseDuration(key string, def, minimum time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %s=%q: %w", ErrInvalidDuration, key, raw, err)
	}

	if d < minimum {
		return 0, fmt.Errorf("%w %s=%q: must be at least %s", ErrInvalidDuration, key, raw, minimum)
	}

	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w %s=%q: %w", ErrInvalidBool, key, raw, err)
	}

	return b, nil
}

func validatePort(key, value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w %s=%q", ErrInvalidPort, key, value)
	}

	return nil
}

// normalizePrefix turns "prefix/", "/prefix" and "prefix" into "/prefix".
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}

	return "/" + prefix
}
