package whitelist

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"regexp"
)

const maxNamespaceLength = 63

var namespaceRegexp = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Gate authorizes namespaces, destination IPs and destination paths.
// It is stateless apart from the immutable Config and safe for concurrent use.
type Gate struct {
	logger *slog.Logger
	cfg    *Config
}

// New creates a gate over cfg. A nil cfg behaves like an empty one.
func New(logger *slog.Logger, cfg *Config) *Gate {
	if cfg == nil {
		cfg = &Config{}
	}

	return &Gate{
		logger: logger,
		cfg:    cfg,
	}
}

// IsValidNamespaceName reports whether name is a DNS-1123 label usable as a
// path segment of the pods API.
func (g *Gate) IsValidNamespaceName(ctx context.Context, name string) bool {
	if len(name) <= maxNamespaceLength && namespaceRegexp.MatchString(name) {
		return true
	}

	g.logger.WarnContext(ctx, "namespace rejected", "namespace", name, "reason", ErrInvalidNamespace)

	return false
}

// IsWhitelistedIP reports whether ip belongs to at least one configured range.
// ip must be in canonical form: callers dial the text they passed in, and a
// resolver may read non-canonical forms such as "010.0.0.1" differently.
func (g *Gate) IsWhitelistedIP(ctx context.Context, ip string) bool {
	if parsed, ok := parseCanonicalIP(ip); ok {
		for _, n := range g.cfg.cidrs {
			if n.Contains(parsed) {
				return true
			}
		}
	}

	g.logger.WarnContext(ctx, "ip rejected",
		"ip", ip,
		"cidrs", g.cfg.CIDRs(),
		"reason", ErrIPNotWhitelisted,
	)

	return false
}

// IsWhitelistedPath reports whether path matches at least one configured pattern.
func (g *Gate) IsWhitelistedPath(ctx context.Context, path string) bool {
	for _, re := range g.cfg.patterns {
		if re.MatchString(path) {
			g.logger.DebugContext(ctx, "path matched", "path", path, "pattern", re.String())

			return true
		}
	}

	g.logger.WarnContext(ctx, "path rejected",
		"path", path,
		"patterns", g.cfg.Patterns(),
		"reason", ErrPathNotWhitelisted,
	)

	return false
}

func parseCanonicalIP(s string) (net.IP, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" || addr.String() != s {
		return nil, false
	}

	return net.IP(addr.AsSlice()), true
}
