package whitelist

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	netutils "k8s.io/utils/net"
)

// Config is the operator-approved set of destinations. It is built once and
// never mutated; a reload builds a new Config.
type Config struct {
	cidrs    []*net.IPNet
	patterns []*regexp.Regexp
}

// NewConfig parses CIDR ranges and path regular expressions.
// Empty inputs are valid and produce a gate that rejects everything.
func NewConfig(cidrs, patterns []string) (*Config, error) {
	nets, err := netutils.ParseCIDRs(cidrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCIDR, err)
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidPattern, p, err)
		}

		compiled = append(compiled, re)
	}

	return &Config{
		cidrs:    nets,
		patterns: compiled,
	}, nil
}

// SplitList splits a comma-separated operator value, dropping blank items.
func SplitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		out = append(out, p)
	}

	return out
}

// CIDRs returns the configured ranges in their canonical form.
func (c *Config) CIDRs() []string {
	out := make([]string, 0, len(c.cidrs))
	for _, n := range c.cidrs {
		out = append(out, n.String())
	}

	return out
}

// Patterns returns the configured path patterns.
func (c *Config) Patterns() []string {
	out := make([]string, 0, len(c.patterns))
	for _, re := range c.patterns {
		out = append(out, re.String())
	}

	return out
}
