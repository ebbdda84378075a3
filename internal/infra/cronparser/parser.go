package cronparser

import (
	"fmt"
	"strings"
	"time"

	cron "github.com/netresearch/go-cron"
)

var _parser = cron.MustNewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule is a parsed five-field cron expression.
type Schedule struct {
	spec     string
	schedule cron.Schedule
}

// Parse parses spec. Without a CRON_TZ=/TZ= prefix the schedule runs in tz,
// or in UTC when tz is empty.
func Parse(spec, tz string) (*Schedule, error) {
	spec = strings.TrimSpace(spec)

	schedule, err := _parser.Parse(withTimezone(spec, tz))
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	return &Schedule{
		spec:     spec,
		schedule: schedule,
	}, nil
}

// Next returns the first occurrence strictly after `after`.
func (s *Schedule) Next(after time.Time) time.Time {
	return s.schedule.Next(after)
}

// Until returns how long to wait from now until the next occurrence.
func (s *Schedule) Until(now time.Time) time.Duration {
	return s.Next(now).Sub(now)
}

func (s *Schedule) String() string {
	return s.spec
}

func withTimezone(spec, tz string) string {
	if strings.HasPrefix(spec, "CRON_TZ=") || strings.HasPrefix(spec, "TZ=") {
		return spec
	}

	if tz == "" {
		tz = "UTC"
	}

	return "CRON_TZ=" + tz + " " + spec
}
