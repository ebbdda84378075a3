package aggregator

import (
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

// Target describes what to request from every pod of a directory.
type Target struct {
	Path          string
	Port          string
	TLS           bool
	Authorization string
}

// Scheme returns the URL scheme selected by the TLS flag.
func (t Target) Scheme() string {
	if t.TLS {
		return "https"
	}

	return "http"
}

// ScrapeRequest carries the pod a scrape was issued for, so that its
// completion is attributed without consulting the transport.
type ScrapeRequest struct {
	Pod    poddirectory.Pod
	Target Target
}

// ScrapeResult is the body of a 200 response and the peer that sent it.
type ScrapeResult struct {
	Payload        []byte
	RespondingHost string
}

// Tally counts the completions of one aggregation.
type Tally struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
}

type outcomeKind string

const (
	outcomeSuccess outcomeKind = "success"
	outcomeError   outcomeKind = "error"
	outcomeTimeout outcomeKind = "timeout"
)

// outcome is the single completion message of one scrape.
type outcome struct {
	kind     outcomeKind
	req      ScrapeRequest
	result   ScrapeResult
	err      error
	duration time.Duration
}
