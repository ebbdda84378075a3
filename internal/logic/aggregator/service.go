package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/metrics"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/labels"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

// DefaultScrapeTimeout bounds a single pod scrape.
const DefaultScrapeTimeout = 15 * time.Second

type Service struct {
	logger  *slog.Logger
	scraper Scraper
	timeout time.Duration
}

// New creates a scatter-gather service. A non-positive timeout selects DefaultScrapeTimeout.
func New(
	logger *slog.Logger,
	scraper Scraper,
	timeout time.Duration,
) *Service {
	if timeout <= 0 {
		timeout = DefaultScrapeTimeout
	}

	return &Service{
		logger:  logger,
		scraper: scraper,
		timeout: timeout,
	}
}

// Aggregate scrapes every pod of dir concurrently and writes each successful,
// pod-labelled payload to w in the order the scrapes complete. It returns once
// every scrape has completed. ErrNoSuccessfulScrape is returned when no pod
// succeeded, in which case nothing has been written to w.
func (s *Service) Aggregate(
	ctx context.Context,
	dir poddirectory.Directory,
	target Target,
	w io.Writer,
) (Tally, error) {
	logger := s.logger.With("path", target.Path, "port", target.Port, "scheme", target.Scheme())

	tally := Tally{Total: len(dir)}

	if tally.Total == 0 {
		logger.DebugContext(ctx, "empty pod directory")
		metrics.RecordAggregation(false)

		return tally, ErrNoSuccessfulScrape
	}

	// Buffered so that no scrape goroutine ever blocks on send.
	outcomes := make(chan outcome, tally.Total)

	for _, pod := range dir {
		go s.scrape(ctx, ScrapeRequest{Pod: pod, Target: target}, outcomes)
	}

	for tally.Completed < tally.Total {
		o := <-outcomes

		s.complete(ctx, logger, &tally, o, w)
	}

	logger.DebugContext(ctx, "aggregation finished",
		"total", tally.Total,
		"succeeded", tally.Succeeded,
		"failed", tally.Failed,
	)

	if tally.Succeeded == 0 {
		metrics.RecordAggregation(false)

		return tally, fmt.Errorf("%w: %d of %d pods failed", ErrNoSuccessfulScrape, tally.Failed, tally.Total)
	}

	metrics.RecordAggregation(true)

	return tally, nil
}

// scrape performs one scrape and sends exactly one outcome.
func (s *Service) scrape(ctx context.Context, req ScrapeRequest, out chan<- outcome) {
	scrapeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.scraper.Scrape(scrapeCtx, req)

	o := outcome{
		kind:     outcomeSuccess,
		req:      req,
		result:   result,
		duration: time.Since(start),
	}

	if err != nil {
		o.kind = outcomeError
		o.err = err

		if ctx.Err() == nil && errors.Is(scrapeCtx.Err(), context.DeadlineExceeded) {
			o.kind = outcomeTimeout
			o.err = fmt.Errorf("%w after %s: %w", ErrScrapeTimeout, s.timeout, err)
		}
	}

	out <- o
}

// complete folds one outcome into the tally. It runs on the collecting
// goroutine only, so tally and w need no locking.
func (s *Service) complete(
	ctx context.Context,
	logger *slog.Logger,
	tally *Tally,
	o outcome,
	w io.Writer,
) {
	tally.Completed++

	metrics.RecordScrape(string(o.kind), o.duration)

	logger = logger.With("pod", o.req.Pod.Name, "podIP", o.req.Pod.IP, "duration", o.duration)

	if o.kind != outcomeSuccess {
		tally.Failed++

		logger.WarnContext(ctx, "pod scrape failed", "outcome", string(o.kind), "reason", o.err)

		return
	}

	tally.Succeeded++

	payload := labels.Rewrite(o.result.Payload, labels.PodLabel(o.req.Pod.Name, o.req.Pod.IP))

	if _, err := w.Write(payload); err != nil {
		logger.ErrorContext(ctx, "failed to write pod payload", "reason", err)

		return
	}

	logger.DebugContext(ctx, "pod scrape succeeded",
		"respondingHost", o.result.RespondingHost,
		"bytes", len(payload),
	)
}
