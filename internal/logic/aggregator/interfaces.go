package aggregator

import "context"

// Scraper is the port interface for one GET against a pod metrics endpoint.
// Any response other than 200 must be returned as an error.
type Scraper interface {
	Scrape(ctx context.Context, req ScrapeRequest) (ScrapeResult, error)
}
