package aggregator

import "errors"

var (
	ErrNoSuccessfulScrape = errors.New("no pod returned metrics")
	ErrScrapeTimeout      = errors.New("scrape timed out")
)
