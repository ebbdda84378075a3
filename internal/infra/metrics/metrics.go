package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kube_metrics_gateway"

var (
	aggregationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Total number of fan-out requests by result.",
		},
		[]string{"result"},
	)

	scrapesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pod_scrapes_total",
			Help:      "Total number of pod scrapes by outcome (success, error, timeout).",
		},
		[]string{"outcome"},
	)

	scrapeDuration = promauto.With(prometheus.DefaultRegisterer).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pod_scrape_duration_seconds",
			Help:      "Duration of pod scrapes.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"outcome"},
	)

	discoveryErrorsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_errors_total",
			Help:      "Total number of failed pod discoveries by reason.",
		},
		[]string{"reason"},
	)

	rejectedRequestsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Total number of requests refused by the whitelist gate.",
		},
		[]string{"route", "reason"},
	)

	tokenRefreshesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of control plane token reloads by result.",
		},
		[]string{"success"},
	)
)

func result(ok bool) string {
	if ok {
		return "success"
	}

	return "failure"
}

// RecordAggregation counts one finished fan-out request.
func RecordAggregation(ok bool) {
	aggregationsTotal.WithLabelValues(result(ok)).Inc()
}

// RecordScrape counts one pod scrape and observes its duration.
func RecordScrape(outcome string, d time.Duration) {
	scrapesTotal.WithLabelValues(outcome).Inc()
	scrapeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func RecordDiscoveryError(reason string) {
	discoveryErrorsTotal.WithLabelValues(reason).Inc()
}

func RecordRejectedRequest(route, reason string) {
	rejectedRequestsTotal.WithLabelValues(route, reason).Inc()
}

func RecordTokenRefresh(ok bool) {
	tokenRefreshesTotal.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

var componentUp = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_up",
		Help:      "Whether the last health ping of a component succeeded.",
	},
	[]string{"component"},
)

func SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}

	componentUp.WithLabelValues(component).Set(v)
}
