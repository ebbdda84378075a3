package metrics_test

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// filteredGatherer keeps only the series carrying the given route label, so
// parallel tests recording other routes do not leak into comparisons.
type filteredGatherer struct {
	route string
}

func (g filteredGatherer) Gather() ([]*dto.MetricFamily, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	for _, mf := range families {
		kept := mf.Metric[:0]

		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" && lp.GetValue() == g.route {
					kept = append(kept, m)

					break
				}
			}
		}

		mf.Metric = kept
	}

	return families, nil
}
