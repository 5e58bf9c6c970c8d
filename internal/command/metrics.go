package command

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bornholm/paranoid/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// PrintMetrics writes the counters of the application namespace
// registered in the default prometheus registry.
func PrintMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return errors.WithStack(err)
	}

	lines := make([]string, 0)

	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), metrics.Namespace+"_") {
			continue
		}

		for _, m := range family.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %v", family.GetName(), formatLabels(m.GetLabel()), metricValue(m)))
		}
	}

	sort.Strings(lines)

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}

	return "{" + strings.Join(pairs, ",") + "}"
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	default:
		return 0
	}
}
