package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// LogSnapshot writes one debug line per counter and histogram series in g.
// It does nothing unless the logger has debug enabled.
func LogSnapshot(logger *slog.Logger, g prometheus.Gatherer) {
	if logger == nil || g == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := g.Gather()
	if err != nil {
		logger.Debug("gather client metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				attrs = append(attrs, "count", h.GetSampleCount(), "sum", h.GetSampleSum())
			default:
				continue
			}
			logger.Debug("client metric", attrs...)
		}
	}
}
