package runner

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics collects per-run counters for the node_exporter textfile collector.
type metrics struct {
	reg        *prometheus.Registry
	workbooks  *prometheus.CounterVec
	registers  prometheus.Counter
	fields     prometheus.Counter
	violations *prometheus.CounterVec
	diagnostic *prometheus.CounterVec
	parseTime  prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		workbooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regsheet_workbooks_total",
			Help: "Workbooks processed, by status (parsed, cached, failed).",
		}, []string{"status"}),
		registers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regsheet_registers_total",
			Help: "Registers produced across all workbooks.",
		}),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regsheet_fields_total",
			Help: "Fields produced across all workbooks.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regsheet_lint_violations_total",
			Help: "Lint violations, by severity.",
		}, []string{"severity"}),
		diagnostic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regsheet_sheet_diagnostics_total",
			Help: "Sheets replaced by defaults, by severity.",
		}, []string{"severity"}),
		parseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regsheet_parse_duration_seconds",
			Help:    "Time to parse one workbook, cache hits excluded.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}
	m.reg.MustRegister(m.workbooks, m.registers, m.fields, m.violations, m.diagnostic, m.parseTime)
	return m
}

func (m *metrics) observe(wr *WorkbookResult) {
	switch {
	case wr.Error != "":
		m.workbooks.WithLabelValues("failed").Inc()
		return
	case wr.CacheHit:
		m.workbooks.WithLabelValues("cached").Inc()
	default:
		m.workbooks.WithLabelValues("parsed").Inc()
		m.parseTime.Observe(wr.ParseDuration.Seconds())
	}
	m.registers.Add(float64(wr.Model.RegisterCount()))
	m.fields.Add(float64(fieldCount(wr.Model)))
	for _, d := range wr.Diagnostics {
		m.diagnostic.WithLabelValues(string(d.Severity)).Inc()
	}
	for _, v := range wr.Violations {
		m.violations.WithLabelValues(v.Severity).Inc()
	}
}

// write stores the metrics at path in the Prometheus text format.
func (m *metrics) write(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
