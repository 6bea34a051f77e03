package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	messageParses         *prometheus.CounterVec
	statementParses       *prometheus.CounterVec
	statementDuration     *prometheus.HistogramVec
	statementTransactions *prometheus.CounterVec
}

// NewPrometheusRecorder creates the collectors under the given namespace.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	return &PrometheusRecorder{
		messageParses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "message_parse_total",
				Help:      "Total number of message parses per bank and outcome",
			},
			[]string{"bank", "outcome"},
		),
		statementParses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statement_parse_total",
				Help:      "Total number of statement parses per bank and outcome",
			},
			[]string{"bank", "outcome"},
		),
		statementDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_parse_duration_seconds",
				Help:      "Statement parse latency per file type",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"file_type"},
		),
		statementTransactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statement_transactions_total",
				Help:      "Total number of transactions extracted from statements per bank",
			},
			[]string{"bank"},
		),
	}
}

// Register registers all collectors with the given registry.
func (p *PrometheusRecorder) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		p.messageParses,
		p.statementParses,
		p.statementDuration,
		p.statementTransactions,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordMessage counts a message parse.
func (p *PrometheusRecorder) RecordMessage(bank, outcome string) {
	if bank == "" {
		bank = "none"
	}
	p.messageParses.WithLabelValues(bank, outcome).Inc()
}

// RecordStatement counts a statement parse and its transactions.
func (p *PrometheusRecorder) RecordStatement(bank, fileType, outcome string, duration time.Duration, transactions int) {
	if bank == "" {
		bank = "none"
	}
	p.statementParses.WithLabelValues(bank, outcome).Inc()
	p.statementDuration.WithLabelValues(fileType).Observe(duration.Seconds())
	if transactions > 0 {
		p.statementTransactions.WithLabelValues(bank).Add(float64(transactions))
	}
}
