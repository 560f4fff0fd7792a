package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range (15s - 60s) ---
	20000, 30000, 45000, 60000,
}

const Subsystem = "fuelflow"

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsWebhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Payment provider webhook deliveries, partitioned by event type and outcome.",
	Type:        "counter_vec",
	Args:        []string{"event_type", "outcome"},
}

var MetricsGateDecisions = &Metric{
	ID:          "gateDecisions",
	Name:        "gate_decisions_total",
	Description: "Approval gate decisions, partitioned by route kind and outcome.",
	Type:        "counter_vec",
	Args:        []string{"route", "outcome"},
}

var businessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsWebhookEvents,
	MetricsGateDecisions,
}

var registerOnce sync.Once

// RegisterBusinessMetrics creates and registers the business collectors once per process.
func RegisterBusinessMetrics(logger Logger) {
	registerOnce.Do(func() {
		for _, def := range businessMetrics {
			metric := NewMetric(def, Subsystem)
			if err := prometheus.Register(metric); err != nil {
				if logger != nil {
					logger.Errorf("%s could not be registered in Prometheus, err=%v", def.Name, err)
				}
				// keep an unregistered collector so callers never hit a nil vec
			}
			def.MetricCollector = metric
		}
	})
}

// ObserveBusinessProcess records latency of a named business step.
func ObserveBusinessProcess(typ, subtype string, start time.Time) {
	RegisterBusinessMetrics(nil)
	if h, ok := MetricsBusinessProcess.MetricCollector.(*prometheus.HistogramVec); ok {
		h.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
	}
}

// IncWebhookEvent counts one webhook delivery outcome.
func IncWebhookEvent(eventType, outcome string) {
	RegisterBusinessMetrics(nil)
	if c, ok := MetricsWebhookEvents.MetricCollector.(*prometheus.CounterVec); ok {
		c.WithLabelValues(eventType, outcome).Inc()
	}
}

// IncGateDecision counts one approval gate decision.
func IncGateDecision(route, outcome string) {
	RegisterBusinessMetrics(nil)
	if c, ok := MetricsGateDecisions.MetricCollector.(*prometheus.CounterVec); ok {
		c.WithLabelValues(route, outcome).Inc()
	}
}

// MillisecondsSince returns elapsed milliseconds as float64.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

const (
	RefererKey = "X-Referer"
)
