package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campaign_dispatcher"

// Metrics holds the collectors of one process. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	DispatchAttempts     *prometheus.CounterVec
	MessagesTotal        *prometheus.CounterVec
	QueuePending         *prometheus.GaugeVec
	QueueInFlight        *prometheus.GaugeVec
	WebhookStatusUpdates *prometheus.CounterVec
	InboundMessages      *prometheus.CounterVec
	CampaignDuration     prometheus.Histogram
	RetentionDeleted     prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		DispatchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_attempts_total",
			Help:      "Remote send attempts by outcome",
		}, []string{"outcome"}),
		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Per-contact campaign outcomes by destination country",
		}, []string{"country", "status"}),
		QueuePending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_pending",
			Help:      "Tasks waiting in a country dispatch queue",
		}, []string{"country"}),
		QueueInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_in_flight",
			Help:      "Tasks executing in a country dispatch queue",
		}, []string{"country"}),
		WebhookStatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_status_updates_total",
			Help:      "Delivery status updates reconciled from webhooks",
		}, []string{"status", "result"}),
		InboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages received through the webhook",
		}, []string{"opt_out"}),
		CampaignDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "campaign_duration_seconds",
			Help:      "Wall time of a campaign batch",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}),
		RetentionDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_events_total",
			Help:      "Delivery events removed by the retention job",
		}),
	}
}

// NewDefaultMetrics registers the collectors plus the Go runtime and process collectors.
func NewDefaultMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewMetrics(registry)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.DispatchAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMessage(country, status string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(country, status).Inc()
}

func (m *Metrics) SetQueueDepth(country string, pending, inFlight int) {
	if m == nil {
		return
	}
	m.QueuePending.WithLabelValues(country).Set(float64(pending))
	m.QueueInFlight.WithLabelValues(country).Set(float64(inFlight))
}

func (m *Metrics) ObserveStatusUpdate(status, result string) {
	if m == nil {
		return
	}
	m.WebhookStatusUpdates.WithLabelValues(status, result).Inc()
}

func (m *Metrics) ObserveInbound(optOut bool) {
	if m == nil {
		return
	}
	label := "false"
	if optOut {
		label = "true"
	}
	m.InboundMessages.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveCampaign(d time.Duration) {
	if m == nil {
		return
	}
	m.CampaignDuration.Observe(d.Seconds())
}

func (m *Metrics) AddRetentionDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RetentionDeleted.Add(float64(n))
}
