package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ngena"

// Metrics holds the dispatcher collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	sends            *prometheus.CounterVec
	sendDuration     *prometheus.HistogramVec
	backs            *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors, together with the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of dispatch cycles by resolved state and outcome.",
		}, []string{"state", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of dispatch cycles.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_total",
			Help:      "Total number of outbound messages by response type and status code.",
		}, []string{"response_type", "status"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Duration of transport calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"response_type"}),
		backs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "back_total",
			Help:      "Total number of back requests by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.dispatches, m.dispatchDuration, m.sends, m.sendDuration, m.backs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, e.g. to add application collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			state := e.State
			if state == "" {
				state = "none"
			}
			m.dispatches.WithLabelValues(state, e.Outcome).Inc()
			m.dispatchDuration.WithLabelValues(state).Observe(e.Duration.Seconds())
		},
		OnSend: func(_ context.Context, e *domain.SendEvent) {
			status := "error"
			if e.StatusCode > 0 {
				status = strconv.Itoa(e.StatusCode)
			}
			m.sends.WithLabelValues(string(e.ResponseType), status).Inc()
			m.sendDuration.WithLabelValues(string(e.ResponseType)).Observe(e.Duration.Seconds())
		},
		OnBack: func(_ context.Context, e *domain.BackEvent) {
			result := "restored"
			if e.Underflow {
				result = "underflow"
			}
			m.backs.WithLabelValues(result).Inc()
		},
	}
}
