package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prom records bus activity into its own Prometheus registry.
type Prom struct {
	reg *prometheus.Registry

	Published   *prometheus.CounterVec
	Unhandled   *prometheus.CounterVec
	Invocations *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Listeners   *prometheus.GaugeVec
	Duration    *prometheus.HistogramVec
}

var _ Recorder = (*Prom)(nil)

func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		reg: reg,
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventbus_events_published_total",
			Help: "Events published, by topic and delivery mode",
		}, []string{"topic", "mode"}),
		Unhandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventbus_events_unhandled_total",
			Help: "Events published with no registered listener",
		}, []string{"topic"}),
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventbus_listener_invocations_total",
			Help: "Listener invocations",
		}, []string{"topic"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventbus_listener_failures_total",
			Help: "Listener invocations that returned an error",
		}, []string{"topic"}),
		Listeners: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventbus_listeners",
			Help: "Registered listeners per topic",
		}, []string{"topic"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventbus_listener_duration_seconds",
			Help:    "Time spent inside a listener",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	reg.MustRegister(p.Published, p.Unhandled, p.Invocations, p.Failures, p.Listeners, p.Duration)
	return p
}

func (p *Prom) Handler() http.Handler { return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}) }

// Registry exposes the underlying registry, mostly for tests.
func (p *Prom) Registry() *prometheus.Registry { return p.reg }

// ListenerRegistered sets the gauge to the listener count for the topic.
// Distinct event types sharing a topic report the count of the last one registered.
func (p *Prom) ListenerRegistered(topic string, total int) {
	p.Listeners.WithLabelValues(topic).Set(float64(total))
}

func (p *Prom) EventPublished(topic, mode string) {
	p.Published.WithLabelValues(topic, mode).Inc()
}

func (p *Prom) EventUnhandled(topic string) {
	p.Unhandled.WithLabelValues(topic).Inc()
}

func (p *Prom) ListenerInvoked(topic string, elapsed time.Duration, err error) {
	p.Invocations.WithLabelValues(topic).Inc()
	p.Duration.WithLabelValues(topic).Observe(elapsed.Seconds())
	if err != nil {
		p.Failures.WithLabelValues(topic).Inc()
	}
}
