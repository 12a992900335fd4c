package analytics

import (
	"errors"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
)

const otherEventLabel = "other"

// Event names come from the browser, so only well-formed ones become label values.
var eventLabelPattern = regexp.MustCompile(`^[a-zA-Z0-9_$:. -]{1,64}$`)

type Metrics struct {
	events *prometheus.CounterVec
	vitals *prometheus.HistogramVec
}

// NewMetrics registers the analytics collectors with reg. A nil registerer leaves
// them unregistered, which keeps recording cheap when /metrics is disabled.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_analytics_events_total",
				Help: "Analytics events reported by the site front end.",
			},
			[]string{"event"},
		),
		vitals: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "site_web_vitals",
				Help: "Core web vitals reported by browsers. CLS is unitless, the rest are milliseconds.",
				Buckets: []float64{
					0.01, 0.05, 0.1, 0.25, 0.5, 1,
					50, 100, 200, 500, 800, 1000, 1800, 2500, 4000, 10000,
				},
			},
			[]string{"name", "rating"},
		),
	}

	if reg != nil {
		m.events = registerOrExisting(reg, m.events)
		m.vitals = registerOrExisting(reg, m.vitals)
	}

	return m
}

func registerOrExisting[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) RecordEvent(event string) {
	if !eventLabelPattern.MatchString(event) {
		event = otherEventLabel
	}
	m.events.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveWebVital(name, rating string, value float64) {
	if rating == "" {
		rating = "unknown"
	}
	m.vitals.WithLabelValues(name, rating).Observe(value)
}
