package soapinvoker

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeDiscarded = "discarded"
)

type metrics struct {
	calls    *prometheus.CounterVec
	retries  prometheus.Counter
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soapinvoker",
			Name:      "calls_total",
			Help:      "SOAP calls resolved, by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soapinvoker",
			Name:      "retries_total",
			Help:      "Second attempts made with an explicit SOAPAction.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soapinvoker",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single SOAP round trips.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.calls, m.retries, m.duration)
	}

	return m
}

func (m *metrics) resolved(err error) {
	switch {
	case err == nil:
		m.calls.WithLabelValues(outcomeSuccess).Inc()
	case errors.Is(err, ErrDiscarded):
		m.calls.WithLabelValues(outcomeDiscarded).Inc()
	default:
		m.calls.WithLabelValues(outcomeError).Inc()
	}
}
