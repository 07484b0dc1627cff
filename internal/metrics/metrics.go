// Package metrics exposes Prometheus collectors for hosted game views.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edudesk/gamehost/internal/minigame"
)

type Metrics struct {
	OpenViews   prometheus.Gauge
	Rejected    *prometheus.CounterVec
	Ended       prometheus.Counter
	Submissions *prometheus.CounterVec
	BundleLoads *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpenViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gamehost",
			Name:      "open_views",
			Help:      "Game views currently open.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamehost",
			Name:      "messages_rejected_total",
			Help:      "Inbound bundle messages dropped by validation.",
		}, []string{"reason"}),
		Ended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gamehost",
			Name:      "sessions_ended_total",
			Help:      "Play sessions that reached a terminal result.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamehost",
			Name:      "submissions_total",
			Help:      "Terminal submissions by outcome.",
		}, []string{"outcome"}),
		BundleLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamehost",
			Name:      "bundle_loads_total",
			Help:      "Bundle fetches by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.OpenViews, m.Rejected, m.Ended, m.Submissions, m.BundleLoads)
	return m
}

// Observe implements minigame.Observer.
func (m *Metrics) Observe(e minigame.Event) {
	switch e.Type {
	case minigame.EventOpened:
		m.OpenViews.Inc()
	case minigame.EventClosed:
		m.OpenViews.Dec()
	case minigame.EventRejected:
		m.Rejected.WithLabelValues(string(e.Reason)).Inc()
	case minigame.EventEnded:
		m.Ended.Inc()
	case minigame.EventSubmitted:
		m.Submissions.WithLabelValues(string(minigame.OutcomeSubmitted)).Inc()
	case minigame.EventSubmitFailed:
		m.Submissions.WithLabelValues(string(minigame.OutcomeFailed)).Inc()
	}
}

// BundleLoaded counts a bundle fetch attempt.
func (m *Metrics) BundleLoaded(err error) {
	if err != nil {
		m.BundleLoads.WithLabelValues("error").Inc()
		return
	}
	m.BundleLoads.WithLabelValues("ok").Inc()
}
