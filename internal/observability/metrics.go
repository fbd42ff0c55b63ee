// Package observability exposes the service's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	GenerationsTotal *prometheus.CounterVec
	DenialsTotal     *prometheus.CounterVec
	CreditsGranted   prometheus.Counter
	CreditsSpent     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingmate_generations_total",
			Help: "Completed generations by opener mode and consumed unit.",
		}, []string{"mode", "unit"}),
		DenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingmate_generation_denials_total",
			Help: "Generation attempts denied, by reason.",
		}, []string{"reason"}),
		CreditsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wingmate_credits_granted_total",
			Help: "Credits granted through payment confirmations.",
		}),
		CreditsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wingmate_credits_spent_total",
			Help: "Credits debited for generations past the free quota.",
		}),
	}
	reg.MustRegister(m.GenerationsTotal, m.DenialsTotal, m.CreditsGranted, m.CreditsSpent)
	return m
}

func newDefault() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

var Module = fx.Module("observability",
	fx.Provide(newDefault),
)
