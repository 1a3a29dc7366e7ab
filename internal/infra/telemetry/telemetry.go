package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BillBrieferServer/scribe/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	shareDenials *prometheus.CounterVec
}

// Attach configures telemetry collectors and returns a provider handle.
// Request-level metrics live in the HTTP middleware; this provider carries the
// domain-level counters.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	denials := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scribe",
		Name:      "note_share_denials_total",
		Help:      "Note share requests denied by the rate limiter",
	}, []string{"scope"})

	return &Provider{shareDenials: denials}, nil
}

// ShareDenialCounter exposes the share limiter denial metric for a scope.
func (p *Provider) ShareDenialCounter(scope string) prometheus.Counter {
	if p == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{})
	}
	return p.shareDenials.WithLabelValues(scope)
}
