// Package metrics exports simulation counters through OpenTelemetry.
package metrics

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/golangdaddy/trafficsim/traffic"
)

const instrumentationName = "github.com/golangdaddy/trafficsim/metrics"

// StatsSource is anything that reports running totals, usually a *traffic.World
type StatsSource interface {
	Stats() traffic.Stats
}

// Collector counts traffic events and observes world totals
type Collector struct {
	events   metric.Int64Counter
	vehicles metric.Int64ObservableGauge
	inFlight metric.Int64ObservableGauge
	simTime  metric.Float64ObservableGauge

	source atomic.Pointer[StatsSource]
}

// New creates the instruments on meter m
func New(m metric.Meter) (*Collector, error) {
	c := &Collector{}

	var err error
	c.events, err = m.Int64Counter(
		"traffic.events",
		metric.WithDescription("Simulation events by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	c.vehicles, err = m.Int64ObservableGauge(
		"traffic.vehicles",
		metric.WithDescription("Live vehicles"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating vehicles gauge: %w", err)
	}

	c.inFlight, err = m.Int64ObservableGauge(
		"traffic.crosses.in_flight",
		metric.WithDescription("Vehicles inside crosses"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating in-flight gauge: %w", err)
	}

	c.simTime, err = m.Float64ObservableGauge(
		"traffic.time",
		metric.WithDescription("Simulated seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating time gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			src := c.source.Load()
			if src == nil {
				return nil
			}
			stats := (*src).Stats()
			o.ObserveInt64(c.vehicles, int64(stats.Vehicles))
			o.ObserveInt64(c.inFlight, int64(stats.InFlight))
			o.ObserveFloat64(c.simTime, stats.Time)
			return nil
		},
		c.vehicles, c.inFlight, c.simTime,
	)
	if err != nil {
		return nil, fmt.Errorf("registering stats callback: %w", err)
	}

	return c, nil
}

// Observe sets the source of the gauges
func (c *Collector) Observe(src StatsSource) {
	c.source.Store(&src)
}

// OnEvent counts e by kind
func (c *Collector) OnEvent(e traffic.Event) {
	c.events.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", e.Kind.String())))
}
