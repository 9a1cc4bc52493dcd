package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Provider is an in-process meter provider read on demand, used by the CLI
// to log totals at a fixed interval
type Provider struct {
	enabled  bool
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewProvider returns a provider. A disabled provider hands out no-op meters.
func NewProvider(enabled bool) *Provider {
	p := &Provider{enabled: enabled}
	if enabled {
		p.reader = sdkmetric.NewManualReader()
		p.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(p.reader))
	}
	return p
}

// Enabled reports whether the provider records anything
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Meter returns the meter for trafficsim instruments
func (p *Provider) Meter() metric.Meter {
	if !p.enabled {
		return noop.NewMeterProvider().Meter(instrumentationName)
	}
	return p.provider.Meter(instrumentationName)
}

// Snapshot collects every int and float data point, keyed by instrument name
// and, when present, the kind attribute ("traffic.events.spawned")
func (p *Provider) Snapshot(ctx context.Context) (map[string]float64, error) {
	out := map[string]float64{}
	if !p.enabled {
		return out, nil
	}

	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collecting metrics: %w", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[key(m.Name, dp.Attributes)] += float64(dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[key(m.Name, dp.Attributes)] = float64(dp.Value)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					out[key(m.Name, dp.Attributes)] = dp.Value
				}
			}
		}
	}
	return out, nil
}

func key(name string, attrs attribute.Set) string {
	if kind, ok := attrs.Value("kind"); ok {
		return name + "." + kind.AsString()
	}
	return name
}

// Shutdown stops the provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
