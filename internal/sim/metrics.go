package sim

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"drone-city-sim/internal/nav"
)

const instrumentationName = "drone-city-sim/internal/sim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics counts simulation events. It uses the global OTel meter, which is a
// no-op until a provider is installed.
type Metrics struct {
	ticks      metric.Int64Counter
	obstacles  metric.Int64Counter
	deliveries metric.Int64Counter
	bumps      metric.Int64Counter
	dropped    metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	m := meter()
	var (
		out Metrics
		err error
	)

	out.ticks, err = m.Int64Counter(
		"sim.ticks",
		metric.WithDescription("Simulation ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	out.obstacles, err = m.Int64Counter(
		"sim.obstacles.detected",
		metric.WithDescription("Obstacles that forced a climb waypoint"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating obstacles counter: %w", err)
	}

	out.deliveries, err = m.Int64Counter(
		"sim.deliveries",
		metric.WithDescription("Goals reached"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}

	out.bumps, err = m.Int64Counter(
		"sim.hazard.bumps",
		metric.WithDescription("Hazard repulsions applied to the vehicle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bumps counter: %w", err)
	}

	out.dropped, err = m.Int64Counter(
		"sim.commands.dropped",
		metric.WithDescription("Commands dropped due to a full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return &out, nil
}

func (m *Metrics) tick(ctx context.Context, r StepResult) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1)
	if r.Bumps > 0 {
		m.bumps.Add(ctx, int64(r.Bumps))
	}
	switch r.Outcome {
	case nav.OutcomeObstacle:
		m.obstacles.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(r.Snapshot.ObstacleKind))))
	case nav.OutcomeDelivered:
		m.deliveries.Add(ctx, 1)
	}
}

func (m *Metrics) drop(ctx context.Context, t CommandType) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("command", string(t))))
}
