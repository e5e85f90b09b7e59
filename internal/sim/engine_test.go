package sim

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEngine(t *testing.T, cfg Config) (*Engine, context.CancelFunc, <-chan error) {
	t.Helper()
	metrics, err := NewMetrics()
	require.NoError(t, err)

	e := NewEngine(New(cfg, time.Now()), EngineConfig{TickHz: 200, Logger: zerolog.Nop(), Metrics: metrics})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(cancel)
	return e, cancel, done
}

func TestEngine_ApplyAndStream(t *testing.T) {
	e, cancel, done := startEngine(t, emptyCity(2))

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	ch, unsub := e.Subscribe(ctx)
	defer unsub()

	first := <-ch
	assert.Equal(t, "idle", first.Phase)

	require.NoError(t, e.Apply(ctx, GoToBuildingCommand{Index: 1}))

	var moving Snapshot
	for st := range ch {
		if st.Phase == "moving" && st.Tick > 0 {
			moving = st
			break
		}
	}
	assert.Equal(t, "navigating to building #1", moving.Status)
	require.NotNil(t, moving.Goal)

	st, err := e.GetState(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.Tick, moving.Tick)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}

	// subscriber channels are closed on shutdown
	for range ch {
	}
}

func TestEngine_ApplyErrors(t *testing.T) {
	e, _, _ := startEngine(t, emptyCity(1))
	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	assert.ErrorIs(t, e.Apply(ctx, GoToBuildingCommand{Index: 5}), ErrUnknownBuilding)
	assert.ErrorIs(t, e.Apply(ctx, ClickCommand{X: -1e6, Y: -1e6}), ErrNoTarget)
}

func TestEngine_SubmitDropsWhenFull(t *testing.T) {
	e := NewEngine(New(emptyCity(0), t0), EngineConfig{QueueSize: 1, Logger: zerolog.Nop()})

	assert.True(t, e.Submit(StopCommand{}))
	assert.False(t, e.Submit(StopCommand{}))
}

func TestEngine_GetStateHonoursContext(t *testing.T) {
	e := NewEngine(New(emptyCity(0), t0), EngineConfig{Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// nothing runs the engine: the request is queued but never answered
	_, err := e.GetState(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_Static(t *testing.T) {
	cfg := emptyCity(3)
	s := New(cfg, t0)
	e := NewEngine(s, EngineConfig{Logger: zerolog.Nop()})

	st := e.Static()
	assert.Len(t, st.Buildings, 3)
	assert.Equal(t, cfg.Camera.Projector, st.Projector)
	assert.Equal(t, 0.1, st.RotateStep)
}

func TestEngine_AfterRunReturns(t *testing.T) {
	e, cancel, done := startEngine(t, emptyCity(1))
	cancel()
	require.NoError(t, <-done)

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	ch, unsub := e.Subscribe(ctx)
	defer unsub()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "subscription on a stopped engine must be closed")
	case <-ctx.Done():
		t.Fatal("subscription was never closed")
	}

	_, err := e.GetState(ctx)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, e.Apply(ctx, StopCommand{}), ErrStopped)
}
