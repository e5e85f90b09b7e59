package sim

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"drone-city-sim/internal/nav"
)

// ErrStopped is returned by requests made after Run has returned.
var ErrStopped = errors.New("engine stopped")

type stateReq struct {
	reply chan Snapshot
}

type subscribeReq struct {
	ch chan Snapshot
}

type applyReq struct {
	cmd   Command
	reply chan error
}

// Engine runs a Simulation on its own goroutine. All access goes through channels,
// so commands always land between two ticks.
type Engine struct {
	sim    *Simulation
	static Static

	// Actor channels
	cmdCh       chan Command
	applyCh     chan applyReq
	stateReqCh  chan stateReq
	subscribeCh chan subscribeReq
	unsubCh     chan chan Snapshot
	// done is closed when Run returns.
	done chan struct{}

	tickHz  float64
	log     zerolog.Logger
	metrics *Metrics

	// owned by Run
	lastOutcome nav.Outcome
}

type EngineConfig struct {
	TickHz float64
	// QueueSize bounds the Submit queue. Commands beyond it are dropped.
	QueueSize int

	Logger  zerolog.Logger
	Metrics *Metrics
}

func NewEngine(s *Simulation, cfg EngineConfig) *Engine {
	if cfg.TickHz <= 0 {
		cfg.TickHz = 33
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	return &Engine{
		sim:         s,
		static:      s.Static(),
		cmdCh:       make(chan Command, cfg.QueueSize),
		applyCh:     make(chan applyReq, 32),
		stateReqCh:  make(chan stateReq, 32),
		subscribeCh: make(chan subscribeReq),
		unsubCh:     make(chan chan Snapshot, 32),
		done:        make(chan struct{}),
		tickHz:      cfg.TickHz,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Static is safe to call from any goroutine.
func (e *Engine) Static() Static { return e.static }

// Submit queues a command without waiting for it. It reports false if the queue is full.
func (e *Engine) Submit(cmd Command) bool {
	select {
	case e.cmdCh <- cmd:
		return true
	default:
		e.log.Warn().Str("command", string(cmd.Type())).Msg("command queue full, dropping")
		e.metrics.drop(context.Background(), cmd.Type())
		return false
	}
}

// Apply queues a command and waits until the engine has applied it.
func (e *Engine) Apply(ctx context.Context, cmd Command) error {
	req := applyReq{cmd: cmd, reply: make(chan error, 1)}
	select {
	case e.applyCh <- req:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) GetState(ctx context.Context) (Snapshot, error) {
	req := stateReq{reply: make(chan Snapshot, 1)}
	select {
	case e.stateReqCh <- req:
	case <-e.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case st := <-req.reply:
		return st, nil
	case <-e.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Subscribe returns a channel receiving every published snapshot. Slow
// subscribers miss frames. The channel is closed by unsub or when Run returns;
// subscribing to a stopped engine yields a closed channel.
func (e *Engine) Subscribe(ctx context.Context) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 32)

	// subscribeCh is unbuffered, so a send only succeeds while Run is receiving.
	select {
	case e.subscribeCh <- subscribeReq{ch: ch}:
	case <-e.done:
		close(ch)
		return ch, func() {}
	case <-ctx.Done():
		close(ch)
		return ch, func() {}
	}

	unsub := func() {
		select {
		case e.unsubCh <- ch:
		default:
		}
	}
	return ch, unsub
}

// Run drives the simulation until ctx ends. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	subs := map[chan Snapshot]struct{}{}

	publish := func(st Snapshot) {
		for ch := range subs {
			select {
			case ch <- st:
			default:
				// slow subscriber -> drop frame
			}
		}
	}

	apply := func(cmd Command) error {
		err := e.sim.Apply(cmd)
		ev := e.log.Debug()
		if err != nil {
			ev = e.log.Info().Err(err)
		}
		ev.Str("command", string(cmd.Type())).Msg("command applied")
		return err
	}

	tick := time.NewTicker(time.Duration(float64(time.Second) / e.tickHz))
	defer tick.Stop()

	e.log.Info().Float64("tickHz", e.tickHz).Msg("simulation started")

	for {
		select {
		case <-ctx.Done():
			for ch := range subs {
				close(ch)
			}
			e.log.Info().Msg("simulation stopped")
			return nil

		case req := <-e.subscribeCh:
			subs[req.ch] = struct{}{}
			req.ch <- e.sim.Snapshot()

		case ch := <-e.unsubCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case req := <-e.stateReqCh:
			req.reply <- e.sim.Snapshot()

		case cmd := <-e.cmdCh:
			_ = apply(cmd)

		case req := <-e.applyCh:
			req.reply <- apply(req.cmd)

		case t := <-tick.C:
			res := e.sim.Step(t)
			e.metrics.tick(ctx, res)
			e.logStep(res)
			publish(res.Snapshot)
		}
	}
}

func (e *Engine) logStep(res StepResult) {
	st := res.Snapshot
	repeated := res.Outcome == e.lastOutcome
	e.lastOutcome = res.Outcome
	if res.WindChanged {
		e.log.Debug().Int("kmh", st.WindKmh).Msg("wind changed")
	}
	if res.Bumps > 0 {
		e.log.Debug().Int("bumps", res.Bumps).Float64("distance", st.HazardDistance).Msg("hazard bump")
	}
	if repeated {
		return
	}

	switch res.Outcome {
	case nav.OutcomeObstacle:
		e.log.Info().
			Str("kind", string(st.ObstacleKind)).
			Interface("waypoint", st.Waypoint).
			Msg("obstacle detected: climbing")
	case nav.OutcomeWaypointReached:
		e.log.Debug().Str("status", st.Status).Msg("waypoint reached")
	case nav.OutcomeDelivered:
		e.log.Info().Interface("position", st.Position).Int("battery", st.Battery).Msg("delivered")
	case nav.OutcomeDepleted:
		e.log.Warn().Interface("position", st.Position).Msg("battery depleted")
	}
}
