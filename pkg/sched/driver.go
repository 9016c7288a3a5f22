package sched

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/germanamz/zapctl/pkg/ranges"
	"github.com/germanamz/zapctl/pkg/zap"
)

// State is the driver's lifecycle state.
type State int

const (
	Pending State = iota
	Warmup
	Running
	Completed
	Aborted
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Warmup:
		return "warmup"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Tick is a Program's answer for one scheduling step: a spec to execute,
// a wait before the next step becomes active, or the end of the timeline.
// Exactly one of the three is meaningful.
type Tick struct {
	Spec *TickSpec
	Wait time.Duration
	Done bool
}

// Program feeds the driver its timeline: random mode's single implicit
// event or a session's scripted event sequence. Program instances may
// carry per-run state and must not be shared across runs.
type Program interface {
	InitDelay() ranges.Range
	MaxRuntime() (ranges.Range, bool)
	CountIn() (Kind, bool)
	BurstCooldown() time.Duration
	Advance(elapsed time.Duration) Tick
}

// OperationError reports a capability-interface failure with full context
// for the caller to present. Any operational error aborts the run;
// continuing without the failed target would desync cooldown tracking.
type OperationError struct {
	Target string
	Op     PlannedOp
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("sched: %s on %q (duration %s, intensity %d): %v",
		e.Op.Kind, e.Target, e.Op.Duration, e.Op.Intensity, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Burst operations get a short settle pause after each completion, over
// and above the sampled inter-operation delay.
const burstSettle = 300 * time.Millisecond

// Count-in beats: three one-second operations, one second apart.
const (
	countInBeats = 3
	countInGap   = time.Second
)

// Driver owns one run of a Program against a target pool. Configure the
// exported fields, then call Run once. The driver is single-threaded and
// cooperative: exactly one operation is in flight at any time, and
// cancellation is honored at every suspension point.
type Driver struct {
	Pool    []zap.Shocker
	Program Program

	// Optional; zero values get sensible defaults in Run.
	Clock Clock
	Rand  *rand.Rand
	Bus   *EventBus
	Log   zerolog.Logger

	runID    string
	state    State
	start    time.Time
	started  bool
	tick     int
	selector *Selector
	bursts   *BurstController
	planner  *Planner
}

// State returns the driver's current lifecycle state. Not for concurrent
// use with Run; renderers should watch the event bus instead.
func (d *Driver) State() State { return d.state }

// RunID returns the unique ID of the run, assigned when Run starts.
func (d *Driver) RunID() string { return d.runID }

// Events returns the bus driver events are published on, allocating it if
// the caller did not provide one.
func (d *Driver) Events() *EventBus {
	if d.Bus == nil {
		d.Bus = NewEventBus()
	}

	return d.Bus
}

// Run executes the program to completion. It returns nil when the run
// reaches Completed, the causing error when it aborts, and ctx.Err() when
// cancelled. Run must be called at most once per Driver.
func (d *Driver) Run(ctx context.Context) error {
	if len(d.Pool) == 0 {
		return ErrEmptyPool
	}

	if d.Clock == nil {
		d.Clock = RealClock()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	d.Events()

	d.runID = uuid.NewString()
	d.selector = NewSelector(d.Rand)
	d.bursts = &BurstController{}
	d.planner = NewPlanner(d.Rand, d.bursts)

	d.Log.Debug().Str("run_id", d.runID).Int("targets", len(d.Pool)).Msg("run starting")

	d.setState(Warmup)
	if err := d.warmup(ctx); err != nil {
		return d.abort(err)
	}

	d.setState(Running)
	d.start = d.Clock.Now()
	d.started = true

	err := d.loop(ctx)
	if err != nil {
		return d.abort(err)
	}

	d.setState(Completed)
	d.Log.Debug().Str("run_id", d.runID).Dur("elapsed", d.elapsed()).Msg("run completed")

	return nil
}

// warmup sleeps the sampled initial delay and plays the count-in. Both
// happen before the running clock starts, so neither counts against the
// max-runtime budget.
func (d *Driver) warmup(ctx context.Context) error {
	delay := time.Duration(d.Program.InitDelay().Pick(d.Rand)) * time.Second
	if delay > 0 {
		d.publish(EventSleep, SleepData{Duration: delay})
		if err := d.Clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	kind, ok := d.Program.CountIn()
	if !ok {
		return nil
	}

	// The count-in announces the run to every pool member, whatever the
	// first event's sync mode is.
	for beat := range countInBeats {
		op := PlannedOp{Kind: kind, Duration: time.Second, Intensity: 100}
		d.publish(EventCountIn, OpData{Op: op})

		for _, target := range d.Pool {
			if err := d.execute(ctx, target, op, false); err != nil {
				return err
			}
		}

		if beat < countInBeats-1 {
			if err := d.Clock.Sleep(ctx, countInGap); err != nil {
				return err
			}
		}
	}

	return nil
}

// loop drives ticks until a terminal condition: max-runtime exhausted,
// timeline done, operational error, or cancellation.
func (d *Driver) loop(ctx context.Context) error {
	var maxRuntime time.Duration
	limit, hasLimit := d.Program.MaxRuntime()
	if hasLimit {
		maxRuntime = time.Duration(limit.Pick(d.Rand)) * time.Second
	}

	cooldown := d.Program.BurstCooldown()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		elapsed := d.elapsed()
		if hasLimit && elapsed >= maxRuntime {
			return nil
		}

		tick := d.Program.Advance(elapsed)
		switch {
		case tick.Done:
			return nil

		case tick.Wait > 0:
			wait := tick.Wait
			if hasLimit && elapsed+wait > maxRuntime {
				wait = maxRuntime - elapsed
			}
			d.publish(EventSleep, SleepData{Duration: wait})
			if err := d.Clock.Sleep(ctx, wait); err != nil {
				return err
			}

		default:
			if err := d.executeTick(ctx, tick.Spec, cooldown); err != nil {
				return err
			}
			d.tick++
		}
	}
}

// executeTick plans and executes one tick, then sleeps the post-tick
// break.
func (d *Driver) executeTick(ctx context.Context, spec *TickSpec, cooldown time.Duration) error {
	plan := d.planner.Plan(spec, d.Clock.Now(), cooldown)

	if plan.Burst != nil {
		if err := d.executeBurst(ctx, plan.Burst); err != nil {
			return err
		}
	} else {
		for _, op := range plan.Ops {
			targets, err := d.selector.Select(d.Pool, spec.Sync, d.tick)
			if err != nil {
				return err
			}

			for _, target := range targets {
				if err := d.execute(ctx, target, op, false); err != nil {
					return err
				}
			}
		}
	}

	pause := time.Duration(spec.Break.Pick(d.Rand)) * time.Second
	if pause > 0 {
		d.publish(EventSleep, SleepData{Duration: pause})
		if err := d.Clock.Sleep(ctx, pause); err != nil {
			return err
		}
	}

	return nil
}

// executeBurst fires a sampled burst sequentially. Each operation picks
// its own random target, is awaited to completion, and is followed by the
// settle pause plus the sampled inter-operation delay.
func (d *Driver) executeBurst(ctx context.Context, burst *BurstPlan) error {
	d.publish(EventBurstStart, BurstData{Count: len(burst.Ops)})

	for i, op := range burst.Ops {
		targets, err := d.selector.Select(d.Pool, IndependentRandom, d.tick)
		if err != nil {
			return err
		}

		if err := d.execute(ctx, targets[0], op, true); err != nil {
			return err
		}

		if err := d.Clock.Sleep(ctx, burstSettle+burst.Pauses[i]); err != nil {
			return err
		}
	}

	d.bursts.RecordEnd(d.Clock.Now())
	d.publish(EventBurstEnd, nil)

	return nil
}

// execute issues one operation to one target and blocks until the target
// reports it complete. A transport failure wraps into *OperationError,
// which aborts the run.
func (d *Driver) execute(ctx context.Context, target zap.Shocker, op PlannedOp, burst bool) error {
	d.publish(EventOpStart, OpData{Target: target.Name(), Op: op, Burst: burst})
	d.Log.Debug().
		Str("run_id", d.runID).
		Str("target", target.Name()).
		Stringer("kind", op.Kind).
		Dur("duration", op.Duration).
		Int("intensity", op.Intensity).
		Msg("operation")

	var err error
	switch op.Kind {
	case KindBeep:
		err = target.Beep(ctx, op.Duration)
	case KindVibrate:
		err = target.Vibrate(ctx, op.Duration, op.Intensity)
	default:
		err = target.Shock(ctx, op.Duration, op.Intensity)
	}

	if err != nil {
		return &OperationError{Target: target.Name(), Op: op, Err: err}
	}

	d.publish(EventOpDone, OpData{Target: target.Name(), Op: op, Burst: burst})

	return nil
}

// abort transitions to Aborted and reports err to subscribers.
func (d *Driver) abort(err error) error {
	d.publish(EventError, err)
	d.setState(Aborted)
	d.Log.Debug().Str("run_id", d.runID).Err(err).Msg("run aborted")

	return err
}

func (d *Driver) setState(to State) {
	from := d.state
	d.state = to
	d.publish(EventStateChange, StateChangeData{From: from, To: to})
}

func (d *Driver) elapsed() time.Duration {
	if !d.started {
		return 0
	}

	return d.Clock.Now().Sub(d.start)
}

func (d *Driver) publish(kind EventKind, data any) {
	d.Bus.Publish(Event{
		Kind:      kind,
		RunID:     d.runID,
		Elapsed:   d.elapsed(),
		Timestamp: d.Clock.Now(),
		Data:      data,
	})
}
