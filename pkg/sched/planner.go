package sched

import (
	"math/rand/v2"
	"time"
)

// PlannedOp is one concrete operation the driver must execute: a kind with
// sampled parameters. Intensity is zero for beeps.
type PlannedOp struct {
	Kind      Kind
	Duration  time.Duration
	Intensity int
}

// BurstPlan is a fully sampled burst: the operations to fire sequentially
// and the pause after each one.
type BurstPlan struct {
	Ops    []PlannedOp
	Pauses []time.Duration
}

// Plan is the planner's output for one tick. Either Burst is non-nil and
// Ops is empty, or the other way around — a burst excludes ordinary
// operations in the same tick.
type Plan struct {
	Burst *BurstPlan
	Ops   []PlannedOp
}

// Planner decides which operation kind(s) fire on a tick and samples their
// parameters. All randomness flows through the rng it was built with.
type Planner struct {
	rng    *rand.Rand
	bursts *BurstController
}

// NewPlanner creates a Planner drawing from rng and consulting bursts for
// burst entry.
func NewPlanner(rng *rand.Rand, bursts *BurstController) *Planner {
	return &Planner{rng: rng, bursts: bursts}
}

// Plan evaluates the active spec set for the tick at now.
//
// Burst entry is evaluated first; when it succeeds the tick produces only
// the burst. Otherwise every configured kind rolls its possibility
// independently — vibrate and shock are separate trials, not mutually
// exclusive — and the fired kinds are returned in the fixed execution
// order beep, vibrate, shock.
func (p *Planner) Plan(spec *TickSpec, now time.Time, cooldown time.Duration) Plan {
	if spec.Burst != nil && p.bursts.TryEnter(now, cooldown, spec.Burst.Possibility, p.rng) {
		return Plan{Burst: p.sampleBurst(spec.Burst)}
	}

	var ops []PlannedOp
	for _, os := range []*OperationSpec{spec.Beep, spec.Vibrate, spec.Shock} {
		if os == nil {
			continue
		}
		if os.Possibility.Roll(p.rng) {
			ops = append(ops, os.sample(p.rng))
		}
	}

	return Plan{Ops: ops}
}

// sampleBurst draws the operation count and per-operation parameters for
// one burst. Each burst operation is a shock with its own sampled duration
// and intensity.
func (p *Planner) sampleBurst(spec *BurstSpec) *BurstPlan {
	count := spec.Operations.Pick(p.rng)
	plan := &BurstPlan{
		Ops:    make([]PlannedOp, 0, count),
		Pauses: make([]time.Duration, 0, count),
	}

	for range count {
		plan.Ops = append(plan.Ops, PlannedOp{
			Kind:      KindShock,
			Duration:  time.Duration(spec.Duration.Pick(p.rng)) * time.Second,
			Intensity: spec.Intensity.Pick(p.rng),
		})
		plan.Pauses = append(plan.Pauses, time.Duration(spec.Delay.Pick(p.rng))*time.Second)
	}

	return plan
}
