package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/zapctl/pkg/ranges"
)

func certainOp(kind Kind) *OperationSpec {
	return &OperationSpec{
		Kind:        kind,
		Possibility: 100,
		Duration:    ranges.Scalar(1),
		Intensity:   ranges.Range{Min: 10, Max: 20},
	}
}

func neverOp(kind Kind) *OperationSpec {
	op := certainOp(kind)
	op.Possibility = 0
	return op
}

func TestPlanner_FixedExecutionOrder(t *testing.T) {
	p := NewPlanner(testRand(), &BurstController{})
	spec := &TickSpec{
		Shock:   certainOp(KindShock),
		Vibrate: certainOp(KindVibrate),
		Beep:    certainOp(KindBeep),
	}

	plan := p.Plan(spec, time.Unix(0, 0), 0)
	require.Nil(t, plan.Burst)
	require.Len(t, plan.Ops, 3)
	assert.Equal(t, KindBeep, plan.Ops[0].Kind)
	assert.Equal(t, KindVibrate, plan.Ops[1].Kind)
	assert.Equal(t, KindShock, plan.Ops[2].Kind)
}

func TestPlanner_IndependentRolls(t *testing.T) {
	p := NewPlanner(testRand(), &BurstController{})
	spec := &TickSpec{
		Shock:   neverOp(KindShock),
		Vibrate: certainOp(KindVibrate),
	}

	for range 50 {
		plan := p.Plan(spec, time.Unix(0, 0), 0)
		require.Len(t, plan.Ops, 1)
		assert.Equal(t, KindVibrate, plan.Ops[0].Kind)
	}
}

func TestPlanner_BeepHasNoIntensity(t *testing.T) {
	p := NewPlanner(testRand(), &BurstController{})
	spec := &TickSpec{Beep: certainOp(KindBeep)}

	plan := p.Plan(spec, time.Unix(0, 0), 0)
	require.Len(t, plan.Ops, 1)
	assert.Zero(t, plan.Ops[0].Intensity)
	assert.Equal(t, time.Second, plan.Ops[0].Duration)
}

func TestPlanner_BurstExcludesOrdinaryOps(t *testing.T) {
	p := NewPlanner(testRand(), &BurstController{})
	spec := &TickSpec{
		Shock:   certainOp(KindShock),
		Vibrate: certainOp(KindVibrate),
		Burst: &BurstSpec{
			OperationSpec: *certainOp(KindBurst),
			Operations:    ranges.Range{Min: 3, Max: 5},
			Delay:         ranges.Scalar(1),
		},
	}

	plan := p.Plan(spec, time.Unix(0, 0), time.Minute)
	require.NotNil(t, plan.Burst)
	assert.Empty(t, plan.Ops)

	n := len(plan.Burst.Ops)
	assert.GreaterOrEqual(t, n, 3)
	assert.LessOrEqual(t, n, 5)
	assert.Len(t, plan.Burst.Pauses, n)
	for _, op := range plan.Burst.Ops {
		assert.Equal(t, KindShock, op.Kind)
	}
}

func TestPlanner_BurstCooldownFallsBack(t *testing.T) {
	bursts := &BurstController{}
	p := NewPlanner(testRand(), bursts)
	spec := &TickSpec{
		Vibrate: certainOp(KindVibrate),
		Burst: &BurstSpec{
			OperationSpec: *certainOp(KindBurst),
			Operations:    ranges.Scalar(2),
			Delay:         ranges.Scalar(1),
		},
	}

	now := time.Unix(0, 0)
	plan := p.Plan(spec, now, time.Minute)
	require.NotNil(t, plan.Burst)
	bursts.RecordEnd(now.Add(4 * time.Second))

	// Still inside the cooldown: ordinary operations run instead.
	plan = p.Plan(spec, now.Add(10*time.Second), time.Minute)
	assert.Nil(t, plan.Burst)
	require.Len(t, plan.Ops, 1)
	assert.Equal(t, KindVibrate, plan.Ops[0].Kind)
}
