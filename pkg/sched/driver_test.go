package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/zapctl/pkg/ranges"
	"github.com/germanamz/zapctl/pkg/zap"
)

// fakeClock advances instantly on Sleep, so runs that span minutes of
// simulated time finish in microseconds.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)

	return nil
}

type opCall struct {
	kind      Kind
	duration  time.Duration
	intensity int
	at        time.Time
}

// fakeShocker records every operation and, like real hardware transports,
// blocks for the operation's duration (here by advancing the fake clock).
type fakeShocker struct {
	name  string
	clock *fakeClock
	err   error
	calls []opCall
}

func (f *fakeShocker) Name() string { return f.name }

func (f *fakeShocker) record(kind Kind, d time.Duration, intensity int) error {
	if f.err != nil {
		return f.err
	}

	var at time.Time
	if f.clock != nil {
		at = f.clock.now
		f.clock.now = f.clock.now.Add(d)
	}
	f.calls = append(f.calls, opCall{kind: kind, duration: d, intensity: intensity, at: at})

	return nil
}

func (f *fakeShocker) Shock(_ context.Context, d time.Duration, intensity int) error {
	return f.record(KindShock, d, intensity)
}

func (f *fakeShocker) Vibrate(_ context.Context, d time.Duration, intensity int) error {
	return f.record(KindVibrate, d, intensity)
}

func (f *fakeShocker) Beep(_ context.Context, d time.Duration) error {
	return f.record(KindBeep, d, 0)
}

func (f *fakeShocker) Info(context.Context) (zap.Info, error) {
	return zap.Info{Name: f.name}, nil
}

func countKind(calls []opCall, kind Kind) int {
	n := 0
	for _, c := range calls {
		if c.kind == kind {
			n++
		}
	}

	return n
}

func newTestDriver(clock *fakeClock, program Program, targets ...*fakeShocker) *Driver {
	pool := make([]zap.Shocker, 0, len(targets))
	for _, f := range targets {
		f.clock = clock
		pool = append(pool, f)
	}

	return &Driver{
		Pool:    pool,
		Program: program,
		Clock:   clock,
		Rand:    testRand(),
	}
}

func TestDriver_SingleBeepSessionFiresOnce(t *testing.T) {
	s, err := ParseSession([]byte(`{"shocker_names":["a","b"],"events":[
		{"time":0,"sync_mode":"sync","break_duration":0,"beep":{"duration":1}}]}`))
	require.NoError(t, err)

	clock := newFakeClock()
	left := &fakeShocker{name: "a"}
	right := &fakeShocker{name: "b"}
	d := newTestDriver(clock, s.Program(), left, right)

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, Completed, d.State())

	// Exactly one beep per pool member, never a second trigger.
	require.Len(t, left.calls, 1)
	require.Len(t, right.calls, 1)
	assert.Equal(t, KindBeep, left.calls[0].kind)
	assert.Equal(t, time.Second, left.calls[0].duration)
	assert.Zero(t, left.calls[0].intensity)
}

func TestDriver_RandomModeHonorsMaxRuntime(t *testing.T) {
	cfg := &RandomConfig{
		Duration:      ranges.Scalar(1),
		Intensity:     ranges.Scalar(25),
		Pause:         ranges.Scalar(1),
		Shock:         true,
		MaxRuntime:    ranges.Scalar(5),
		HasMaxRuntime: true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, program, target)

	start := clock.now
	require.NoError(t, d.Run(context.Background()))

	// Ticks land at 0s, 2s and 4s; the budget check stops the fourth.
	require.Len(t, target.calls, 3)
	for i, c := range target.calls {
		assert.Equal(t, KindShock, c.kind)
		assert.Equal(t, 25, c.intensity)
		assert.Equal(t, start.Add(time.Duration(2*i)*time.Second), c.at)
	}
	assert.Equal(t, Completed, d.State())
}

func TestDriver_InitDelayPrecedesRunningClock(t *testing.T) {
	cfg := &RandomConfig{
		Duration:      ranges.Scalar(1),
		Intensity:     ranges.Scalar(10),
		Pause:         ranges.Scalar(1),
		Shock:         true,
		InitDelay:     ranges.Scalar(30),
		MaxRuntime:    ranges.Scalar(3),
		HasMaxRuntime: true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, program, target)

	start := clock.now
	require.NoError(t, d.Run(context.Background()))

	// The delay happens in warmup and does not eat the runtime budget.
	require.Len(t, target.calls, 2)
	assert.Equal(t, start.Add(30*time.Second), target.calls[0].at)
	assert.Equal(t, start.Add(32*time.Second), target.calls[1].at)
}

func TestDriver_CountInPlaysThreeBeats(t *testing.T) {
	s, err := ParseSession([]byte(`{"shocker_names":["a","b"],"count_in_mode":"beep","events":[
		{"time":0,"sync_mode":"sync","break_duration":0,"shock":{"duration":1,"intensity":10}}]}`))
	require.NoError(t, err)

	clock := newFakeClock()
	left := &fakeShocker{name: "a"}
	right := &fakeShocker{name: "b"}
	d := newTestDriver(clock, s.Program(), left, right)

	require.NoError(t, d.Run(context.Background()))

	// Three one-second count-in beats on every member, then the event.
	assert.Equal(t, 3, countKind(left.calls, KindBeep))
	assert.Equal(t, 3, countKind(right.calls, KindBeep))
	assert.Equal(t, 1, countKind(left.calls, KindShock))
	assert.Equal(t, 1, countKind(right.calls, KindShock))

	for _, c := range left.calls[:3] {
		assert.Equal(t, time.Second, c.duration)
	}
}

func TestDriver_BurstRunsOnceWithinCooldown(t *testing.T) {
	cfg := &RandomConfig{
		Duration:  ranges.Scalar(1),
		Intensity: ranges.Scalar(20),
		Pause:     ranges.Scalar(1),
		Shock:     true,
		Spam: SpamConfig{
			Possibility: 100,
			Operations:  ranges.Scalar(3),
			Pause:       ranges.Scalar(0),
			Duration:    ranges.Scalar(1),
			Cooldown:    time.Hour,
		},
		MaxRuntime:    ranges.Scalar(20),
		HasMaxRuntime: true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, program, target)

	sub := d.Events().Subscribe(256)
	defer d.Bus.Unsubscribe(sub)

	require.NoError(t, d.Run(context.Background()))

	starts, ends := 0, 0
	for {
		select {
		case e := <-sub.C:
			switch e.Kind {
			case EventBurstStart:
				starts++
				assert.Equal(t, BurstData{Count: 3}, e.Data)
			case EventBurstEnd:
				ends++
			}
			continue
		default:
		}
		break
	}

	// Certain possibility, hour-long cooldown: exactly one burst fits.
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.GreaterOrEqual(t, len(target.calls), 4, "ordinary shocks resume after the burst")
	for _, c := range target.calls {
		assert.Equal(t, KindShock, c.kind)
	}
}

func TestDriver_BurstOpsAreSpacedBySettle(t *testing.T) {
	cfg := &RandomConfig{
		Duration:  ranges.Scalar(1),
		Intensity: ranges.Scalar(20),
		Pause:     ranges.Scalar(1),
		Shock:     true,
		Spam: SpamConfig{
			Possibility: 100,
			Operations:  ranges.Scalar(2),
			Pause:       ranges.Scalar(2),
			Duration:    ranges.Scalar(1),
			Cooldown:    time.Hour,
		},
		MaxRuntime:    ranges.Scalar(5),
		HasMaxRuntime: true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, program, target)

	require.NoError(t, d.Run(context.Background()))

	require.GreaterOrEqual(t, len(target.calls), 2)
	gap := target.calls[1].at.Sub(target.calls[0].at)
	// 1s operation + 300ms settle + 2s sampled delay.
	assert.Equal(t, 3300*time.Millisecond, gap)
}

func TestDriver_EmptyPool(t *testing.T) {
	cfg := &RandomConfig{
		Duration:  ranges.Scalar(1),
		Intensity: ranges.Scalar(10),
		Pause:     ranges.Scalar(1),
		Shock:     true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	d := &Driver{Program: program, Clock: newFakeClock(), Rand: testRand()}
	assert.ErrorIs(t, d.Run(context.Background()), ErrEmptyPool)
}

func TestDriver_OperationErrorAborts(t *testing.T) {
	s, err := ParseSession([]byte(`{"shocker_names":["a"],"events":[
		{"time":0,"break_duration":0,"shock":{"duration":1,"intensity":10}}]}`))
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a", err: errors.New("device unplugged")}
	d := newTestDriver(clock, s.Program(), target)

	runErr := d.Run(context.Background())
	require.Error(t, runErr)

	var opErr *OperationError
	require.ErrorAs(t, runErr, &opErr)
	assert.Equal(t, "a", opErr.Target)
	assert.Equal(t, KindShock, opErr.Op.Kind)
	assert.Equal(t, Aborted, d.State())
}

func TestDriver_CancelledContextAborts(t *testing.T) {
	cfg := &RandomConfig{
		Duration:  ranges.Scalar(1),
		Intensity: ranges.Scalar(10),
		Pause:     ranges.Scalar(1),
		Shock:     true,
	}
	program, err := cfg.Program()
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, program, target)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Run(ctx), context.Canceled)
	assert.Equal(t, Aborted, d.State())
	assert.Empty(t, target.calls)
}

func TestDriver_SessionWaitsBetweenAnchors(t *testing.T) {
	s, err := ParseSession([]byte(`{"shocker_names":["a"],"events":[
		{"time":0,"break_duration":0,"beep":{"duration":1}},
		{"time":30,"break_duration":0,"shock":{"duration":1,"intensity":15}}]}`))
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, s.Program(), target)

	start := clock.now
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, target.calls, 2)
	assert.Equal(t, KindBeep, target.calls[0].kind)
	assert.Equal(t, start, target.calls[0].at)
	assert.Equal(t, KindShock, target.calls[1].kind)
	assert.Equal(t, start.Add(30*time.Second), target.calls[1].at)
}

func TestDriver_StateTransitionsPublished(t *testing.T) {
	s, err := ParseSession([]byte(`{"shocker_names":["a"],"events":[
		{"time":0,"break_duration":0,"beep":{"duration":1}}]}`))
	require.NoError(t, err)

	clock := newFakeClock()
	target := &fakeShocker{name: "a"}
	d := newTestDriver(clock, s.Program(), target)

	sub := d.Events().Subscribe(64)
	defer d.Bus.Unsubscribe(sub)

	require.NoError(t, d.Run(context.Background()))

	var states []State
	for {
		select {
		case e := <-sub.C:
			if e.Kind == EventStateChange {
				states = append(states, e.Data.(StateChangeData).To)
			}
			continue
		default:
		}
		break
	}

	assert.Equal(t, []State{Warmup, Running, Completed}, states)
}
