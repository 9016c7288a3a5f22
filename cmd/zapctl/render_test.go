package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/germanamz/zapctl/pkg/sched"
)

func TestEventLine(t *testing.T) {
	base := sched.Event{RunID: "run", Elapsed: 5 * time.Second, Timestamp: time.Now()}

	shock := base
	shock.Kind = sched.EventOpStart
	shock.Data = sched.OpData{
		Target: "left",
		Op:     sched.PlannedOp{Kind: sched.KindShock, Duration: 2 * time.Second, Intensity: 40},
	}
	line := eventLine(shock)
	assert.Contains(t, line, "shock")
	assert.Contains(t, line, "left")
	assert.Contains(t, line, "2.0s")
	assert.Contains(t, line, "40%")

	beep := base
	beep.Kind = sched.EventOpStart
	beep.Data = sched.OpData{
		Target: "left",
		Op:     sched.PlannedOp{Kind: sched.KindBeep, Duration: time.Second},
	}
	assert.NotContains(t, eventLine(beep), "%", "beeps have no intensity")

	burst := base
	burst.Kind = sched.EventBurstStart
	burst.Data = sched.BurstData{Count: 7}
	assert.Contains(t, eventLine(burst), "7 shocks")

	state := base
	state.Kind = sched.EventStateChange
	state.Data = sched.StateChangeData{From: sched.Warmup, To: sched.Running}
	assert.Contains(t, eventLine(state), "running")

	sleep := base
	sleep.Kind = sched.EventSleep
	sleep.Data = sched.SleepData{Duration: 10 * time.Second}
	assert.Empty(t, eventLine(sleep), "sleeps are not rendered")
}

func TestSessionPlan(t *testing.T) {
	session, err := sched.ParseSession([]byte(`
shocker_names: [left, right]
max_runtime: 5m
count_in_mode: beep
events:
  - time: 0
    beep:
      duration: 1
  - time: 1m
    sync_mode: sync
    shock:
      possibility: 50
      duration: 1-2
      intensity: 30-60
    spam:
      duration: 1
      intensity: 40
      operations: 5-10
      delay: 0-1
  - time: 2m
`))
	assert.NoError(t, err)

	plan := sessionPlan("/tmp/demo.yaml", session)
	assert.Contains(t, plan, "demo.yaml")
	assert.Contains(t, plan, "left, right")
	assert.Contains(t, plan, "Count-in: 3 beeps")
	assert.Contains(t, plan, "Shock: 50% chance, 1-2 seconds at 30-60% intensity")
	assert.Contains(t, plan, "Spam:")
	assert.Contains(t, plan, "No operations (rest)")
}
