package sched

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/germanamz/zapctl/pkg/ranges"
)

// Kind is an operation kind the planner can schedule.
type Kind int

const (
	KindVibrate Kind = iota
	KindShock
	KindBeep
	KindBurst
)

// String returns the lower-case kind name ("spam" for bursts, matching the
// session file vocabulary).
func (k Kind) String() string {
	switch k {
	case KindVibrate:
		return "vibrate"
	case KindShock:
		return "shock"
	case KindBeep:
		return "beep"
	case KindBurst:
		return "spam"
	default:
		return "unknown"
	}
}

// OperationSpec describes one configured operation kind: its trigger
// possibility and the ranges its parameters are sampled from. Intensity is
// ignored for beeps.
type OperationSpec struct {
	Kind        Kind
	Possibility ranges.Possibility
	Duration    ranges.Range // seconds
	Intensity   ranges.Range // percent, 0-100
}

// sample draws concrete parameters for one triggered operation.
func (s *OperationSpec) sample(rng *rand.Rand) PlannedOp {
	op := PlannedOp{
		Kind:     s.Kind,
		Duration: time.Duration(s.Duration.Pick(rng)) * time.Second,
	}
	if s.Kind != KindBeep {
		op.Intensity = s.Intensity.Pick(rng)
	}

	return op
}

// BurstSpec extends OperationSpec with the shape of the rapid-fire
// sub-mode: how many operations a burst contains and the pause between
// them. Burst operations are shocks.
type BurstSpec struct {
	OperationSpec

	Operations ranges.Range // operation count per burst
	Delay      ranges.Range // pause between burst operations, seconds
}

// TickSpec is the active specification set for one tick: which operation
// kinds are configured, the target sync policy, and the pause after the
// tick. Nil kind fields mean "not configured", which is distinct from a
// possibility of 0.
type TickSpec struct {
	Sync  SyncMode
	Break ranges.Range // post-tick pause, seconds

	Beep    *OperationSpec
	Vibrate *OperationSpec
	Shock   *OperationSpec
	Burst   *BurstSpec
}

// ConfigError reports an invalid engine configuration. It is always
// detected before a driver starts; no partial execution happens.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sched: config: %s: %s", e.Field, e.Msg)
}
