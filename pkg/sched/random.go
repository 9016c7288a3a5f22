package sched

import (
	"time"

	"github.com/germanamz/zapctl/pkg/ranges"
)

// SpamConfig holds the burst parameters of random mode.
type SpamConfig struct {
	Possibility ranges.Possibility
	Operations  ranges.Range
	Pause       ranges.Range // between burst operations, seconds
	Duration    ranges.Range
	Intensity   *ranges.Range // nil falls back to the primary intensity
	Cooldown    time.Duration
}

// RandomConfig is the configuration of random mode: an unbounded loop over
// a fixed target pool with independently sampled parameters per tick.
type RandomConfig struct {
	Duration  ranges.Range
	Intensity ranges.Range
	Pause     ranges.Range // between ticks, seconds

	// Vibrations fall back to Duration/Intensity unless overridden.
	VibrateDuration  *ranges.Range
	VibrateIntensity *ranges.Range

	Shock   bool
	Vibrate bool

	Spam SpamConfig

	InitDelay     ranges.Range
	MaxRuntime    ranges.Range
	HasMaxRuntime bool
}

// Validate checks the configuration for contradictions before a driver is
// built. Random-mode bursts are shocks, so enabling spam while shocks are
// suppressed is a configuration error, not a trigger-time surprise.
func (c *RandomConfig) Validate() error {
	if !c.Shock && !c.Vibrate {
		return &ConfigError{Field: "shock/vibrate", Msg: "at least one operation kind must be enabled"}
	}

	if c.Spam.Possibility > 0 && !c.Shock {
		return &ConfigError{Field: "spam_possibility", Msg: "spam requires shocks to be enabled"}
	}

	if !c.Spam.Possibility.Valid() {
		return &ConfigError{Field: "spam_possibility", Msg: "must be between 0 and 100"}
	}

	if c.Spam.Cooldown < 0 {
		return &ConfigError{Field: "spam_cooldown", Msg: "must not be negative"}
	}

	return nil
}

// Program returns the driver-facing view of the configuration: a single
// implicit event that is active for the whole run.
func (c *RandomConfig) Program() (Program, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	spec := &TickSpec{
		Sync:  IndependentRandom,
		Break: c.Pause,
	}

	if c.Shock {
		spec.Shock = &OperationSpec{
			Kind:        KindShock,
			Possibility: 100,
			Duration:    c.Duration,
			Intensity:   c.Intensity,
		}
	}

	if c.Vibrate {
		dur := c.Duration
		if c.VibrateDuration != nil {
			dur = *c.VibrateDuration
		}
		intensity := c.Intensity
		if c.VibrateIntensity != nil {
			intensity = *c.VibrateIntensity
		}
		spec.Vibrate = &OperationSpec{
			Kind:        KindVibrate,
			Possibility: 100,
			Duration:    dur,
			Intensity:   intensity,
		}
	}

	if c.Spam.Possibility > 0 {
		intensity := c.Intensity
		if c.Spam.Intensity != nil {
			intensity = *c.Spam.Intensity
		}
		spec.Burst = &BurstSpec{
			OperationSpec: OperationSpec{
				Kind:        KindBurst,
				Possibility: c.Spam.Possibility,
				Duration:    c.Spam.Duration,
				Intensity:   intensity,
			},
			Operations: c.Spam.Operations,
			Delay:      c.Spam.Pause,
		}
	}

	return &randomProgram{cfg: c, spec: spec}, nil
}

// randomProgram adapts a RandomConfig to the Program interface: one
// implicit event that is active on every tick. Random mode runs until the
// max-runtime budget is exhausted, or forever when none is set.
type randomProgram struct {
	cfg  *RandomConfig
	spec *TickSpec
}

func (p *randomProgram) InitDelay() ranges.Range { return p.cfg.InitDelay }

func (p *randomProgram) MaxRuntime() (ranges.Range, bool) {
	return p.cfg.MaxRuntime, p.cfg.HasMaxRuntime
}

func (p *randomProgram) CountIn() (Kind, bool) { return 0, false }

func (p *randomProgram) BurstCooldown() time.Duration { return p.cfg.Spam.Cooldown }

func (p *randomProgram) Advance(time.Duration) Tick { return Tick{Spec: p.spec} }
