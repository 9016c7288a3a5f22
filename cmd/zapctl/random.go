package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/zapctl/pkg/ranges"
	"github.com/germanamz/zapctl/pkg/sched"
	"github.com/germanamz/zapctl/pkg/zap"
)

// rangeFlag is a flag.Value that parses "N" or "N-M" range expressions.
type rangeFlag struct {
	value ranges.Range
	set   bool
	parse func(string) (ranges.Range, error)
}

func newRangeFlag(def ranges.Range, parse func(string) (ranges.Range, error)) *rangeFlag {
	return &rangeFlag{value: def, parse: parse}
}

func (f *rangeFlag) String() string {
	return f.value.String()
}

func (f *rangeFlag) Set(s string) error {
	r, err := f.parse(s)
	if err != nil {
		return err
	}
	f.value = r
	f.set = true

	return nil
}

// parseCount reads a non-negative plain integer range.
func parseCount(expr string) (ranges.Range, error) {
	return ranges.Parse(expr, 0, -1, ranges.Atoi)
}

func runRandomCmd(args []string) error {
	fs := flag.NewFlagSet("random", flag.ExitOnError)
	f := addCommonFlags(fs)

	duration := newRangeFlag(ranges.Scalar(1), ranges.ParseSeconds)
	intensity := newRangeFlag(ranges.Scalar(30), ranges.ParseIntensity)
	pause := newRangeFlag(ranges.Range{Min: 10, Max: 30}, ranges.ParseSeconds)
	initDelay := newRangeFlag(ranges.Scalar(0), ranges.ParseSeconds)
	maxRuntime := newRangeFlag(ranges.Scalar(0), ranges.ParseSeconds)
	vibrateDuration := newRangeFlag(ranges.Range{}, ranges.ParseSeconds)
	vibrateIntensity := newRangeFlag(ranges.Range{}, ranges.ParseIntensity)
	spamPossibility := fs.Int("spam-possibility", 0, "chance of a spam burst per tick (0-100%)")
	spamOperations := newRangeFlag(ranges.Range{Min: 5, Max: 25}, parseCount)
	spamPause := newRangeFlag(ranges.Scalar(0), ranges.ParseSeconds)
	spamDuration := newRangeFlag(ranges.Scalar(1), ranges.ParseSeconds)
	spamIntensity := newRangeFlag(ranges.Range{}, ranges.ParseIntensity)
	spamCooldown := fs.Duration("spam-cooldown", 0, "minimum time between spam bursts")
	shock := fs.Bool("shock", true, "deliver shocks")
	vibrate := fs.Bool("vibrate", false, "deliver vibrations")
	ui := fs.Bool("ui", false, "show a live TUI instead of plain log lines")

	fs.Var(duration, "d", "duration of each operation in seconds (N or N-M)")
	fs.Var(intensity, "i", "intensity of each operation in percent (N or N-M)")
	fs.Var(pause, "p", "pause between operations in seconds (N or N-M)")
	fs.Var(initDelay, "init-delay", "initial delay before the first operation (N or N-M seconds)")
	fs.Var(maxRuntime, "max-runtime", "stop after this much runtime (N or N-M seconds, 0 = run forever)")
	fs.Var(vibrateDuration, "vibrate-duration", "duration for vibrations (default: -d)")
	fs.Var(vibrateIntensity, "vibrate-intensity", "intensity for vibrations (default: -i)")
	fs.Var(spamOperations, "spam-operations", "operations per spam burst (N or N-M)")
	fs.Var(spamPause, "spam-pause", "pause between spam operations in seconds (N or N-M)")
	fs.Var(spamDuration, "spam-duration", "duration of spam operations in seconds (N or N-M)")
	fs.Var(spamIntensity, "spam-intensity", "intensity of spam operations (default: -i)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: zapctl random [flags] <share code>...")
	}

	cfg := &sched.RandomConfig{
		Duration:  duration.value,
		Intensity: intensity.value,
		Pause:     pause.value,
		Shock:     *shock,
		Vibrate:   *vibrate,
		InitDelay: initDelay.value,
		Spam: sched.SpamConfig{
			Possibility: ranges.Possibility(*spamPossibility),
			Operations:  spamOperations.value,
			Pause:       spamPause.value,
			Duration:    spamDuration.value,
			Cooldown:    *spamCooldown,
		},
	}
	if vibrateDuration.set {
		cfg.VibrateDuration = &vibrateDuration.value
	}
	if vibrateIntensity.set {
		cfg.VibrateIntensity = &vibrateIntensity.value
	}
	if spamIntensity.set {
		cfg.Spam.Intensity = &spamIntensity.value
	}
	if maxRuntime.set {
		cfg.MaxRuntime = maxRuntime.value
		cfg.HasMaxRuntime = true
	}

	program, err := cfg.Program()
	if err != nil {
		return err
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := app.resolvePool(ctx, fs.Args())
	if err != nil {
		return err
	}

	if !cfg.HasMaxRuntime {
		fmt.Println(dimStyle.Render("No --max-runtime set, running until interrupted (Ctrl+C)."))
	}

	return runDriver(ctx, app, pool, program, *ui)
}

// runDriver wires a driver to the chosen renderer and runs it to
// completion. A cancelled context (Ctrl+C, or quitting the TUI) is a
// normal exit, not an error.
func runDriver(ctx context.Context, app *appContext, pool []zap.Shocker, program sched.Program, ui bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	driver := &sched.Driver{
		Pool:    pool,
		Program: program,
		Log:     app.log,
	}
	bus := driver.Events()
	sub := bus.Subscribe(256)

	var err error
	if ui {
		model := newRunModel(sub)
		p := tea.NewProgram(model, tea.WithContext(ctx))

		errCh := make(chan error, 1)
		go func() {
			errCh <- driver.Run(ctx)
			bus.Unsubscribe(sub)
		}()

		if _, uiErr := p.Run(); uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
			cancel()
			<-errCh
			return uiErr
		}

		// Quitting the TUI stops the run.
		cancel()
		err = <-errCh
	} else {
		done := make(chan struct{})
		go func() {
			renderEvents(sub)
			close(done)
		}()

		err = driver.Run(ctx)
		bus.Unsubscribe(sub)
		<-done
	}

	if errors.Is(err, context.Canceled) {
		fmt.Println(dimStyle.Render("Interrupted."))
		return nil
	}

	return err
}
