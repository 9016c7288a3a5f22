package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/germanamz/zapctl/pkg/zap"
)

// actionFlags are shared by the shock, vibrate and beep subcommands.
type actionFlags struct {
	*commonFlags
	duration  time.Duration
	intensity int
}

func addActionFlags(fs *flag.FlagSet, needIntensity bool) *actionFlags {
	f := &actionFlags{commonFlags: addCommonFlags(fs)}
	fs.DurationVar(&f.duration, "d", time.Second, "duration of the operation")
	if needIntensity {
		fs.IntVar(&f.intensity, "i", -1, "intensity of the operation (0-100, required)")
	}

	return f
}

func runAction(name string, args []string, op zap.Operation) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := addActionFlags(fs, op != zap.Beep)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: zapctl %s [flags] <share code>", name)
	}
	if op != zap.Beep && (f.intensity < 0 || f.intensity > 100) {
		return errors.New("intensity (-i) is required and must be between 0 and 100")
	}

	app, err := newAppContext(f.commonFlags, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sh, err := app.resolveShocker(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	switch op {
	case zap.Shock:
		err = sh.Shock(ctx, f.duration, f.intensity)
	case zap.Vibrate:
		err = sh.Vibrate(ctx, f.duration, f.intensity)
	case zap.Beep:
		err = sh.Beep(ctx, f.duration)
	}
	if err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("%s sent to %s.", opLabel(op), sh.Name())))

	return nil
}

func opLabel(op zap.Operation) string {
	switch op {
	case zap.Shock:
		return "Shock"
	case zap.Vibrate:
		return "Vibration"
	default:
		return "Beep"
	}
}

func runShockCmd(args []string) error {
	return runAction("shock", args, zap.Shock)
}

func runVibrateCmd(args []string) error {
	return runAction("vibrate", args, zap.Vibrate)
}

func runBeepCmd(args []string) error {
	return runAction("beep", args, zap.Beep)
}

func runInfoCmd(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zapctl info [flags] <share code>")
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sh, err := app.resolveShocker(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	info, err := sh.Info(ctx)
	if err != nil {
		return err
	}
	printInfo(info)

	return nil
}

func printInfo(info zap.Info) {
	fmt.Println(headerStyle.Render(info.Name))
	fmt.Printf("  Client ID:  %d\n", info.ClientID)
	fmt.Printf("  Shocker ID: %d\n", info.ShockerID)
	fmt.Printf("  Paused:     %t\n", info.IsPaused)
	if info.MaxIntensity > 0 {
		fmt.Printf("  Max intensity: %d\n", info.MaxIntensity)
	}
	if info.MaxDuration > 0 {
		fmt.Printf("  Max duration:  %ds\n", info.MaxDuration)
	}
}

func runPauseCmd(args []string) error {
	return runPauseUnpause("pause", args, true)
}

func runUnpauseCmd(args []string) error {
	return runPauseUnpause("unpause", args, false)
}

// runPauseUnpause flips the pause state of a shocker. Pausing is only
// supported over the HTTP API.
func runPauseUnpause(name string, args []string, pause bool) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: zapctl %s [flags] <share code>", name)
	}
	if f.serial {
		return errors.New("pausing is only available with the HTTP API")
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sh, err := app.resolveShocker(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	httpShocker, ok := sh.(interface {
		Pause(ctx context.Context, pause bool) error
	})
	if !ok {
		return errors.New("pausing is only available with the HTTP API")
	}

	if err := httpShocker.Pause(ctx, pause); err != nil {
		return err
	}

	verb := "paused"
	if !pause {
		verb = "unpaused"
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("%s %s.", sh.Name(), verb)))

	return nil
}

func runShockersCmd(args []string) error {
	fs := flag.NewFlagSet("shockers", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zapctl shockers [flags] <client ID>")
	}
	clientID, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("client ID must be a number, got %q", fs.Arg(0))
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	api, err := app.ensureHTTP()
	if err != nil {
		return err
	}

	infos, err := api.GetShockers(ctx, clientID)
	if err != nil {
		return err
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s %s", headerStyle.Render(info.Name), dimStyle.Render(fmt.Sprintf("(ID %d)", info.ShockerID)))
		if info.IsPaused {
			line += " " + errorStyle.Render("[paused]")
		}
		fmt.Println(line)
	}

	return nil
}

func runVerifyCmd(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if f.serial {
		return errors.New("credential verification is only available with the HTTP API")
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	api, err := app.ensureHTTP()
	if err != nil {
		return err
	}

	ok, err := api.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid username or API key")
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Credentials for %s are valid.", api.Username())))

	return nil
}
