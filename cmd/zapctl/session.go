package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/germanamz/zapctl/pkg/httpapi"
	"github.com/germanamz/zapctl/pkg/sched"
	"github.com/germanamz/zapctl/pkg/zapdir"
)

const sessionUsage = `usage: zapctl session <subcommand> [flags] [args]

Subcommands:
  run <file>       run a session definition
  validate <file>  validate a session definition and print its plan
  list             list session files in the sessions directory
`

func runSessionCmd(args []string) error {
	if len(args) == 0 {
		fmt.Print(sessionUsage)
		return errors.New("missing subcommand")
	}

	switch args[0] {
	case "run":
		return runSessionRun(args[1:])
	case "validate":
		return runSessionValidate(args[1:])
	case "list":
		return runSessionList(args[1:])
	default:
		fmt.Print(sessionUsage)
		return fmt.Errorf("unknown session subcommand %q", args[0])
	}
}

// knownShockerNames returns the names a session may target: saved code
// names, plus raw share codes (HTTP) or numeric shocker IDs (serial),
// which resolve without being saved first.
func knownShockerNames(app *appContext, s *sched.Session) []string {
	known := app.cfg.CodeNames()
	for _, name := range s.ShockerNames {
		if slices.Contains(known, name) {
			continue
		}
		if app.serial != nil {
			if _, err := strconv.Atoi(name); err == nil {
				known = append(known, name)
			}
			continue
		}
		if httpapi.ValidSharecode(name) {
			known = append(known, name)
		}
	}

	return known
}

// resolveSessionPath accepts a direct path or the name of a file in the
// sessions directory (with or without extension).
func resolveSessionPath(dir zapdir.Dir, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}

	candidates := []string{
		filepath.Join(dir.SessionsDir(), arg),
		filepath.Join(dir.SessionsDir(), arg+".yaml"),
		filepath.Join(dir.SessionsDir(), arg+".yml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	msg := fmt.Sprintf("session file %q not found", arg)
	names := make([]string, 0)
	for _, f := range dir.SessionFiles() {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		names = append(names, name)
	}
	if match := closestMatch(arg, names); match != "" {
		msg += fmt.Sprintf("; did you mean %q?", match)
	}

	return "", errors.New(msg)
}

func runSessionRun(args []string) error {
	fs := flag.NewFlagSet("session run", flag.ExitOnError)
	f := addCommonFlags(fs)
	ui := fs.Bool("ui", false, "show a live TUI instead of plain log lines")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zapctl session run [flags] <file>")
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	path, err := resolveSessionPath(app.dir, fs.Arg(0))
	if err != nil {
		return err
	}

	session, err := sched.LoadSession(path)
	if err != nil {
		return err
	}
	if err := session.ResolveNames(knownShockerNames(app, session)); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := app.resolvePool(ctx, session.ShockerNames)
	if err != nil {
		return err
	}

	return runDriver(ctx, app, pool, session.Program(), *ui)
}

func runSessionValidate(args []string) error {
	fs := flag.NewFlagSet("session validate", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zapctl session validate <file>")
	}

	app, err := newAppContext(f, false)
	if err != nil {
		return err
	}
	defer app.Close()

	path, err := resolveSessionPath(app.dir, fs.Arg(0))
	if err != nil {
		return err
	}

	session, err := sched.LoadSession(path)
	if err != nil {
		return err
	}
	if err := session.ResolveNames(knownShockerNames(app, session)); err != nil {
		return err
	}

	initMarkdownRenderer(100)
	fmt.Println(renderMarkdown(sessionPlan(path, session)))

	return nil
}

func runSessionList(args []string) error {
	fs := flag.NewFlagSet("session list", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newAppContext(f, false)
	if err != nil {
		return err
	}
	defer app.Close()

	files := app.dir.SessionFiles()
	if len(files) == 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("No session files in %s.", app.dir.SessionsDir())))
		return nil
	}

	sort.Strings(files)
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		line := fmt.Sprintf("%s %s", headerStyle.Render(name), dimStyle.Render(file))
		if _, err := sched.LoadSession(file); err != nil {
			line += " " + errorStyle.Render("[invalid]")
		}
		fmt.Println(line)
	}

	return nil
}

// sessionPlan renders a session timeline as markdown.
func sessionPlan(path string, s *sched.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session plan: %s\n\n", filepath.Base(path))
	fmt.Fprintf(&sb, "Shockers: %s\n\n", strings.Join(s.ShockerNames, ", "))

	if s.InitDelay.Max > 0 {
		fmt.Fprintf(&sb, "- Initial delay: %s seconds\n", s.InitDelay)
	}
	if s.HasCountIn {
		fmt.Fprintf(&sb, "- Count-in: 3 %ss before the first event\n", s.CountIn)
	}
	if s.HasMaxRuntime {
		fmt.Fprintf(&sb, "- Maximum runtime: %s seconds\n", s.MaxRuntime)
	}
	if s.SpamCooldown > 0 {
		fmt.Fprintf(&sb, "- Spam cooldown: %s\n", s.SpamCooldown)
	}
	sb.WriteString("\n## Timeline\n\n")

	for _, ev := range s.Events {
		fmt.Fprintf(&sb, "### %s\n\n", fmtDuration(ev.At))
		fmt.Fprintf(&sb, "- Targets: %s, break %s seconds\n", ev.Sync, ev.Break)
		if ev.Beep != nil {
			fmt.Fprintf(&sb, "- Beep: %s\n", opSpecSummary(ev.Beep))
		}
		if ev.Vibrate != nil {
			fmt.Fprintf(&sb, "- Vibrate: %s\n", opSpecSummary(ev.Vibrate))
		}
		if ev.Shock != nil {
			fmt.Fprintf(&sb, "- Shock: %s\n", opSpecSummary(ev.Shock))
		}
		if ev.Burst != nil {
			fmt.Fprintf(&sb, "- Spam: %s, %s operations, %s seconds between them\n",
				opSpecSummary(&ev.Burst.OperationSpec), ev.Burst.Operations, ev.Burst.Delay)
		}
		if ev.Beep == nil && ev.Vibrate == nil && ev.Shock == nil && ev.Burst == nil {
			sb.WriteString("- No operations (rest)\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func opSpecSummary(op *sched.OperationSpec) string {
	s := fmt.Sprintf("%d%% chance, %s seconds", op.Possibility, op.Duration)
	if op.Kind != sched.KindBeep {
		s += fmt.Sprintf(" at %s%% intensity", op.Intensity)
	}

	return s
}
