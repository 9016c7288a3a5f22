package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/germanamz/zapctl/pkg/config"
	"github.com/germanamz/zapctl/pkg/httpapi"
)

const codeUsage = `usage: zapctl code <subcommand> [flags] [args]

Subcommands:
  add <name> <share code>   save a share code under a name
  del <name>                delete a saved share code
  rename <old> <new>        rename a saved share code
  list                      list saved share codes

Flags:
  --force   overwrite an existing entry (add, rename)
  --info    fetch shocker information for each code (list)
`

func runCodeCmd(args []string) error {
	if len(args) == 0 {
		fmt.Print(codeUsage)
		return errors.New("missing subcommand")
	}

	switch args[0] {
	case "add":
		return runCodeAdd(args[1:])
	case "del":
		return runCodeDel(args[1:])
	case "rename":
		return runCodeRename(args[1:])
	case "list":
		return runCodeList(args[1:])
	default:
		fmt.Print(codeUsage)
		return fmt.Errorf("unknown code subcommand %q", args[0])
	}
}

func runCodeAdd(args []string) error {
	fs := flag.NewFlagSet("code add", flag.ExitOnError)
	f := addCommonFlags(fs)
	force := fs.Bool("force", false, "overwrite an existing entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: zapctl code add [flags] <name> <share code>")
	}
	name, code := fs.Arg(0), fs.Arg(1)

	if !httpapi.ValidSharecode(code) {
		return fmt.Errorf("%q is not a valid share code", code)
	}

	app, err := newAppContext(f, true)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, exists := app.cfg.Sharecodes[name]; exists && !*force {
		return fmt.Errorf("name %q already exists, use --force to overwrite", name)
	}

	ctx, cancel := signalContext()
	defer cancel()

	api, err := app.ensureHTTP()
	if err != nil {
		return err
	}

	// Hitting the API confirms the code actually resolves to a shocker
	// before it gets saved.
	info, err := api.Shocker(code, name).Info(ctx)
	if err != nil {
		return fmt.Errorf("could not verify share code %s: %w", code, err)
	}

	app.cfg.Sharecodes[name] = code
	if err := saveConfig(app); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Saved %s as %q (shocker ID %d).", code, name, info.ShockerID)))

	return nil
}

func runCodeDel(args []string) error {
	fs := flag.NewFlagSet("code del", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zapctl code del <name>")
	}
	name := fs.Arg(0)

	app, err := newAppContext(f, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, ok := app.cfg.Sharecodes[name]; !ok {
		return unknownCodeError(name, app.cfg)
	}

	delete(app.cfg.Sharecodes, name)
	if err := saveConfig(app); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Deleted %q.", name)))

	return nil
}

func runCodeRename(args []string) error {
	fs := flag.NewFlagSet("code rename", flag.ExitOnError)
	f := addCommonFlags(fs)
	force := fs.Bool("force", false, "overwrite an existing entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: zapctl code rename [flags] <old> <new>")
	}
	oldName, newName := fs.Arg(0), fs.Arg(1)
	if oldName == newName {
		return errors.New("the old and new name are the same")
	}

	app, err := newAppContext(f, false)
	if err != nil {
		return err
	}
	defer app.Close()

	code, ok := app.cfg.Sharecodes[oldName]
	if !ok {
		return unknownCodeError(oldName, app.cfg)
	}
	if _, exists := app.cfg.Sharecodes[newName]; exists && !*force {
		return fmt.Errorf("name %q already exists, use --force to overwrite", newName)
	}

	delete(app.cfg.Sharecodes, oldName)
	app.cfg.Sharecodes[newName] = code
	if err := saveConfig(app); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Renamed %q to %q.", oldName, newName)))

	return nil
}

func runCodeList(args []string) error {
	fs := flag.NewFlagSet("code list", flag.ExitOnError)
	f := addCommonFlags(fs)
	withInfo := fs.Bool("info", false, "fetch shocker information for each code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newAppContext(f, *withInfo)
	if err != nil {
		return err
	}
	defer app.Close()

	names := app.cfg.CodeNames()
	if len(names) == 0 {
		fmt.Println(dimStyle.Render("No saved share codes."))
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, name := range names {
		code := app.cfg.Sharecodes[name]
		line := fmt.Sprintf("%s %s", headerStyle.Render(name), dimStyle.Render(code))
		if *withInfo {
			api, err := app.ensureHTTP()
			if err != nil {
				return err
			}
			info, err := api.Shocker(code, name).Info(ctx)
			if err != nil {
				line += " " + errorStyle.Render(err.Error())
			} else {
				line += fmt.Sprintf(" (shocker ID %d", info.ShockerID)
				if info.IsPaused {
					line += ", paused"
				}
				line += ")"
			}
		}
		fmt.Println(line)
	}

	return nil
}

func unknownCodeError(name string, cfg config.Config) error {
	msg := fmt.Sprintf("no saved share code named %q", name)
	if match := closestMatch(name, cfg.CodeNames()); match != "" {
		msg += fmt.Sprintf("; did you mean %q?", match)
	}

	return errors.New(msg)
}

func saveConfig(app *appContext) error {
	return app.cfg.Save(app.dir.ConfigPath())
}
