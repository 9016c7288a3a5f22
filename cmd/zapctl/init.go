package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/germanamz/zapctl/pkg/httpapi"
	"github.com/germanamz/zapctl/pkg/zapdir"
)

func runInitCmd(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	f := addCommonFlags(fs)
	force := fs.Bool("force", false, "overwrite existing credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newAppContext(f, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.cfg.HasCredentials() && !*force {
		return fmt.Errorf("credentials already configured in %s, use --force to overwrite",
			app.dir.ConfigPath())
	}

	username := app.cfg.API.Username
	apiKey := app.cfg.API.Key
	err = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("PiShock username").
			Description("The username you log into pishock.com with.").
			Value(&username).
			Validate(notEmpty),
		huh.NewInput().
			Title("API key").
			Description("Generated on the pishock.com account page.").
			EchoMode(huh.EchoModePassword).
			Value(&apiKey).
			Validate(notEmpty),
	)).Run()
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	apiKey = strings.TrimSpace(apiKey)

	ctx, cancel := signalContext()
	defer cancel()

	api := httpapi.NewClient(username, apiKey, httpapi.WithLogger(app.log))
	ok, err := api.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid username or API key, nothing saved")
	}

	if err := zapdir.EnsureStructure(app.dir); err != nil {
		return err
	}

	app.cfg.API.Username = username
	app.cfg.API.Key = apiKey
	if err := saveConfig(app); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Credentials saved to %s.", app.dir.ConfigPath())))

	return nil
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}

	return nil
}
