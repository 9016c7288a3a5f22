package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/germanamz/zapctl/pkg/config"
	"github.com/germanamz/zapctl/pkg/httpapi"
	"github.com/germanamz/zapctl/pkg/serialapi"
	"github.com/germanamz/zapctl/pkg/zap"
	"github.com/germanamz/zapctl/pkg/zapdir"
)

// commonFlags are the flags every API-using subcommand shares.
type commonFlags struct {
	username string
	apiKey   string
	serial   bool
	port     string
	envFile  string
	debug    bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.username, "username", "", "username for the PiShock account (default: $PISHOCK_API_USER or config)")
	fs.StringVar(&f.apiKey, "api-key", "", "API key for the PiShock account (default: $PISHOCK_API_KEY or config)")
	fs.BoolVar(&f.serial, "serial", false, "use the serial interface instead of the HTTP API")
	fs.StringVar(&f.port, "port", "", "serial port to use with --serial (default: autodetect)")
	fs.StringVar(&f.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")

	return f
}

// appContext carries everything a subcommand needs: the resolved config,
// its on-disk location, and exactly one of the two API clients.
type appContext struct {
	dir    zapdir.Dir
	cfg    config.Config
	api    *httpapi.Client
	serial *serialapi.API
	log    zerolog.Logger
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadDotEnv loads environment variables from path. Missing files are
// ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

func newLogger(debug bool) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// newAppContext loads the config and builds the right API client. With
// needCredentials false (init, code list without --info) the HTTP client
// may be nil.
func newAppContext(f *commonFlags, needCredentials bool) (*appContext, error) {
	if err := loadDotEnv(f.envFile); err != nil {
		return nil, err
	}

	dir, err := zapdir.Default()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir.ConfigPath())
	if err != nil {
		return nil, err
	}

	app := &appContext{dir: dir, cfg: cfg, log: newLogger(f.debug)}

	if f.serial {
		api, err := serialapi.Open(f.port, app.log)
		if err != nil {
			var aerr *serialapi.AutodetectError
			if errors.As(err, &aerr) {
				printSerialPorts()
			}
			return nil, err
		}
		app.serial = api

		return app, nil
	}

	if f.port != "" {
		return nil, errors.New("--port is only valid with --serial or the serial subcommand")
	}

	username, apiKey := resolveCredentials(f, cfg)
	if username == "" || apiKey == "" {
		if !needCredentials {
			return app, nil
		}

		return nil, errors.New("no API credentials found; run 'zapctl init', set " +
			"PISHOCK_API_USER and PISHOCK_API_KEY, or pass --username and --api-key")
	}

	app.api = httpapi.NewClient(username, apiKey, httpapi.WithLogger(app.log))

	return app, nil
}

// Close releases the serial port if one is open.
func (a *appContext) Close() {
	if a.serial != nil {
		_ = a.serial.Close()
	}
}

// resolveCredentials picks credentials by priority: explicit flags, then
// environment, then the config file. A lone username or key is ignored.
func resolveCredentials(f *commonFlags, cfg config.Config) (username, apiKey string) {
	username, apiKey = f.username, f.apiKey
	if username == "" && apiKey == "" {
		username = os.Getenv("PISHOCK_API_USER")
		apiKey = os.Getenv("PISHOCK_API_KEY")
	}
	if username == "" && apiKey == "" {
		username = cfg.API.Username
		apiKey = cfg.API.Key
	}

	return username, apiKey
}

func (a *appContext) ensureHTTP() (*httpapi.Client, error) {
	if a.api == nil {
		return nil, errors.New("this command is only available with the HTTP API")
	}

	return a.api, nil
}

func (a *appContext) ensureSerial() (*serialapi.API, error) {
	if a.serial == nil {
		return nil, errors.New("this command is only available with the serial API (--serial)")
	}

	return a.serial, nil
}

// resolveShocker turns a share code argument into a device handle. Over
// HTTP the argument is a saved code name or a raw share code; over serial
// it is a numeric shocker ID.
func (a *appContext) resolveShocker(ctx context.Context, arg string) (zap.Shocker, error) {
	if a.serial != nil {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("shocker ID must be a number with --serial, got %q", arg)
		}

		return a.serial.Shocker(ctx, id)
	}

	api, err := a.ensureHTTP()
	if err != nil {
		return nil, err
	}

	if code, ok := a.cfg.Sharecodes[arg]; ok {
		return api.Shocker(code, arg), nil
	}

	if !httpapi.ValidSharecode(arg) {
		msg := fmt.Sprintf("share code %q not in valid share code format and not found in saved codes", arg)
		if match := closestMatch(arg, a.cfg.CodeNames()); match != "" {
			msg += fmt.Sprintf("; did you mean %q?", match)
		}

		return nil, errors.New(msg)
	}

	return api.Shocker(arg, ""), nil
}

// resolvePool resolves multiple share code arguments.
func (a *appContext) resolvePool(ctx context.Context, args []string) ([]zap.Shocker, error) {
	pool := make([]zap.Shocker, 0, len(args))
	for _, arg := range args {
		sh, err := a.resolveShocker(ctx, arg)
		if err != nil {
			return nil, err
		}
		pool = append(pool, sh)
	}

	return pool, nil
}
