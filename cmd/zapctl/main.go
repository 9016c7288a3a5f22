package main

import (
	"fmt"
	"os"
)

// commands maps subcommand names to their runners. Each runner parses its
// own flag set from args.
var commands = map[string]func(args []string) error{
	"init":     runInitCmd,
	"verify":   runVerifyCmd,
	"shock":    runShockCmd,
	"vibrate":  runVibrateCmd,
	"beep":     runBeepCmd,
	"info":     runInfoCmd,
	"pause":    runPauseCmd,
	"unpause":  runUnpauseCmd,
	"shockers": runShockersCmd,
	"code":     runCodeCmd,
	"random":   runRandomCmd,
	"session":  runSessionCmd,
	"serial":   runSerialCmd,
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: zapctl <command> [flags] [args]

Actions:
  shock <code>      Send a shock to the given share code
  vibrate <code>    Send a vibration to the given share code
  beep <code>       Send a beep to the given share code

Modes:
  random <code>...  Send operations to random shockers
  session           Run or validate a scripted session

Shockers:
  info <code>       Get information about the given shocker
  pause <code>      Pause the given shocker
  unpause <code>    Unpause the given shocker
  shockers <id>     List all shockers for the given client (PiShock) ID

Setup:
  init              Initialize the API credentials
  verify            Verify that the API credentials are correct
  code              Manage saved share codes
  serial            Serial interface commands

Run 'zapctl <command> -h' for command flags. Share code arguments accept a
saved code name or a raw share code; with --serial they take a shocker ID.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "zapctl: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err := cmd(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix(), err)
		os.Exit(1)
	}
}
