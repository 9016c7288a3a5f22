package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/germanamz/zapctl/pkg/serialapi"
)

const serialUsage = `usage: zapctl serial <subcommand> [flags] [args]

Subcommands:
  info                         show device information
  monitor                      stream the serial output
  restart                      restart the device
  add-network <ssid> <pass>    add a WiFi network
  remove-network <ssid>        remove a WiFi network
  try-connect <ssid> <pass>    try connecting to a WiFi network
  ports                        list serial ports on this system
`

func runSerialCmd(args []string) error {
	if len(args) == 0 {
		fmt.Print(serialUsage)
		return errors.New("missing subcommand")
	}

	switch args[0] {
	case "info":
		return runSerialInfo(args[1:])
	case "monitor":
		return runSerialMonitor(args[1:])
	case "restart":
		return runSerialRestart(args[1:])
	case "add-network":
		return runSerialNetwork("add-network", args[1:])
	case "remove-network":
		return runSerialNetwork("remove-network", args[1:])
	case "try-connect":
		return runSerialNetwork("try-connect", args[1:])
	case "ports":
		printSerialPorts()
		return nil
	default:
		fmt.Print(serialUsage)
		return fmt.Errorf("unknown serial subcommand %q", args[0])
	}
}

// openSerial builds a serial-only app context regardless of the --serial
// flag; every serial subcommand implies it.
func openSerial(f *commonFlags) (*appContext, error) {
	f.serial = true
	return newAppContext(f, false)
}

func runSerialInfo(args []string) error {
	fs := flag.NewFlagSet("serial info", flag.ExitOnError)
	f := addCommonFlags(fs)
	showPasswords := fs.Bool("show-passwords", false, "show WiFi passwords in clear text")
	raw := fs.Bool("raw", false, "print the raw JSON info payload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openSerial(f)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	info, err := app.serial.Info(ctx)
	if err != nil {
		return err
	}

	if *raw {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printDeviceInfo(app.serial.PortName(), info, *showPasswords)

	return nil
}

func printDeviceInfo(port string, info serialapi.DeviceInfo, showPasswords bool) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("PiShock on %s", port)))
	fmt.Printf("  Firmware:  %s (%s)\n", info.Version, info.Type)
	fmt.Printf("  Client ID: %d\n", info.ClientID)
	fmt.Printf("  WiFi:      %s (connected: %t, internet: %t)\n", info.WiFi, info.Connected, info.Internet)
	fmt.Printf("  Server:    %s\n", info.Server)
	fmt.Printf("  MAC:       %s\n", info.MacAddress)
	fmt.Printf("  Claimed:   %t\n", info.Claimed)

	if len(info.Shockers) > 0 {
		fmt.Println("  Shockers:")
		for _, sh := range info.Shockers {
			line := fmt.Sprintf("    %d", sh.ID)
			if sh.Paused {
				line += " " + errorStyle.Render("[paused]")
			}
			fmt.Println(line)
		}
	}

	if len(info.Networks) > 0 {
		fmt.Println("  Networks:")
		for _, n := range info.Networks {
			password := "********"
			if showPasswords {
				password = n.Password
			}
			fmt.Printf("    %s %s\n", n.SSID, dimStyle.Render(password))
		}
	}
}

func runSerialMonitor(args []string) error {
	fs := flag.NewFlagSet("serial monitor", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openSerial(f)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(dimStyle.Render(fmt.Sprintf("Monitoring %s, Ctrl+C to stop.", app.serial.PortName())))

	err = app.serial.Monitor(ctx, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func runSerialRestart(args []string) error {
	fs := flag.NewFlagSet("serial restart", flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openSerial(f)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.serial.Restart(); err != nil {
		return err
	}

	fmt.Println(okStyle.Render("Restart command sent."))

	return nil
}

func runSerialNetwork(name string, args []string) error {
	fs := flag.NewFlagSet("serial "+name, flag.ExitOnError)
	f := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	wantArgs := 2
	if name == "remove-network" {
		wantArgs = 1
	}
	if fs.NArg() != wantArgs {
		if wantArgs == 1 {
			return fmt.Errorf("usage: zapctl serial %s <ssid>", name)
		}
		return fmt.Errorf("usage: zapctl serial %s <ssid> <password>", name)
	}

	app, err := openSerial(f)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	switch name {
	case "add-network":
		if err := app.serial.AddNetwork(fs.Arg(0), fs.Arg(1)); err != nil {
			return err
		}
		// The device acknowledges network changes by re-emitting its info.
		info, err := app.serial.WaitInfo(ctx)
		if err != nil {
			return err
		}
		printDeviceInfo(app.serial.PortName(), info, false)
	case "remove-network":
		if err := app.serial.RemoveNetwork(fs.Arg(0)); err != nil {
			return err
		}
		info, err := app.serial.WaitInfo(ctx)
		if err != nil {
			return err
		}
		printDeviceInfo(app.serial.PortName(), info, false)
	case "try-connect":
		if err := app.serial.TryConnect(fs.Arg(0), fs.Arg(1)); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Connect command sent."))
	}

	return nil
}
