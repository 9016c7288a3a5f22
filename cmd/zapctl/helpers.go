package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/pmezard/go-difflib/difflib"
	"go.bug.st/serial/enumerator"

	"github.com/germanamz/zapctl/pkg/serialapi"
)

// closeMatchCutoff is the minimum similarity ratio for a "did you mean"
// suggestion.
const closeMatchCutoff = 0.6

// mdRenderer renders markdown to terminal-formatted output.
var mdRenderer *glamour.TermRenderer

func initMarkdownRenderer(width int) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	mdRenderer = r
}

// renderMarkdown converts markdown text to terminal-formatted output.
func renderMarkdown(text string) string {
	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// closestMatch returns the candidate most similar to s, or "" when no
// candidate is similar enough.
func closestMatch(s string, candidates []string) string {
	best := ""
	bestRatio := closeMatchCutoff
	a := strings.Split(strings.ToLower(s), "")
	for _, cand := range candidates {
		b := strings.Split(strings.ToLower(cand), "")
		ratio := difflib.NewMatcher(a, b).Ratio()
		if ratio >= bestRatio {
			best = cand
			bestRatio = ratio
		}
	}

	return best
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	min := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", min, sec)
}

// printSerialPorts lists serial ports on the system, marking the ones
// whose USB IDs look like a PiShock.
func printSerialPorts() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil || len(ports) == 0 {
		return
	}

	fmt.Println(headerStyle.Render("Available serial ports:"))
	for _, p := range ports {
		line := "  " + p.Name
		if p.IsUSB {
			line += dimStyle.Render(fmt.Sprintf(" (USB %s:%s)", p.VID, p.PID))
			if serialapi.IsMaybePiShock(p.VID, p.PID) {
				line += " " + okStyle.Render("<- this might be a PiShock")
			}
		}
		fmt.Println(line)
	}
}
