package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/germanamz/zapctl/pkg/sched"
)

// renderEvents prints driver events as plain log lines until the
// subscription channel closes. Meant to run in its own goroutine.
func renderEvents(sub *sched.Subscription) {
	for e := range sub.C {
		if line := eventLine(e); line != "" {
			fmt.Println(line)
		}
	}
}

// eventLine formats one driver event for display. Sleep events render
// empty so a long schedule does not scroll the terminal with waits.
func eventLine(e sched.Event) string {
	stamp := dimStyle.Render(fmt.Sprintf("[%8s]", fmtDuration(e.Elapsed)))

	switch e.Kind {
	case sched.EventStateChange:
		data := e.Data.(sched.StateChangeData)
		return fmt.Sprintf("%s %s", stamp, dimStyle.Render(data.To.String()))
	case sched.EventCountIn:
		data := e.Data.(sched.OpData)
		return fmt.Sprintf("%s %s %s", stamp, beepStyle.Render("count-in"), data.Op.Kind)
	case sched.EventOpStart:
		data := e.Data.(sched.OpData)
		label := opStyle(data.Op.Kind).Render(data.Op.Kind.String())
		detail := fmt.Sprintf("%s for %s", data.Target, fmtDuration(data.Op.Duration))
		if data.Op.Kind != sched.KindBeep {
			detail += fmt.Sprintf(" at %d%%", data.Op.Intensity)
		}
		return fmt.Sprintf("%s %s %s", stamp, label, detail)
	case sched.EventBurstStart:
		data := e.Data.(sched.BurstData)
		return fmt.Sprintf("%s %s %d shocks", stamp, burstStyle.Render("spam"), data.Count)
	case sched.EventBurstEnd:
		return fmt.Sprintf("%s %s", stamp, burstStyle.Render("spam over"))
	case sched.EventError:
		err, _ := e.Data.(error)
		if err == nil {
			return ""
		}
		return fmt.Sprintf("%s %s %v", stamp, errorStyle.Render("error"), err)
	default:
		return ""
	}
}

func opStyle(k sched.Kind) interface{ Render(...string) string } {
	switch k {
	case sched.KindShock:
		return shockStyle
	case sched.KindVibrate:
		return vibrateStyle
	default:
		return beepStyle
	}
}

// runModel is the bubbletea model behind --ui: a spinner, the current
// driver state, and a short tail of recent events.
type runModel struct {
	sub     *sched.Subscription
	spinner spinner.Model
	state   sched.State
	lines   []string
	width   int
	done    bool
	err     error
}

const runModelTail = 8

func newRunModel(sub *sched.Subscription) runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return runModel{sub: sub, spinner: sp, width: 80}
}

// eventMsg wraps a driver event for the tea runtime. closedMsg signals the
// bus shut down, which means the run finished.
type eventMsg sched.Event

type closedMsg struct{}

func waitEvent(sub *sched.Subscription) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-sub.C
		if !ok {
			return closedMsg{}
		}
		return eventMsg(e)
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitEvent(m.sub))
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case eventMsg:
		e := sched.Event(msg)
		if e.Kind == sched.EventStateChange {
			m.state = e.Data.(sched.StateChangeData).To
		}
		if e.Kind == sched.EventError {
			if err, ok := e.Data.(error); ok {
				m.err = err
			}
		}
		if line := eventLine(e); line != "" {
			m.lines = append(m.lines, line)
			if len(m.lines) > runModelTail {
				m.lines = m.lines[len(m.lines)-runModelTail:]
			}
		}
		return m, waitEvent(m.sub)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m runModel) View() string {
	var sb strings.Builder
	for _, line := range m.lines {
		sb.WriteString(runewidth.Truncate(line, m.width, "…"))
		sb.WriteString("\n")
	}
	if m.err != nil {
		sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	}
	if !m.done {
		sb.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), dimStyle.Render(m.state.String())))
		sb.WriteString("\n")
	}
	return sb.String()
}
