package sched

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/germanamz/zapctl/pkg/ranges"
)

// Session file defaults, mirrored from the documented format.
const (
	defaultBreakDuration = "1-10"
	defaultSyncMode      = "random-shocker"
)

// EventDef is one time-anchored event of a session: the spec set that is
// active from its anchor until the next event's anchor.
type EventDef struct {
	At time.Duration // elapsed-time anchor from session start
	TickSpec
}

// Session is a finite, declaratively scripted timeline. It is immutable
// once built; one Session can drive any number of runs.
type Session struct {
	ShockerNames []string
	Events       []EventDef

	InitDelay     ranges.Range
	MaxRuntime    ranges.Range
	HasMaxRuntime bool
	SpamCooldown  time.Duration
	CountIn       Kind
	HasCountIn    bool
}

// flexScalar accepts both YAML numbers and strings, so "time: 60" and
// "time: 1m" both work (the session format allows either).
type flexScalar string

func (f *flexScalar) UnmarshalYAML(node *yaml.Node) error {
	*f = flexScalar(node.Value)
	return nil
}

// opBlock is the raw per-kind sub-object of a session event.
type opBlock struct {
	Possibility *int       `yaml:"possibility"`
	Duration    flexScalar `yaml:"duration"`
	Intensity   flexScalar `yaml:"intensity"`
	Operations  flexScalar `yaml:"operations"` // spam only
	Delay       flexScalar `yaml:"delay"`      // spam only
}

// eventNode is the raw shape of one session event.
type eventNode struct {
	Time          flexScalar `yaml:"time"`
	SyncMode      string     `yaml:"sync_mode"`
	BreakDuration flexScalar `yaml:"break_duration"`
	Vibrate       *opBlock   `yaml:"vibrate"`
	Shock         *opBlock   `yaml:"shock"`
	Beep          *opBlock   `yaml:"beep"`
	Spam          *opBlock   `yaml:"spam"`
}

// sessionNode is the raw shape of a session definition file.
type sessionNode struct {
	ShockerNames []string    `yaml:"shocker_names"`
	MaxRuntime   flexScalar  `yaml:"max_runtime"`
	InitDelay    flexScalar  `yaml:"init_delay"`
	SpamCooldown flexScalar  `yaml:"spam_cooldown"`
	CountInMode  string      `yaml:"count_in_mode"`
	Events       []eventNode `yaml:"events"`
}

// LoadSession reads and validates a session definition file. YAML and JSON
// both parse (the file format is YAML, of which JSON is a subset). Any
// static violation fails with a *ValidationError naming the offending
// event and field; a driver never starts from an invalid session.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sched: load session: %w", err)
	}

	return ParseSession(data)
}

// ParseSession builds a Session from raw file contents.
func ParseSession(data []byte) (*Session, error) {
	var node sessionNode
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("sched: parse session: %w", err)
	}

	return buildSession(&node)
}

func buildSession(node *sessionNode) (*Session, error) {
	s := &Session{ShockerNames: node.ShockerNames}

	if len(node.ShockerNames) == 0 {
		return nil, sessionErr("shocker_names", "must not be empty")
	}

	if node.MaxRuntime != "" {
		r, err := ranges.ParseSeconds(string(node.MaxRuntime))
		if err != nil {
			return nil, sessionErr("max_runtime", err.Error())
		}
		if r.Max <= 0 {
			return nil, sessionErr("max_runtime", "must be positive")
		}
		s.MaxRuntime = r
		s.HasMaxRuntime = true
	}

	if node.InitDelay != "" {
		r, err := ranges.ParseSeconds(string(node.InitDelay))
		if err != nil {
			return nil, sessionErr("init_delay", err.Error())
		}
		s.InitDelay = r
	}

	if node.SpamCooldown != "" {
		secs, err := ranges.ParseDuration(string(node.SpamCooldown))
		if err != nil {
			return nil, sessionErr("spam_cooldown", err.Error())
		}
		if secs < 0 {
			return nil, sessionErr("spam_cooldown", "must not be negative")
		}
		s.SpamCooldown = time.Duration(secs) * time.Second
	}

	switch node.CountInMode {
	case "":
	case "beep":
		s.CountIn, s.HasCountIn = KindBeep, true
	case "vibrate":
		s.CountIn, s.HasCountIn = KindVibrate, true
	default:
		return nil, sessionErr("count_in_mode", fmt.Sprintf("must be beep or vibrate, not %q", node.CountInMode))
	}

	if len(node.Events) == 0 {
		return nil, sessionErr("events", "must not be empty")
	}

	prev := time.Duration(-1)
	for i := range node.Events {
		ev, err := buildEvent(i, &node.Events[i])
		if err != nil {
			return nil, err
		}

		if ev.At <= prev {
			return nil, eventErr(i, "time", "anchors must be strictly increasing and non-negative")
		}
		prev = ev.At

		s.Events = append(s.Events, *ev)
	}

	return s, nil
}

func buildEvent(idx int, node *eventNode) (*EventDef, error) {
	ev := &EventDef{}

	if node.Time == "" {
		return nil, eventErr(idx, "time", "is required")
	}

	secs, err := ranges.ParseDuration(string(node.Time))
	if err != nil {
		return nil, eventErr(idx, "time", err.Error())
	}
	if secs < 0 {
		return nil, eventErr(idx, "time", "must not be negative")
	}
	ev.At = time.Duration(secs) * time.Second

	syncName := node.SyncMode
	if syncName == "" {
		syncName = defaultSyncMode
	}
	mode, err := ParseSyncMode(syncName)
	if err != nil {
		return nil, eventErr(idx, "sync_mode", err.Error())
	}
	ev.Sync = mode

	breakExpr := string(node.BreakDuration)
	if breakExpr == "" {
		breakExpr = defaultBreakDuration
	}
	br, err := ranges.ParseSeconds(breakExpr)
	if err != nil {
		return nil, eventErr(idx, "break_duration", err.Error())
	}
	ev.Break = br

	if node.Vibrate != nil {
		op, err := buildOpSpec(idx, "vibrate", KindVibrate, node.Vibrate)
		if err != nil {
			return nil, err
		}
		ev.Vibrate = op
	}

	if node.Shock != nil {
		op, err := buildOpSpec(idx, "shock", KindShock, node.Shock)
		if err != nil {
			return nil, err
		}
		ev.Shock = op
	}

	if node.Beep != nil {
		op, err := buildOpSpec(idx, "beep", KindBeep, node.Beep)
		if err != nil {
			return nil, err
		}
		ev.Beep = op
	}

	if node.Spam != nil {
		op, err := buildOpSpec(idx, "spam", KindBurst, node.Spam)
		if err != nil {
			return nil, err
		}

		if node.Spam.Operations == "" {
			return nil, eventErr(idx, "spam.operations", "is required")
		}
		count, err := ranges.Parse(string(node.Spam.Operations), 1, -1, ranges.Atoi)
		if err != nil {
			return nil, eventErr(idx, "spam.operations", err.Error())
		}

		if node.Spam.Delay == "" {
			return nil, eventErr(idx, "spam.delay", "is required")
		}
		delay, err := ranges.ParseSeconds(string(node.Spam.Delay))
		if err != nil {
			return nil, eventErr(idx, "spam.delay", err.Error())
		}

		ev.Burst = &BurstSpec{
			OperationSpec: *op,
			Operations:    count,
			Delay:         delay,
		}
	}

	return ev, nil
}

// buildOpSpec converts a raw per-kind block. Duration is required for
// every kind, intensity for everything but beep. A present block with no
// possibility defaults to 100; an absent block means "not configured",
// which is a different thing entirely.
func buildOpSpec(idx int, field string, kind Kind, node *opBlock) (*OperationSpec, error) {
	op := &OperationSpec{Kind: kind, Possibility: 100}

	if node.Possibility != nil {
		p := ranges.Possibility(*node.Possibility)
		if !p.Valid() {
			return nil, eventErr(idx, field+".possibility", "must be between 0 and 100")
		}
		op.Possibility = p
	}

	if node.Duration == "" {
		return nil, eventErr(idx, field+".duration", "is required")
	}
	dur, err := ranges.ParseSeconds(string(node.Duration))
	if err != nil {
		return nil, eventErr(idx, field+".duration", err.Error())
	}
	op.Duration = dur

	if kind != KindBeep {
		if node.Intensity == "" {
			return nil, eventErr(idx, field+".intensity", "is required")
		}
		intensity, err := ranges.ParseIntensity(string(node.Intensity))
		if err != nil {
			return nil, eventErr(idx, field+".intensity", err.Error())
		}
		op.Intensity = intensity
	}

	return op, nil
}

// sessionProgram walks a Session's timeline. Each event triggers exactly
// once; when a long pause overruns several anchors, only the latest
// overrun event (the active one) fires and the skipped ones are dropped.
type sessionProgram struct {
	s      *Session
	cursor int
}

// Program returns a fresh driver-facing view of the session. Programs
// carry per-run cursor state, so each driver run needs its own.
func (s *Session) Program() Program { return &sessionProgram{s: s} }

func (p *sessionProgram) InitDelay() ranges.Range { return p.s.InitDelay }

func (p *sessionProgram) MaxRuntime() (ranges.Range, bool) {
	return p.s.MaxRuntime, p.s.HasMaxRuntime
}

func (p *sessionProgram) CountIn() (Kind, bool) { return p.s.CountIn, p.s.HasCountIn }

func (p *sessionProgram) BurstCooldown() time.Duration { return p.s.SpamCooldown }

// Advance resolves the next tick. The active event at time t is the last
// event whose anchor is <= t; events before it that were overrun during a
// pause never fire. Once the last event has fired the timeline is done.
func (p *sessionProgram) Advance(elapsed time.Duration) Tick {
	if p.cursor >= len(p.s.Events) {
		return Tick{Done: true}
	}

	idx := p.cursor
	for idx+1 < len(p.s.Events) && p.s.Events[idx+1].At <= elapsed {
		idx++
	}

	ev := &p.s.Events[idx]
	if ev.At > elapsed {
		return Tick{Wait: ev.At - elapsed}
	}

	p.cursor = idx + 1

	return Tick{Spec: &ev.TickSpec}
}

func sessionErr(field, msg string) *ValidationError {
	return &ValidationError{Event: -1, Field: field, Msg: msg}
}

func eventErr(idx int, field, msg string) *ValidationError {
	return &ValidationError{Event: idx, Field: field, Msg: msg}
}
