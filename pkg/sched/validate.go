package sched

import (
	"fmt"
	"slices"
)

// ValidationError reports a static session-definition violation, with the
// offending event's index (-1 for session-level fields) and field name.
type ValidationError struct {
	Event int
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Event < 0 {
		return fmt.Sprintf("sched: session: %s: %s", e.Field, e.Msg)
	}

	return fmt.Sprintf("sched: session: event %d: %s: %s", e.Event, e.Field, e.Msg)
}

// ResolveNames checks that the session's target pool is non-empty and that
// every declared shocker name resolves against the known names. It is the
// last static check before a driver may start.
func (s *Session) ResolveNames(known []string) error {
	if len(s.ShockerNames) == 0 {
		return sessionErr("shocker_names", "must not be empty")
	}

	for _, name := range s.ShockerNames {
		if !slices.Contains(known, name) {
			return sessionErr("shocker_names", fmt.Sprintf("unknown shocker %q", name))
		}
	}

	return nil
}
