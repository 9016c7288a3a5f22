package sched

import (
	"math/rand/v2"
	"time"

	"github.com/germanamz/zapctl/pkg/ranges"
)

// BurstController gates entry into the rapid-fire sub-mode. It tracks when
// the last burst ended and refuses entry while the cooldown window is
// open, regardless of the entry possibility. The zero value treats the
// last burst as unbounded past, so the first tick is always eligible.
//
// A BurstController holds the only mutable cross-tick state of a run and
// is owned exclusively by that run's Driver.
type BurstController struct {
	lastEnd time.Time
	armed   bool
}

// TryEnter reports whether a burst starts now. It returns false
// unconditionally while now is within cooldown of the last burst;
// otherwise it samples possibility once. A true return immediately starts
// a new cooldown window anchored at now, so TryEnter can never return true
// twice within cooldown of each other even if the caller misbehaves;
// RecordEnd later moves the anchor to the burst's actual end.
func (b *BurstController) TryEnter(now time.Time, cooldown time.Duration, possibility ranges.Possibility, rng *rand.Rand) bool {
	if b.armed && now.Sub(b.lastEnd) < cooldown {
		return false
	}

	if !possibility.Roll(rng) {
		return false
	}

	b.lastEnd = now
	b.armed = true

	return true
}

// RecordEnd marks the completion time of a burst, anchoring the next
// cooldown window.
func (b *BurstController) RecordEnd(now time.Time) {
	b.lastEnd = now
	b.armed = true
}
