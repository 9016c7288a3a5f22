package sched

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/germanamz/zapctl/pkg/zap"
)

// SyncMode is the policy by which the selector picks targets for a
// triggered operation.
type SyncMode int

const (
	// AllSimultaneous targets every pool member this tick. Operations are
	// still issued sequentially, each awaited to completion.
	AllSimultaneous SyncMode = iota

	// IndependentRandom draws one target uniformly at random, independent
	// of prior ticks.
	IndependentRandom

	// RoundRobin cycles through the pool in order, guaranteeing eventual
	// uniform coverage.
	RoundRobin

	// WeightedChoice draws one target at random but never repeats the
	// previously selected target when the pool has more than one member.
	// Beyond the no-immediate-repeat rule the draw is uniform over the
	// remaining pool; see the Selector docs.
	WeightedChoice
)

// syncModeNames maps session-file vocabulary to modes.
var syncModeNames = map[string]SyncMode{
	"sync":           AllSimultaneous,
	"random-shocker": IndependentRandom,
	"round-robin":    RoundRobin,
	"dealers-choice": WeightedChoice,
}

// ParseSyncMode reads a session-file sync mode name.
func ParseSyncMode(s string) (SyncMode, error) {
	m, ok := syncModeNames[s]
	if !ok {
		return 0, fmt.Errorf("sched: unknown sync mode %q", s)
	}

	return m, nil
}

// String returns the session-file name of the mode.
func (m SyncMode) String() string {
	for name, mode := range syncModeNames {
		if mode == m {
			return name
		}
	}

	return "unknown"
}

// ErrEmptyPool is returned when a selection is attempted against an empty
// target pool.
var ErrEmptyPool = errors.New("sched: empty target pool")

// Selector yields the target(s) for the next triggered operation. It keeps
// the previously chosen index so WeightedChoice can avoid immediate
// repeats. A Selector belongs to exactly one driver run.
type Selector struct {
	rng  *rand.Rand
	last int
}

// NewSelector creates a Selector drawing from rng.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng, last: -1}
}

// Select returns the targets for the given tick. The returned slice aliases
// the pool; callers must not mutate it.
func (s *Selector) Select(pool []zap.Shocker, mode SyncMode, tick int) ([]zap.Shocker, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	switch mode {
	case AllSimultaneous:
		return pool, nil

	case RoundRobin:
		idx := tick % len(pool)
		s.last = idx
		return pool[idx : idx+1], nil

	case WeightedChoice:
		idx := s.pickAvoidingLast(len(pool))
		s.last = idx
		return pool[idx : idx+1], nil

	case IndependentRandom:
		fallthrough
	default:
		idx := s.rng.IntN(len(pool))
		s.last = idx
		return pool[idx : idx+1], nil
	}
}

// pickAvoidingLast draws uniformly over [0, n) excluding the previous pick.
// With n == 1 or no previous pick, the draw is plain uniform.
func (s *Selector) pickAvoidingLast(n int) int {
	if n == 1 || s.last < 0 || s.last >= n {
		return s.rng.IntN(n)
	}

	idx := s.rng.IntN(n - 1)
	if idx >= s.last {
		idx++
	}

	return idx
}
