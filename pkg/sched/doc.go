// Package sched is the scheduling engine behind zapctl's random and session
// modes. It decides, at each point in elapsed time, whether an operation
// fires, which target(s) it fires on and with what sampled parameters, and
// how probabilistic burst behavior and global limits interact over a
// long-running timeline.
//
// The engine is strictly single-threaded and cooperative: one Driver owns
// one run, exactly one device operation is in flight at any time, and
// cancellation is only honored at suspension points (warm-up sleep,
// operation completion wait, post-operation pause). Device transports are
// consumed through the zap.Shocker interface and never owned here.
package sched
