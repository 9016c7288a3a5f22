package sched

import (
	"sync"
	"time"
)

// EventKind identifies the type of driver event.
type EventKind string

const (
	EventStateChange EventKind = "state_change"
	EventCountIn     EventKind = "count_in"
	EventOpStart     EventKind = "op_start"
	EventOpDone      EventKind = "op_done"
	EventBurstStart  EventKind = "burst_start"
	EventBurstEnd    EventKind = "burst_end"
	EventSleep       EventKind = "sleep"
	EventError       EventKind = "error"
)

// Event is an immutable notification of driver activity.
type Event struct {
	Kind      EventKind
	RunID     string
	Elapsed   time.Duration
	Timestamp time.Time
	Data      any
}

// StateChangeData accompanies EventStateChange.
type StateChangeData struct {
	From State
	To   State
}

// OpData accompanies EventOpStart and EventOpDone.
type OpData struct {
	Target string
	Op     PlannedOp
	Burst  bool
}

// BurstData accompanies EventBurstStart.
type BurstData struct {
	Count int
}

// SleepData accompanies EventSleep.
type SleepData struct {
	Duration time.Duration
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus fans out driver events to all active subscribers. It is safe
// for concurrent use; the driver publishes, renderers subscribe.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus ready for use.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[*Subscription]struct{})}
}

// Subscribe creates a new subscription with the given channel buffer size.
// The caller should read from sub.C and eventually call Unsubscribe.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends an event to all subscribers. If a subscriber's buffer is
// full the event is dropped for that subscriber so a slow renderer cannot
// stall the schedule.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
