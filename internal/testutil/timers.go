// Package testutil provides deterministic test doubles for the host
// capabilities: a manually advanced timer wheel and a settable
// colorscheme.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/hantianjz/semhl/internal/host"
)

// ManualTimers implements host.Timers with a virtual clock. Callbacks
// fire only from Advance, in due order, on the calling goroutine.
type ManualTimers struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	owner *ManualTimers
	id    int
	due   time.Duration
	fn    func()
}

// NewManualTimers creates an empty timer wheel at virtual time zero.
func NewManualTimers() *ManualTimers {
	return &ManualTimers{timers: make(map[int]*manualTimer)}
}

// AfterFunc schedules fn at now+d and returns a cancelable handle.
func (m *ManualTimers) AfterFunc(d time.Duration, fn func()) host.TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &manualTimer{owner: m, id: m.nextID, due: m.now + d, fn: fn}
	m.timers[t.id] = t
	return t
}

func (t *manualTimer) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	delete(t.owner.timers, t.id)
}

// Advance moves the virtual clock forward and fires every timer that
// became due, in schedule order.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	for _, t := range m.timers {
		if t.due <= m.now {
			due = append(due, t)
		}
	}
	for _, t := range due {
		delete(m.timers, t.id)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	m.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of scheduled, unfired timers.
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
