// Package utils provides timing utilities shared by the graphexec packages.
package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is one named, timed interval of a run.
type Phase struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	completed bool
}

// Timer records named phases of a run: graph construction, execution,
// verification. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	name   string
	start  time.Time
	phases map[string]*Phase
	order  []string
	clock  Clock
}

// NewTimer creates a timer for the named run.
func NewTimer(name string) *Timer {
	return NewTimerWithClock(name, RealClock{})
}

// NewTimerWithClock creates a timer using the given clock. Tests inject a
// fake clock here.
func NewTimerWithClock(name string, clock Clock) *Timer {
	return &Timer{
		name:   name,
		start:  clock.Now(),
		phases: make(map[string]*Phase),
		clock:  clock,
	}
}

// StartPhase begins (or restarts) the named phase.
func (t *Timer) StartPhase(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.phases[name]; !ok {
		t.order = append(t.order, name)
	}
	t.phases[name] = &Phase{Name: name, StartTime: t.clock.Now()}
}

// StopPhase stops the named phase and returns its duration. Stopping an
// unknown or already stopped phase returns zero.
func (t *Timer) StopPhase(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.phases[name]
	if !ok || p.completed {
		return 0
	}
	p.Duration = t.clock.Now().Sub(p.StartTime)
	p.completed = true
	return p.Duration
}

// Time runs fn as the named phase.
func (t *Timer) Time(name string, fn func()) time.Duration {
	t.StartPhase(name)
	fn()
	return t.StopPhase(name)
}

// PhaseDuration returns the recorded duration of the named phase.
func (t *Timer) PhaseDuration(name string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.phases[name]
	if !ok || !p.completed {
		return 0, false
	}
	return p.Duration, true
}

// Total returns the elapsed time since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Now().Sub(t.start)
}

// Phases returns the completed phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, 0, len(t.order))
	for _, name := range t.order {
		if p := t.phases[name]; p.completed {
			out = append(out, *p)
		}
	}
	return out
}

// Summary formats the phase durations as a single line, slowest first.
func (t *Timer) Summary() string {
	phases := t.Phases()
	sort.Slice(phases, func(i, j int) bool {
		return phases[i].Duration > phases[j].Duration
	})
	parts := make([]string, 0, len(phases)+1)
	parts = append(parts, fmt.Sprintf("%s total=%v", t.name, t.Total().Round(time.Microsecond)))
	for _, p := range phases {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Name, p.Duration.Round(time.Microsecond)))
	}
	return strings.Join(parts, " ")
}
