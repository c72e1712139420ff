package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a command run.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Timer records sequential phases such as reading, parsing and reporting.
// It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	name   string
	clock  Clock
	start  time.Time
	phases []Phase
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithClock sets a custom clock for testability.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:  name,
		clock: NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// Start begins a phase. The returned function ends it and may be deferred.
// Calling it more than once has no further effect.
func (t *Timer) Start(phaseName string) func() time.Duration {
	begin := t.clock.Now()
	var once sync.Once
	var d time.Duration

	return func() time.Duration {
		once.Do(func() {
			d = t.clock.Since(begin)
			t.mu.Lock()
			t.phases = append(t.phases, Phase{Name: phaseName, Duration: d})
			t.mu.Unlock()
		})
		return d
	}
}

// TimeFuncWithError times fn as a phase.
func (t *Timer) TimeFuncWithError(phaseName string, fn func() error) (time.Duration, error) {
	stop := t.Start(phaseName)
	err := fn()
	return stop(), err
}

// Phases returns the completed phases in completion order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Total returns the time elapsed since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Since(t.start)
}

// Summary renders the phases one per line.
func (t *Timer) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s Timing Summary ===\n", t.name)
	for i, p := range t.Phases() {
		fmt.Fprintf(&sb, "Phase %d - %s: %v\n", i+1, p.Name, p.Duration)
	}
	fmt.Fprintf(&sb, "Total: %v\n", t.Total())
	return sb.String()
}

// Log writes the summary to logger at debug level.
func (t *Timer) Log(logger Logger) {
	for _, line := range strings.Split(strings.TrimRight(t.Summary(), "\n"), "\n") {
		logger.Debug("%s", line)
	}
}
