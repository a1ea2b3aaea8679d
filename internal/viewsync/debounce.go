package viewsync

import (
	"sync"
	"time"
)

// DefaultDebounceDelay matches the search-input debounce of the UI.
const DefaultDebounceDelay = 300 * time.Millisecond

// ScheduleFunc arms a one-shot timer and returns a cancel function.
// The default is time.AfterFunc; tests inject a fake.
type ScheduleFunc func(delay time.Duration, fn func()) (cancel func())

func afterFuncSchedule(delay time.Duration, fn func()) func() {
	timer := time.AfterFunc(delay, fn)
	return func() { timer.Stop() }
}

// Debouncer coalesces rapid triggers into a single invocation after a
// quiet period. Only the last triggered function runs.
type Debouncer struct {
	delay    time.Duration
	schedule ScheduleFunc

	mu     sync.Mutex
	cancel func()
}

// NewDebouncer returns a debouncer with the given quiet period.
// A nil schedule uses real timers; a non-positive delay uses the
// default.
func NewDebouncer(delay time.Duration, schedule ScheduleFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if schedule == nil {
		schedule = afterFuncSchedule
	}
	return &Debouncer{delay: delay, schedule: schedule}
}

// Trigger schedules fn after the quiet period, cancelling any
// previously scheduled invocation.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = d.schedule(d.delay, fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
