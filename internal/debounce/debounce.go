// Package debounce delays the commit of free-text input until typing
// pauses. Each scheduled value supersedes the previous one; only the fire
// that matches the latest sequence number resolves.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FireMsg is delivered when a scheduled delay elapses.
type FireMsg struct {
	Seq int
}

// Debouncer is owned by the bubbletea update loop and is not safe for
// concurrent use.
type Debouncer struct {
	delay   time.Duration
	seq     int
	pending string
	armed   bool
}

func New(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule records value as pending and returns the tick that will try to
// commit it.
func (d *Debouncer) Schedule(value string) tea.Cmd {
	d.seq++
	d.pending = value
	d.armed = true

	seq := d.seq
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return FireMsg{Seq: seq}
	})
}

// Resolve returns the pending value when msg is the latest fire. The value
// is consumed, so a second delivery of the same fire reports false.
func (d *Debouncer) Resolve(msg FireMsg) (string, bool) {
	if !d.armed || msg.Seq != d.seq {
		return "", false
	}
	d.armed = false
	value := d.pending
	d.pending = ""
	return value, true
}

// Pending reports whether a value is waiting to be committed.
func (d *Debouncer) Pending() bool {
	return d.armed
}

// Cancel drops the pending value. Fires already in flight resolve to false.
func (d *Debouncer) Cancel() {
	d.seq++
	d.armed = false
	d.pending = ""
}
