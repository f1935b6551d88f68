package stopwatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"donetasker/internal/timeutil"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Frame is one rendered value of a Display.
type Frame struct {
	State   State            `json:"state"`
	Elapsed timeutil.Elapsed `json:"elapsed"`
	Text    string           `json:"text"`
	Band    timeutil.Band    `json:"band"`
	At      time.Time        `json:"at"`
}

func newFrame(state State, elapsed timeutil.Elapsed, at time.Time) Frame {
	return Frame{
		State:   state,
		Elapsed: elapsed,
		Text:    elapsed.String(),
		Band:    timeutil.UrgencyBand(elapsed.HoursFloat()),
		At:      at,
	}
}

// Display re-renders elapsed time from a session start while running.
//
// onFrame is invoked from the tick goroutine after each tick. It must not call
// back into the Display; Set, Stop and Close wait for that goroutine to exit.
type Display struct {
	clock    clockwork.Clock
	interval time.Duration
	onFrame  func(Frame)

	// transition serializes Set, Stop and Close.
	transition sync.Mutex

	mu     sync.Mutex
	frame  Frame
	start  time.Time
	gen    uint64
	handle *Handle
	closed bool
}

func NewDisplay(clock clockwork.Clock, interval time.Duration, onFrame func(Frame)) *Display {
	if interval <= 0 {
		interval = time.Second
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	return &Display{
		clock:    clock,
		interval: interval,
		onFrame:  onFrame,
		frame:    newFrame(StateIdle, timeutil.Elapsed{}, clock.Now()),
	}
}

// Set moves the display to Running when start is known and running is true,
// and to Idle otherwise. Any in-flight tick is cancelled first.
func (d *Display) Set(start *time.Time, running bool) Frame {
	d.transition.Lock()
	defer d.transition.Unlock()

	d.cancelTick()

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if d.closed || start == nil || !running {
		d.frame = newFrame(StateIdle, timeutil.Elapsed{}, now)
		return d.frame
	}

	d.start = *start
	d.frame = newFrame(StateRunning, timeutil.Between(d.start, now), now)
	gen := d.gen
	d.handle = Every(context.Background(), d.clock, d.interval, func(at time.Time) {
		d.tick(gen, at)
	})
	return d.frame
}

// Stop freezes the display on final. No further ticks are issued.
func (d *Display) Stop(final time.Duration) Frame {
	d.transition.Lock()
	defer d.transition.Unlock()

	d.cancelTick()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = newFrame(StateStopped, timeutil.FromDuration(final), d.clock.Now())
	return d.frame
}

// Close tears the display down. Later Set calls leave it Idle.
func (d *Display) Close() {
	d.transition.Lock()
	defer d.transition.Unlock()

	d.cancelTick()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *Display) Current() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

func (d *Display) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle != nil
}

func (d *Display) tick(gen uint64, at time.Time) {
	d.mu.Lock()
	if gen != d.gen || d.frame.State != StateRunning {
		d.mu.Unlock()
		return
	}
	d.frame = newFrame(StateRunning, timeutil.Between(d.start, at), at)
	frame := d.frame
	d.mu.Unlock()

	d.onFrame(frame)
}

func (d *Display) cancelTick() {
	d.mu.Lock()
	h := d.handle
	d.handle = nil
	d.gen++
	d.mu.Unlock()

	h.Cancel()
}
