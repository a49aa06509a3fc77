// Package timer implements the shared countdown clock all observers follow.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSeconds = 30
	DevSeconds     = 3
)

type Status string

const (
	StatusReady    Status = "ready"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

var ErrInvalidState = errors.New("invalid timer state")

// StateError reports an operation attempted from the wrong status.
type StateError struct {
	Op      string
	Status  Status
	Allowed []Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("Cannot %s timer in '%s' state. Must be %s.", e.Op, e.Status, allowedList(e.Allowed))
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

func allowedList(s []Status) string {
	switch len(s) {
	case 0:
		return "nothing"
	case 1:
		return fmt.Sprintf("'%s'", s[0])
	default:
		return fmt.Sprintf("'%s' or '%s'", s[0], s[1])
	}
}

type Snapshot struct {
	Status         Status `json:"status"`
	Seconds        int    `json:"seconds"`
	InitialSeconds int    `json:"initialSeconds"`
}

// Emitter receives every state change. Calls are made while the timer lock is
// held so they arrive in order; implementations must not block or call back
// into the Timer.
type Emitter interface {
	Tick(Snapshot)
	Finished()
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func NewRealTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type Option func(*Timer)

func WithTicker(f func(time.Duration) Ticker) Option {
	return func(t *Timer) { t.newTicker = f }
}

func WithLogger(log *zap.Logger) Option {
	return func(t *Timer) {
		if log != nil {
			t.log = log.Named("timer")
		}
	}
}

type Timer struct {
	mu      sync.Mutex
	status  Status
	seconds int
	initial int
	// Closed to stop the loop that owns it. Every run gets its own channel.
	stop chan struct{}

	emit      Emitter
	newTicker func(time.Duration) Ticker
	log       *zap.Logger
}

func New(initialSeconds int, emit Emitter, opts ...Option) *Timer {
	t := &Timer{
		status:    StatusReady,
		seconds:   initialSeconds,
		initial:   initialSeconds,
		stop:      make(chan struct{}),
		emit:      emit,
		newTicker: NewRealTicker,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) snapshotLocked() Snapshot {
	return Snapshot{Status: t.status, Seconds: t.seconds, InitialSeconds: t.initial}
}

func (t *Timer) Start() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusReady && t.status != StatusPaused {
		return t.snapshotLocked(), &StateError{Op: "start", Status: t.status, Allowed: []Status{StatusReady, StatusPaused}}
	}

	t.status = StatusRunning
	t.stop = make(chan struct{})
	snap := t.snapshotLocked()
	t.emitTick(snap)

	go t.run(t.stop, t.newTicker(time.Second))

	t.log.Info("timer started", zap.Int("seconds", snap.Seconds))
	return snap, nil
}

func (t *Timer) Pause() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return t.snapshotLocked(), &StateError{Op: "pause", Status: t.status, Allowed: []Status{StatusRunning}}
	}

	t.signalStop()
	t.status = StatusPaused
	snap := t.snapshotLocked()
	t.emitTick(snap)

	t.log.Info("timer paused", zap.Int("seconds", snap.Seconds))
	return snap, nil
}

// Reset stops any running loop and returns to Ready. A nil seconds keeps the
// previous initial duration.
func (t *Timer) Reset(seconds *int) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.signalStop()
	t.stop = make(chan struct{})

	if seconds != nil {
		t.initial = *seconds
	}
	t.status = StatusReady
	t.seconds = t.initial
	snap := t.snapshotLocked()
	t.emitTick(snap)

	t.log.Info("timer reset", zap.Int("seconds", snap.Seconds))
	return snap
}

// Halt stops a running loop without resetting the count. A running timer is
// left Paused so it can be resumed.
func (t *Timer) Halt() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return
	}
	t.signalStop()
	t.status = StatusPaused
	t.emitTick(t.snapshotLocked())
}

func (t *Timer) signalStop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
}

func (t *Timer) run(stop chan struct{}, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if done := t.tick(stop); done {
				return
			}
		}
	}
}

// tick applies one second. It reports true when the loop should exit.
func (t *Timer) tick(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A pause or reset may have landed between the tick firing and the lock.
	if t.stop != stop || t.status != StatusRunning {
		return true
	}

	if t.seconds > 0 {
		t.seconds--
	}
	if t.seconds > 0 {
		t.emitTick(t.snapshotLocked())
		return false
	}

	t.status = StatusFinished
	t.emitTick(t.snapshotLocked())
	if t.emit != nil {
		t.emit.Finished()
	}
	t.log.Info("timer finished", zap.Int("initial", t.initial))
	return true
}

func (t *Timer) emitTick(s Snapshot) {
	if t.emit != nil {
		t.emit.Tick(s)
	}
}
