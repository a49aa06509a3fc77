// Package store holds the single authoritative DraftState for the session.
//
// The controller is the only writer: it calls Advance with each new state.
// Participants only ever read through Accept, which validates a proposal
// against the stored state and queues it for the controller. Accept never
// changes the stored state.
package store

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
)

var ErrStateUnavailable = errors.New("tournament state not available, wait for the tournament to start")
var ErrActionPending = errors.New("an action for this turn was already accepted, wait for the next turn")

type turnKey struct {
	phase  engine.Phase
	number int
}

type Draft struct {
	mu       sync.Mutex
	current  *engine.DraftState
	version  int
	accepted *turnKey
	queue    []engine.ValidatedAction
	log      *zap.Logger
}

func New(log *zap.Logger) *Draft {
	if log == nil {
		log = zap.NewNop()
	}
	return &Draft{log: log.Named("store")}
}

// Advance replaces the stored state and returns the new version. An accepted
// action stays locked in until the controller moves to a different
// (phase, actionNumber); re-pushing the same turn does not reopen it, Reopen
// does.
func (d *Draft) Advance(s engine.DraftState) int {
	c := s.Clone()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = &c
	d.version++
	if d.accepted != nil && (*d.accepted != turnKey{c.Phase, c.ActionNumber}) {
		d.accepted = nil
	}
	d.log.Debug("draft state advanced",
		zap.Int("version", d.version),
		zap.String("phase", string(c.Phase)),
		zap.Int("action", c.ActionNumber))
	return d.version
}

// Reopen releases the accepted marker so the current turn takes submissions
// again. It is for a controller that rolls a turn back or re-pushes it after
// discarding the queued action.
func (d *Draft) Reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accepted = nil
	d.log.Debug("turn reopened")
}

// Reset drops the stored state, the accepted marker and any queued actions.
// The version counter keeps increasing.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = nil
	d.accepted = nil
	d.queue = nil
	d.log.Debug("draft store reset")
}

// Current returns a copy of the stored state.
func (d *Draft) Current() (engine.DraftState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return engine.DraftState{}, false
	}
	return d.current.Clone(), true
}

func (d *Draft) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Accept validates a proposal and, on success, queues it for the controller.
// Validation and queueing happen under one lock so two participants racing on
// the same turn cannot both be accepted.
func (d *Draft) Accept(role engine.Role, action engine.Action, asset string, timestampMs int64, connID string) (engine.ValidatedAction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return engine.ValidatedAction{}, ErrStateUnavailable
	}

	va, err := engine.Validate(*d.current, role, action, asset)
	if err != nil {
		return engine.ValidatedAction{}, err
	}

	key := turnKey{d.current.Phase, d.current.ActionNumber}
	if d.accepted != nil && *d.accepted == key {
		return engine.ValidatedAction{}, ErrActionPending
	}

	va.TimestampMs = timestampMs
	va.ConnectionID = connID
	d.accepted = &key
	d.queue = append(d.queue, va)
	return va, nil
}

// TakeValidated drains the queue of accepted actions.
func (d *Draft) TakeValidated() []engine.ValidatedAction {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.queue
	d.queue = nil
	if out == nil {
		out = []engine.ValidatedAction{}
	}
	return out
}
