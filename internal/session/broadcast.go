package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/hub"
	"github.com/DoyleJ11/draftline/internal/timer"
	"github.com/DoyleJ11/draftline/internal/view"
	"github.com/DoyleJ11/draftline/pkg/types"
)

// BroadcastState stores st as the authoritative state and sends its
// participant view to every connection.
func (s *Server) BroadcastState(st engine.DraftState) (int, error) {
	if !s.isRunning() {
		return 0, ErrNotRunning
	}
	version := s.draft.Advance(st)
	n := s.hub.Broadcast(types.ServerMessage{Type: types.EvtStateUpdate, Data: view.Project(st)})
	s.log.Debug("state broadcast",
		zap.Int("version", version),
		zap.String("phase", string(st.Phase)),
		zap.Int("actionNumber", st.ActionNumber),
		zap.Int("recipients", n))
	return n, nil
}

// ReopenTurn lets the current turn accept an action again after the
// controller discarded the one it was sent.
func (s *Server) ReopenTurn() error {
	if !s.isRunning() {
		return ErrNotRunning
	}
	s.draft.Reopen()
	s.log.Info("turn reopened")
	return nil
}

// CurrentState returns the last state pushed by the controller.
func (s *Server) CurrentState() (engine.DraftState, bool) {
	return s.draft.Current()
}

// SendTurnStart notifies only the participant holding role.
func (s *Server) SendTurnStart(st engine.DraftState, role engine.Role, timeLimit int) error {
	if !s.isRunning() {
		return ErrNotRunning
	}
	p, ok := s.registry.ByRole(role)
	if !ok {
		return fmt.Errorf("player %s: %w", role, ErrPlayerNotConnected)
	}
	msg := types.ServerMessage{Type: types.EvtTurnStart, Data: view.TurnStart(st, role, timeLimit)}
	if err := s.hub.Send(p.ConnectionID, msg); err != nil {
		return fmt.Errorf("turn start for %s: %w", role, err)
	}
	s.log.Info("turn start sent",
		zap.String("role", string(role)),
		zap.Int("timeLimit", timeLimit))
	return nil
}

// SendTimerControl forwards tc to every connection as given. Only an empty
// action is refused.
func (s *Server) SendTimerControl(tc types.TimerControl) (int, error) {
	if !s.isRunning() {
		return 0, ErrNotRunning
	}
	if tc.Action == "" {
		return 0, ErrInvalidTimerAction
	}
	return s.hub.Broadcast(types.ServerMessage{Type: types.EvtTimerControl, Data: tc}), nil
}

func (s *Server) SendSessionStart(st engine.DraftState) (int, error) {
	if !s.isRunning() {
		return 0, ErrNotRunning
	}
	s.log.Info("session start broadcast")
	return s.hub.Broadcast(types.ServerMessage{Type: types.EvtSessionStart, Data: view.Project(st)}), nil
}

func (s *Server) SendSessionEnd(res types.SessionEnd) (int, error) {
	if !s.isRunning() {
		return 0, ErrNotRunning
	}
	if res.FinalAgentPicks == nil {
		res.FinalAgentPicks = map[string]string{}
	}
	s.log.Info("session end broadcast", zap.String("finalMap", res.FinalMap))
	return s.hub.Broadcast(types.ServerMessage{Type: types.EvtSessionEnd, Data: res}), nil
}

func (s *Server) StartTimer() (timer.Snapshot, error) {
	return s.timer.Start()
}

func (s *Server) PauseTimer() (timer.Snapshot, error) {
	return s.timer.Pause()
}

// ResetTimer resets from any state. A nil seconds keeps the initial value.
func (s *Server) ResetTimer(seconds *int) timer.Snapshot {
	return s.timer.Reset(seconds)
}

func (s *Server) TimerSnapshot() timer.Snapshot {
	return s.timer.Snapshot()
}

// timerEmitter fans timer changes out to every connection.
type timerEmitter struct {
	hub *hub.Hub
}

func (e timerEmitter) Tick(snap timer.Snapshot) {
	e.hub.Broadcast(types.ServerMessage{Type: types.EvtTimerTick, Data: types.TimerTick{
		Status:         string(snap.Status),
		Seconds:        snap.Seconds,
		InitialSeconds: snap.InitialSeconds,
		TimestampMs:    time.Now().UnixMilli(),
	}})
}

func (e timerEmitter) Finished() {
	e.hub.Broadcast(types.ServerMessage{Type: types.EvtTimerFinished})
}
