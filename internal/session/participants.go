package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/lobby"
	"github.com/DoyleJ11/draftline/internal/store"
	"github.com/DoyleJ11/draftline/pkg/types"
)

const (
	CodeAssignmentRequired = "PLAYER_ASSIGNMENT_REQUIRED"
	CodeStateUnavailable   = "STATE_UNAVAILABLE"
	CodeActionPending      = "ACTION_PENDING"
	CodeSessionStopped     = "SESSION_STOPPED"
)

// Join assigns the connection a role. It is refused once Stop has begun.
func (s *Server) Join(connID, displayName string) (lobby.Participant, error) {
	if !s.isRunning() {
		return lobby.Participant{}, ErrNotRunning
	}
	p, err := s.registry.Register(displayName, connID)
	if err != nil {
		s.log.Warn("join rejected",
			zap.String("conn", connID),
			zap.String("displayName", displayName),
			zap.Error(err))
		return lobby.Participant{}, err
	}
	s.log.Info("player joined",
		zap.String("conn", connID),
		zap.String("displayName", p.DisplayName),
		zap.String("role", string(p.Role)))
	return p, nil
}

// Act validates a proposed action against the last pushed state. Accepted
// actions are queued for the controller and announced to every connection.
func (s *Server) Act(connID string, req types.ActionRequest) types.ActionResult {
	if !s.isRunning() {
		return failure(ErrNotRunning.Error(), CodeSessionStopped)
	}

	p, ok := s.registry.ByConnection(connID)
	if !ok || p.Role == "" {
		return failure("Player assignment required. Please reconnect.", CodeAssignmentRequired)
	}

	va, err := s.draft.Accept(p.Role, engine.Action(req.Kind), req.AssetName, req.TimestampMs, connID)
	if err != nil {
		code := actionCode(err)
		s.log.Info("action rejected",
			zap.String("role", string(p.Role)),
			zap.String("kind", req.Kind),
			zap.String("asset", req.AssetName),
			zap.String("code", code))
		return failure(err.Error(), code)
	}

	s.log.Info("action validated",
		zap.String("role", string(va.Role)),
		zap.String("kind", string(va.Kind)),
		zap.String("asset", va.AssetName),
		zap.Int("actionNumber", va.ActionNumber))

	s.hub.Broadcast(types.ServerMessage{Type: types.EvtActionValidated, Data: types.ActionValidated{
		Player:       string(va.Role),
		Action:       string(va.Kind),
		Selection:    va.AssetName,
		TimestampMs:  va.TimestampMs,
		ActionNumber: va.ActionNumber,
	}})
	if s.opts.OnAction != nil {
		s.opts.OnAction(va)
	}
	return types.ActionResult{Success: true}
}

// Leave releases the connection's role, if it had one.
func (s *Server) Leave(connID string) {
	if p, ok := s.registry.Unregister(connID); ok {
		s.log.Info("player left",
			zap.String("conn", connID),
			zap.String("role", string(p.Role)))
	}
}

// TakeValidatedActions drains actions accepted since the last call.
func (s *Server) TakeValidatedActions() []engine.ValidatedAction {
	return s.draft.TakeValidated()
}

func actionCode(err error) string {
	switch {
	case errors.Is(err, store.ErrStateUnavailable):
		return CodeStateUnavailable
	case errors.Is(err, store.ErrActionPending):
		return CodeActionPending
	}
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return string(engine.CodeValidationFailed)
}

func failure(msg, code string) types.ActionResult {
	return types.ActionResult{Success: false, Error: &msg, Code: code}
}
