package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/session"
	"github.com/DoyleJ11/draftline/internal/timer"
	"github.com/DoyleJ11/draftline/pkg/types"
)

type startRequest struct {
	Port int `json:"port"`
}

type turnStartRequest struct {
	State     engine.DraftState `json:"state"`
	Role      string            `json:"role"`
	TimeLimit int               `json:"timeLimit"`
}

type resetRequest struct {
	Seconds *int `json:"seconds"`
}

type messageResponse struct {
	Message string         `json:"message"`
	Status  session.Status `json:"status"`
}

type deliveredResponse struct {
	Recipients int `json:"recipients"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func StartSession(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if !decode(w, r, &req) {
			return
		}
		msg, err := c.Start(req.Port)
		if err != nil {
			log.Warn("session start failed", zap.Int("port", req.Port), zap.Error(err))
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg, Status: c.Status()})
	}
}

func StopSession(c Controller, timeout time.Duration, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		msg, err := c.Stop(ctx)
		if err != nil {
			log.Warn("session stop failed", zap.Error(err))
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg, Status: c.Status()})
	}
}

func SessionStatus(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Status())
	}
}

func Participants(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Participants())
	}
}

func PushState(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st engine.DraftState
		if !decode(w, r, &st) {
			return
		}
		n, err := c.BroadcastState(st)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		log.Debug("state pushed", zap.Int("actionNumber", st.ActionNumber), zap.Int("recipients", n))
		writeJSON(w, http.StatusOK, deliveredResponse{Recipients: n})
	}
}

func ReopenTurn(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.ReopenTurn(); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		log.Info("turn reopened")
		w.WriteHeader(http.StatusNoContent)
	}
}

func TurnStart(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req turnStartRequest
		if !decode(w, r, &req) {
			return
		}
		role, ok := engine.ParseRole(req.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown role %q", req.Role))
			return
		}
		if err := c.SendTurnStart(req.State, role, req.TimeLimit); err != nil {
			log.Warn("turn start failed", zap.String("role", req.Role), zap.Error(err))
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, deliveredResponse{Recipients: 1})
	}
}

func TimerControl(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tc types.TimerControl
		if !decode(w, r, &tc) {
			return
		}
		n, err := c.SendTimerControl(tc)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		log.Debug("timer control sent", zap.String("action", tc.Action))
		writeJSON(w, http.StatusOK, deliveredResponse{Recipients: n})
	}
}

func StartEvent(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st engine.DraftState
		if !decode(w, r, &st) {
			return
		}
		n, err := c.SendSessionStart(st)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		log.Info("event started", zap.Int("recipients", n))
		writeJSON(w, http.StatusOK, deliveredResponse{Recipients: n})
	}
}

func EndEvent(c Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res types.SessionEnd
		if !decode(w, r, &res) {
			return
		}
		n, err := c.SendSessionEnd(res)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		log.Info("event ended", zap.String("finalMap", res.FinalMap), zap.Int("recipients", n))
		writeJSON(w, http.StatusOK, deliveredResponse{Recipients: n})
	}
}

func DrainActions(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.TakeValidatedActions())
	}
}

func TimerStatus(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.TimerSnapshot())
	}
}

func StartTimer(c Controller) http.HandlerFunc {
	return timerOp(c.StartTimer)
}

func PauseTimer(c Controller) http.HandlerFunc {
	return timerOp(c.PauseTimer)
}

func ResetTimer(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Seconds != nil && *req.Seconds <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("seconds must be positive"))
			return
		}
		writeJSON(w, http.StatusOK, c.ResetTimer(req.Seconds))
	}
}

func timerOp(op func() (timer.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op()
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrAlreadyRunning),
		errors.Is(err, session.ErrNotRunning),
		errors.Is(err, timer.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, session.ErrPlayerNotConnected):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTimerAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body. An empty body leaves v at its zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.ErrorMessage{Error: err.Error()})
}
