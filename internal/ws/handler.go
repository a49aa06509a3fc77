// Package ws adapts websocket connections to the session: it owns the socket
// read/write loops and turns inbound frames into Session calls.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/hub"
	"github.com/DoyleJ11/draftline/internal/lobby"
	"github.com/DoyleJ11/draftline/pkg/types"
)

// Session is what a connection can ask of the draft session.
type Session interface {
	Join(connID, displayName string) (lobby.Participant, error)
	Act(connID string, req types.ActionRequest) types.ActionResult
	Leave(connID string)
}

type Options struct {
	OriginPatterns []string
	WriteTimeout   time.Duration
}

func Handler(h *hub.Hub, s Session, opts Options, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		connID := uuid.NewString()
		clog := log.With(zap.String("conn", connID))
		clog.Info("client connected", zap.String("remote", r.RemoteAddr))

		client := h.Add(connID)
		defer h.Remove(connID)
		defer s.Leave(connID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. The outbox closes when the hub drops or removes the
		// client; anything already queued is still written first.
		go func() {
			defer cancel()
			for payload := range client.Outbox() {
				wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
				err := conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
			_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Info("client disconnected")
				default:
					if !errors.Is(err, context.Canceled) {
						clog.Info("client connection ended", zap.Error(err))
					}
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				send(h, clog, connID, types.EvtError, types.ErrorMessage{Error: "bad json"})
				continue
			}

			dispatch(h, s, clog, connID, cm)
		}
	}
}

func dispatch(h *hub.Hub, s Session, log *zap.Logger, connID string, cm types.ClientMessage) {
	switch cm.Type {
	case types.EvtJoin:
		var req types.JoinRequest
		if err := decode(cm.Data, &req); err != nil {
			send(h, log, connID, types.EvtError, types.ErrorMessage{Error: "bad join payload"})
			return
		}
		p, err := s.Join(connID, req.DisplayName)
		if err != nil {
			send(h, log, connID, types.EvtJoinError, types.JoinError{
				Message: err.Error(),
				Code:    "ASSIGNMENT_FAILED",
				Reason:  joinReason(err),
			})
			// Closing the outbox flushes the error, then the writer hangs up.
			h.Remove(connID)
			return
		}
		send(h, log, connID, types.EvtAssigned, types.Assigned{Role: string(p.Role)})

	case types.EvtAction:
		var req types.ActionRequest
		if err := decode(cm.Data, &req); err != nil {
			msg := "bad action payload"
			send(h, log, connID, types.EvtActionResult, types.ActionResult{Success: false, Error: &msg, Code: "BAD_REQUEST"})
			return
		}
		send(h, log, connID, types.EvtActionResult, s.Act(connID, req))

	case types.EvtPing:
		send(h, log, connID, types.EvtPong, struct{}{})
		log.Debug("heartbeat ping/pong")

	default:
		send(h, log, connID, types.EvtError, types.ErrorMessage{Error: "unknown type"})
	}
}

func joinReason(err error) string {
	switch {
	case errors.Is(err, lobby.ErrSessionFull):
		return "SESSION_FULL"
	case errors.Is(err, lobby.ErrDuplicateConnection):
		return "DUPLICATE_CONNECTION"
	default:
		return ""
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func send(h *hub.Hub, log *zap.Logger, connID, typ string, data any) {
	if err := h.Send(connID, types.ServerMessage{Type: typ, Data: data}); err != nil {
		log.Warn("failed to send", zap.String("type", typ), zap.Error(err))
	}
}
