package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/lobby"
	"github.com/DoyleJ11/draftline/internal/session"
	"github.com/DoyleJ11/draftline/internal/timer"
	"github.com/DoyleJ11/draftline/pkg/types"
)

// Controller is the session surface the control API drives.
type Controller interface {
	Start(port int) (string, error)
	Stop(ctx context.Context) (string, error)
	Status() session.Status
	Participants() []lobby.Participant

	BroadcastState(st engine.DraftState) (int, error)
	ReopenTurn() error
	SendTurnStart(st engine.DraftState, role engine.Role, timeLimit int) error
	SendTimerControl(tc types.TimerControl) (int, error)
	SendSessionStart(st engine.DraftState) (int, error)
	SendSessionEnd(res types.SessionEnd) (int, error)
	TakeValidatedActions() []engine.ValidatedAction

	StartTimer() (timer.Snapshot, error)
	PauseTimer() (timer.Snapshot, error)
	ResetTimer(seconds *int) timer.Snapshot
	TimerSnapshot() timer.Snapshot
}

// SetupRoutes builds the loopback control API for the embedding controller.
func SetupRoutes(c Controller, shutdownTimeout time.Duration, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("httpapi")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)

	r.Route("/session", func(r chi.Router) {
		r.Post("/start", StartSession(c, log))
		r.Post("/stop", StopSession(c, shutdownTimeout, log))
		r.Get("/status", SessionStatus(c))
		r.Get("/participants", Participants(c))
		r.Put("/state", PushState(c, log))
		r.Post("/reopen-turn", ReopenTurn(c, log))
		r.Post("/turn-start", TurnStart(c, log))
		r.Post("/timer-control", TimerControl(c, log))
		r.Post("/start-event", StartEvent(c, log))
		r.Post("/end-event", EndEvent(c, log))
		r.Get("/actions", DrainActions(c))
	})

	r.Route("/timer", func(r chi.Router) {
		r.Get("/", TimerStatus(c))
		r.Post("/start", StartTimer(c))
		r.Post("/pause", PauseTimer(c))
		r.Post("/reset", ResetTimer(c))
	})
	return r
}
