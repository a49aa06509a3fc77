// Package session runs the single draft session: the participant listener,
// slot assignment, action validation and fan-out of controller events.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/hub"
	"github.com/DoyleJ11/draftline/internal/lobby"
	"github.com/DoyleJ11/draftline/internal/store"
	"github.com/DoyleJ11/draftline/internal/timer"
	"github.com/DoyleJ11/draftline/internal/ws"
)

var ErrAlreadyRunning = errors.New("server is already running")
var ErrNotRunning = errors.New("server is not running")
var ErrPlayerNotConnected = errors.New("player not connected")
var ErrInvalidTimerAction = errors.New("timer control action is required")

type Options struct {
	BindHost       string
	OriginPatterns []string
	WriteTimeout   time.Duration
	OutboxSize     int
	TimerSeconds   int
	TimerOptions   []timer.Option

	// OnAction, if set, is called after each accepted action. It runs on the
	// submitting connection's goroutine and must not block for long.
	OnAction func(engine.ValidatedAction)
}

type Status struct {
	Running          bool   `json:"running"`
	Port             int    `json:"port"`
	ParticipantCount int    `json:"participantCount"`
	SessionID        string `json:"sessionId"`
}

type Server struct {
	opts Options
	log  *zap.Logger

	lifecycle sync.Mutex // serializes Start/Stop

	mu         sync.Mutex
	running    bool
	port       int
	sessionID  string
	httpServer *http.Server

	registry *lobby.Registry
	draft    *store.Draft
	hub      *hub.Hub
	timer    *timer.Timer
}

func New(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BindHost == "" {
		opts.BindHost = "127.0.0.1"
	}
	if opts.TimerSeconds <= 0 {
		opts.TimerSeconds = timer.DefaultSeconds
	}

	s := &Server{
		opts:      opts,
		log:       log.Named("session"),
		sessionID: uuid.NewString(),
		registry:  lobby.NewRegistry(log),
		draft:     store.New(log),
		hub:       hub.New(opts.OutboxSize, log),
	}
	timerOpts := append([]timer.Option{timer.WithLogger(log)}, opts.TimerOptions...)
	s.timer = timer.New(opts.TimerSeconds, timerEmitter{s.hub}, timerOpts...)
	return s
}

// Start binds the participant listener. Port 0 picks a free port; the bound
// port is reported by Status.
func (s *Server) Start(port int) (string, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.isRunning() {
		return "", ErrAlreadyRunning
	}

	s.log.Info("starting tournament server", zap.Int("port", port))

	ln, err := net.Listen("tcp", net.JoinHostPort(s.opts.BindHost, strconv.Itoa(port)))
	if err != nil {
		return "", fmt.Errorf("failed to bind to port %d: %w", port, err)
	}
	bound := ln.Addr().(*net.TCPAddr).Port

	s.hub.Open()
	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.running = true
	s.port = bound
	s.httpServer = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", zap.Error(err))
			s.mu.Lock()
			if s.httpServer == srv {
				s.running = false
				s.httpServer = nil
			}
			s.mu.Unlock()
		}
	}()

	s.log.Info("tournament server started", zap.Int("port", bound))
	return fmt.Sprintf("Server started on port %d", bound), nil
}

// Stop tears the session down: not-running first so late events are refused,
// then participants and the stored draft, the timer loop, open sockets and
// finally the listener. If a graceful shutdown times out the listener is
// closed forcibly, so the session is stopped either way and the error is
// reported.
func (s *Server) Stop(ctx context.Context) (string, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return "", ErrNotRunning
	}
	s.running = false
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	s.log.Info("stopping tournament server")

	s.registry.Clear()
	s.draft.Reset()
	s.timer.Halt()
	s.hub.CloseAll()

	var err error
	if srv != nil {
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown listener: %w", shutdownErr))
			err = multierr.Append(err, srv.Close())
		}
	}
	if err != nil {
		return "", err
	}

	s.log.Info("tournament server stopped")
	return "Server stopped", nil
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) Status() Status {
	s.mu.Lock()
	st := Status{Running: s.running, Port: s.port, SessionID: s.sessionID}
	s.mu.Unlock()

	st.ParticipantCount = s.registry.Count()
	return st
}

func (s *Server) Participants() []lobby.Participant {
	return s.registry.All()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", ws.Handler(s.hub, s, ws.Options{
		OriginPatterns: s.opts.OriginPatterns,
		WriteTimeout:   s.opts.WriteTimeout,
	}, s.log))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}
