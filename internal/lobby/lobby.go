// Package lobby tracks which connection holds which session slot.
package lobby

import (
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/draftline/internal/engine"
)

var ErrDuplicateConnection = errors.New("socket already connected")
var ErrSessionFull = errors.New("tournament is full (2 players maximum)")

// Participant is a joined connection. Values handed out by Registry are copies.
type Participant struct {
	DisplayName  string      `json:"displayName"`
	ConnectionID string      `json:"connectionId"`
	Role         engine.Role `json:"role,omitempty"`
	Connected    bool        `json:"connected"`
	ConnectedAt  int64       `json:"connectedAt"` // epoch seconds
}

type Registry struct {
	mu          sync.Mutex
	players     map[string]*Participant // connection id -> participant
	assignments map[engine.Role]string  // role -> connection id
	now         func() time.Time
	log         *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		players:     make(map[string]*Participant),
		assignments: make(map[engine.Role]string),
		now:         time.Now,
		log:         log.Named("lobby"),
	}
}

// Register assigns the lowest free role to connID. A connection that left and
// comes back is treated as new; it does not get its old role back.
func (r *Registry) Register(name, connID string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[connID]; ok {
		return Participant{}, ErrDuplicateConnection
	}

	var role engine.Role
	for _, candidate := range engine.Roles {
		if _, taken := r.assignments[candidate]; !taken {
			role = candidate
			break
		}
	}
	if role == "" {
		r.log.Warn("rejecting join, session full", zap.String("name", name), zap.String("conn", connID))
		return Participant{}, ErrSessionFull
	}

	p := &Participant{
		DisplayName:  name,
		ConnectionID: connID,
		Role:         role,
		Connected:    true,
		ConnectedAt:  r.now().Unix(),
	}
	r.players[connID] = p
	r.assignments[role] = connID

	r.log.Info("participant assigned", zap.String("name", name), zap.String("role", string(role)), zap.String("conn", connID))
	return *p, nil
}

func (r *Registry) Unregister(connID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[connID]
	if !ok {
		return Participant{}, false
	}
	delete(r.players, connID)
	if p.Role != "" && r.assignments[p.Role] == connID {
		delete(r.assignments, p.Role)
	}
	p.Connected = false

	r.log.Info("participant left", zap.String("name", p.DisplayName), zap.String("role", string(p.Role)), zap.String("conn", connID))
	return *p, true
}

func (r *Registry) ByConnection(connID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[connID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Registry) ByRole(role engine.Role) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.assignments[role]
	if !ok {
		return Participant{}, false
	}
	p, ok := r.players[connID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Registry) RoleAssigned(role engine.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.assignments[role]
	return ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// All returns every participant ordered by role.
func (r *Registry) All() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Participant, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Participant) int {
		switch {
		case a.Role < b.Role:
			return -1
		case a.Role > b.Role:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Clear drops every record. Used on shutdown.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.players)
	clear(r.players)
	clear(r.assignments)
	r.log.Info("disconnected all participants", zap.Int("count", n))
	return n
}
