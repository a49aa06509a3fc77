// Package types defines the JSON wire protocol between the session server and
// participant clients. Every frame is an envelope {"type": ..., "data": ...}.
package types

import "encoding/json"

// Client -> Server
const (
	EvtJoin   = "join"
	EvtAction = "action"
	EvtPing   = "ping"
)

// Server -> Client
const (
	EvtAssigned        = "assigned"
	EvtJoinError       = "joinError"
	EvtActionResult    = "actionResult"
	EvtActionValidated = "actionValidated"
	EvtStateUpdate     = "stateUpdate"
	EvtTurnStart       = "turnStart"
	EvtTimerControl    = "timerControl"
	EvtSessionStart    = "sessionStart"
	EvtSessionEnd      = "sessionEnd"
	EvtTimerTick       = "timerTick"
	EvtTimerFinished   = "timerFinished"
	EvtPong            = "pong"
	EvtError           = "error"
)

type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type JoinRequest struct {
	DisplayName string `json:"displayName"`
}

type ActionRequest struct {
	Kind        string `json:"kind"` // BAN | PICK | DECIDER
	AssetName   string `json:"assetName"`
	TimestampMs int64  `json:"timestampMs"`
}

type Assigned struct {
	Role string `json:"role"`
}

type JoinError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

type ActionResult struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
	Code    string  `json:"code,omitempty"`
}

// ActionValidated announces an accepted action to every connection. The draft
// state does not change until the controller pushes the next stateUpdate.
type ActionValidated struct {
	Player       string `json:"player"`
	Action       string `json:"action"`
	Selection    string `json:"selection"`
	TimestampMs  int64  `json:"timestampMs"`
	ActionNumber int    `json:"actionNumber"`
}

type TurnStart struct {
	Player           string          `json:"player"`
	TimeLimit        int             `json:"timeLimit"`
	Phase            string          `json:"phase"`
	Action           string          `json:"action"`
	AvailableOptions []string        `json:"availableOptions"`
	State            ParticipantView `json:"tournamentState"`
}

// TimerControl actions.
const (
	TimerPause  = "PAUSE"
	TimerResume = "RESUME"
	TimerStop   = "STOP"
	TimerExtend = "EXTEND"
)

type TimerControl struct {
	Action        string `json:"action"`
	TimeRemaining *int   `json:"timeRemaining,omitempty"`
}

type SessionEnd struct {
	WinnerRole      *string           `json:"winnerRole"`
	FinalMap        string            `json:"finalMap"`
	FinalAgentPicks map[string]string `json:"finalAgentPicks"`
	DurationSeconds int64             `json:"durationSeconds"`
	Summary         string            `json:"summary"`
}

type TimerTick struct {
	Status         string `json:"status"`
	Seconds        int    `json:"seconds"`
	InitialSeconds int    `json:"initialSeconds"`
	TimestampMs    int64  `json:"timestampMs"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}
