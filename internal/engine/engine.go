package engine

import (
	"slices"

	"github.com/DoyleJ11/draftline/internal/catalog"
)

type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Roles lists the session slots in assignment order.
var Roles = []Role{RoleA, RoleB}

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleA, RoleB:
		return Role(s), true
	default:
		return "", false
	}
}

// Action is the coarse kind a participant submits.
type Action string

const (
	ActionBan     Action = "BAN"
	ActionPick    Action = "PICK"
	ActionDecider Action = "DECIDER"
)

func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionBan, ActionPick, ActionDecider:
		return Action(s), true
	default:
		return "", false
	}
}

type Phase string

const (
	PhaseMap        Phase = "MAP_PHASE"
	PhaseAgent      Phase = "AGENT_PHASE"
	PhaseConclusion Phase = "CONCLUSION"
)

type AssetSelection struct {
	AssetName string `json:"assetName"`
	Role      Role   `json:"role"`
}

type HistoryEntry struct {
	ActionNumber int    `json:"actionNumber"`
	Role         Role   `json:"role"`
	ActionKind   Kind   `json:"actionKind"`
	AssetName    string `json:"assetName"`
	TimestampMs  int64  `json:"timestampMs"`
}

// DraftState is the authoritative session state. Only the controller writes it;
// everything in this package treats it as read-only input.
type DraftState struct {
	Phase           Phase            `json:"phase"`
	CurrentTurnRole *Role            `json:"currentTurnRole"`
	ActionNumber    int              `json:"actionNumber"`
	FirstRole       Role             `json:"firstRole"`
	EventStarted    *bool            `json:"eventStarted"`
	TeamNames       map[Role]string  `json:"teamNames"`
	MapsBanned      []AssetSelection `json:"mapsBanned"`
	MapsPicked      []AssetSelection `json:"mapsPicked"`
	DeciderMap      *string          `json:"deciderMap"`
	AgentsBanned    []AssetSelection `json:"agentsBanned"`
	AgentPicks      map[Role]*string `json:"agentPicks"`
	TimerState      string           `json:"timerState"`
	TimerSeconds    int              `json:"timerSeconds"`
	ActionHistory   []HistoryEntry   `json:"actionHistory"`

	// Controller-only overlay bookkeeping, never shown to participants.
	PendingSelection *string `json:"pendingSelection,omitempty"`
	RevealedActions  []int   `json:"revealedActions,omitempty"`
}

// ValidatedAction is an accepted proposal handed to the controller to fold
// into the next DraftState.
type ValidatedAction struct {
	Role         Role   `json:"role"`
	ActionKind   Action `json:"actionKind"`
	Kind         Kind   `json:"kind"`
	AssetName    string `json:"assetName"`
	TimestampMs  int64  `json:"timestampMs"`
	ConnectionID string `json:"connectionId"`
	ActionNumber int    `json:"actionNumber"`
	Phase        Phase  `json:"phase"`
}

// Validate checks a proposed action against s. Checks run in a fixed order and
// the first failure is returned as a *ValidationError. s is never modified.
func Validate(s DraftState, role Role, action Action, asset string) (ValidatedAction, error) {
	if s.EventStarted == nil || !*s.EventStarted {
		return ValidatedAction{}, &ValidationError{Err: ErrEventNotStarted}
	}

	if s.Phase == PhaseConclusion {
		return ValidatedAction{}, &ValidationError{Err: ErrTournamentCompleted}
	}

	if s.CurrentTurnRole == nil || *s.CurrentTurnRole != role {
		var current Role
		if s.CurrentTurnRole != nil {
			current = *s.CurrentTurnRole
		}
		return ValidatedAction{}, &ValidationError{Err: ErrNotPlayerTurn, Received: role, Current: current}
	}

	if _, ok := ParseAction(string(action)); !ok {
		return ValidatedAction{}, &ValidationError{Err: ErrUnknownAction, Action: action}
	}

	kind := ExpectedAction(s)
	if kind.Action() != action {
		return ValidatedAction{}, &ValidationError{Err: ErrInvalidPhase, Action: action, Phase: s.Phase}
	}

	if err := validateAsset(s, kind, asset); err != nil {
		return ValidatedAction{}, err
	}

	return ValidatedAction{
		Role:         role,
		ActionKind:   action,
		Kind:         kind,
		AssetName:    asset,
		ActionNumber: s.ActionNumber,
		Phase:        s.Phase,
	}, nil
}

func validateAsset(s DraftState, kind Kind, asset string) error {
	switch kind {
	case KindMapBan, KindMapPick:
		if !catalog.IsMap(asset) {
			return &ValidationError{Err: ErrAssetNotFound, Asset: asset, AssetType: "map"}
		}
		if by, ok := selectedBy(s.MapsBanned, asset); ok {
			return &ValidationError{Err: ErrAssetAlreadyBanned, Asset: asset, Role: by}
		}
		if by, ok := selectedBy(s.MapsPicked, asset); ok {
			return &ValidationError{Err: ErrAssetAlreadyPicked, Asset: asset, Role: by}
		}

	case KindDecider:
		picked := PickedMapNames(s)
		if !slices.Contains(picked, asset) {
			return &ValidationError{Err: ErrDeciderNotFromPicked, Asset: asset, PickedMaps: picked}
		}

	case KindAgentBan, KindAgentPick:
		if !catalog.IsAgent(asset) {
			return &ValidationError{Err: ErrAssetNotFound, Asset: asset, AssetType: "agent"}
		}
		if by, ok := selectedBy(s.AgentsBanned, asset); ok {
			return &ValidationError{Err: ErrAssetAlreadyBanned, Asset: asset, Role: by}
		}
		if by, ok := agentPickedBy(s, asset); ok {
			return &ValidationError{Err: ErrAssetAlreadyPicked, Asset: asset, Role: by}
		}

	default:
		return &ValidationError{Err: ErrUnknownAction, Action: Action(kind)}
	}

	return nil
}

func selectedBy(list []AssetSelection, asset string) (Role, bool) {
	for _, sel := range list {
		if sel.AssetName == asset {
			return sel.Role, true
		}
	}
	return "", false
}

// Roles are checked in assignment order so the result does not depend on map iteration.
func agentPickedBy(s DraftState, asset string) (Role, bool) {
	for _, r := range Roles {
		if pick := s.AgentPicks[r]; pick != nil && *pick == asset {
			return r, true
		}
	}
	return "", false
}
