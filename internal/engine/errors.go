package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEventNotStarted = errors.New("event not started")
var ErrTournamentCompleted = errors.New("tournament completed")
var ErrNotPlayerTurn = errors.New("not player turn")
var ErrUnknownAction = errors.New("unknown action type")
var ErrInvalidPhase = errors.New("invalid action for phase")
var ErrAssetNotFound = errors.New("asset not found")
var ErrAssetAlreadyBanned = errors.New("asset already banned")
var ErrAssetAlreadyPicked = errors.New("asset already picked")
var ErrDeciderNotFromPicked = errors.New("decider not from picked maps")

type Code string

const (
	CodeEventNotStarted     Code = "EVENT_NOT_STARTED"
	CodeTournamentCompleted Code = "TOURNAMENT_COMPLETED"
	CodeNotPlayerTurn       Code = "NOT_PLAYER_TURN"
	CodeUnknownAction       Code = "UNKNOWN_ACTION"
	CodeInvalidPhase        Code = "INVALID_PHASE"
	CodeAssetNotFound       Code = "ASSET_NOT_FOUND"
	CodeAssetAlreadyBanned  Code = "ASSET_ALREADY_BANNED"
	CodeAssetAlreadyPicked  Code = "ASSET_ALREADY_PICKED"
	CodeDeciderInvalid      Code = "DECIDER_INVALID"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
)

// ValidationError describes why a proposed action was rejected. Err is one of
// the package sentinels; the remaining fields are filled according to it.
type ValidationError struct {
	Err error

	Received Role // NotPlayerTurn
	Current  Role

	Action Action // InvalidPhase, UnknownAction
	Phase  Phase

	Asset      string
	AssetType  string   // AssetNotFound
	Role       Role     // AlreadyBanned, AlreadyPicked
	PickedMaps []string // DeciderNotFromPicked
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Code() Code {
	switch e.Err {
	case ErrEventNotStarted:
		return CodeEventNotStarted
	case ErrTournamentCompleted:
		return CodeTournamentCompleted
	case ErrNotPlayerTurn:
		return CodeNotPlayerTurn
	case ErrUnknownAction:
		return CodeUnknownAction
	case ErrInvalidPhase:
		return CodeInvalidPhase
	case ErrAssetNotFound:
		return CodeAssetNotFound
	case ErrAssetAlreadyBanned:
		return CodeAssetAlreadyBanned
	case ErrAssetAlreadyPicked:
		return CodeAssetAlreadyPicked
	case ErrDeciderNotFromPicked:
		return CodeDeciderInvalid
	default:
		return CodeValidationFailed
	}
}

// Error renders the message shown to the participant.
func (e *ValidationError) Error() string {
	switch e.Err {
	case ErrEventNotStarted:
		return "Tournament has not started yet. Wait for the admin to start the event."
	case ErrTournamentCompleted:
		return "Tournament has already completed. No further actions are allowed."
	case ErrNotPlayerTurn:
		if e.Current == "" {
			return fmt.Sprintf("Not your turn. Player '%s' submitted action, but no player is currently on the clock.", e.Received)
		}
		return fmt.Sprintf("Not your turn. Player '%s' submitted action, but it's %s's turn.", e.Received, e.Current)
	case ErrUnknownAction:
		return fmt.Sprintf("Unknown action type '%s'. Valid actions are BAN, PICK, DECIDER.", e.Action)
	case ErrInvalidPhase:
		return fmt.Sprintf("Invalid action '%s' for current phase '%s'. Check the tournament progression.", e.Action, e.Phase)
	case ErrAssetNotFound:
		return fmt.Sprintf("Unknown %s '%s'. Please select from available options.", e.AssetType, e.Asset)
	case ErrAssetAlreadyBanned:
		return fmt.Sprintf("'%s' was already banned by %s. Choose a different option.", e.Asset, e.Role)
	case ErrAssetAlreadyPicked:
		return fmt.Sprintf("'%s' was already picked by %s. Choose a different option.", e.Asset, e.Role)
	case ErrDeciderNotFromPicked:
		return fmt.Sprintf("Decider map '%s' must be selected from picked maps: %s. Please choose from the available options.",
			e.Asset, strings.Join(e.PickedMaps, ", "))
	case nil:
		return "validation failed"
	default:
		return e.Err.Error()
	}
}

// CodeOf returns the code for a validation failure, or "" if err is not one.
func CodeOf(err error) Code {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code()
	}
	return ""
}
