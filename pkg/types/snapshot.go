package types

// ParticipantView is the participant-safe projection of the draft state sent
// with stateUpdate, turnStart and sessionStart.
type ParticipantView struct {
	Phase         string            `json:"phase"` // MAP_BAN | MAP_PICK | DECIDER | AGENT_BAN | AGENT_PICK | CONCLUSION
	CurrentPlayer *string           `json:"currentPlayer"`
	CurrentAction *string           `json:"currentAction"` // BAN | PICK | DECIDER
	Maps          MapView           `json:"maps"`
	Agents        AgentView         `json:"agents"`
	ActionHistory []PlayerAction    `json:"actionHistory"`
	TimerState    string            `json:"timerState"`
	TimeRemaining int               `json:"timeRemaining"`
	TeamNames     map[string]string `json:"teamNames"`
	TurnNumber    int               `json:"turnNumber"`
}

type PlayerAsset struct {
	Name   string `json:"name"`
	Player string `json:"player"`
}

type MapView struct {
	Banned  []PlayerAsset `json:"banned"`
	Picked  []PlayerAsset `json:"picked"`
	Decider *string       `json:"decider"`
}

type AgentView struct {
	Banned []PlayerAsset `json:"banned"`
	PickA  *string       `json:"pickA"`
	PickB  *string       `json:"pickB"`
}

type PlayerAction struct {
	Player      string `json:"player"`
	Action      string `json:"action"` // BAN | PICK | DECIDER
	Selection   string `json:"selection"`
	TimestampMs int64  `json:"timestampMs"`
}
