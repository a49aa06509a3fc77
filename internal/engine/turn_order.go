package engine

// Kind is the fully qualified action expected at a point in the draft.
type Kind string

const (
	KindMapBan    Kind = "MAP_BAN"
	KindMapPick   Kind = "MAP_PICK"
	KindDecider   Kind = "DECIDER"
	KindAgentBan  Kind = "AGENT_BAN"
	KindAgentPick Kind = "AGENT_PICK"
	KindUnknown   Kind = "UNKNOWN"
)

type turnRange struct {
	Phase    Phase
	From, To int
	Kind     Kind
}

// TurnOrder maps action numbers within a phase to the expected kind.
// Agent phase numbering restarts at 1.
var TurnOrder = []turnRange{
	{Phase: PhaseMap, From: 1, To: 6, Kind: KindMapBan},
	{Phase: PhaseMap, From: 7, To: 8, Kind: KindMapPick},
	{Phase: PhaseMap, From: 9, To: 9, Kind: KindDecider},
	{Phase: PhaseAgent, From: 1, To: 15, Kind: KindAgentBan},
	{Phase: PhaseAgent, From: 16, To: 17, Kind: KindAgentPick},
}

func DeriveKind(phase Phase, actionNumber int) Kind {
	for _, r := range TurnOrder {
		if r.Phase == phase && actionNumber >= r.From && actionNumber <= r.To {
			return r.Kind
		}
	}
	return KindUnknown
}

func ExpectedAction(s DraftState) Kind {
	return DeriveKind(s.Phase, s.ActionNumber)
}

// Action collapses a kind to the coarse action family. Unknown kinds map to "".
func (k Kind) Action() Action {
	switch k {
	case KindMapBan, KindAgentBan:
		return ActionBan
	case KindMapPick, KindAgentPick:
		return ActionPick
	case KindDecider:
		return ActionDecider
	default:
		return ""
	}
}
