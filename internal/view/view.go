// Package view derives the participant-facing projection of a DraftState.
// Everything here is a pure function of its input: output never aliases the
// input's slices or maps.
package view

import (
	"github.com/DoyleJ11/draftline/internal/catalog"
	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/pkg/types"
)

// PhaseLabel names the step participants see. Numbers outside the turn table
// fall back to the raw phase.
func PhaseLabel(s engine.DraftState) string {
	if s.Phase == engine.PhaseConclusion {
		return string(engine.PhaseConclusion)
	}
	if k := engine.ExpectedAction(s); k != engine.KindUnknown {
		return string(k)
	}
	return string(s.Phase)
}

func Project(s engine.DraftState) types.ParticipantView {
	label := PhaseLabel(s)

	v := types.ParticipantView{
		Phase:         label,
		CurrentAction: currentAction(label),
		Maps: types.MapView{
			Banned:  assets(s.MapsBanned),
			Picked:  assets(s.MapsPicked),
			Decider: cloneString(s.DeciderMap),
		},
		Agents: types.AgentView{
			Banned: assets(s.AgentsBanned),
			PickA:  cloneString(s.AgentPicks[engine.RoleA]),
			PickB:  cloneString(s.AgentPicks[engine.RoleB]),
		},
		ActionHistory: history(s.ActionHistory),
		TimerState:    s.TimerState,
		TimeRemaining: s.TimerSeconds,
		TeamNames:     make(map[string]string, len(s.TeamNames)),
		TurnNumber:    s.ActionNumber,
	}
	if s.CurrentTurnRole != nil {
		r := string(*s.CurrentTurnRole)
		v.CurrentPlayer = &r
	}
	for role, name := range s.TeamNames {
		v.TeamNames[string(role)] = name
	}
	return v
}

// AvailableOptions lists the legal selections for the current step in catalog
// order. The decider step offers exactly the picked maps, in pick order.
func AvailableOptions(s engine.DraftState) []string {
	kind := engine.ExpectedAction(s)

	var pool []string
	switch kind {
	case engine.KindDecider:
		return engine.PickedMapNames(s)
	case engine.KindMapBan, engine.KindMapPick:
		pool = catalog.Maps()
	case engine.KindAgentBan, engine.KindAgentPick:
		pool = catalog.Agents()
	default:
		return []string{}
	}

	taken := engine.TakenAssets(s, kind)
	out := make([]string, 0, len(pool))
	for _, name := range pool {
		if !taken[name] {
			out = append(out, name)
		}
	}
	return out
}

func TurnStart(s engine.DraftState, role engine.Role, timeLimit int) types.TurnStart {
	label := PhaseLabel(s)
	action := ""
	if a := currentAction(label); a != nil {
		action = *a
	}
	return types.TurnStart{
		Player:           string(role),
		TimeLimit:        timeLimit,
		Phase:            label,
		Action:           action,
		AvailableOptions: AvailableOptions(s),
		State:            Project(s),
	}
}

func currentAction(label string) *string {
	a := engine.Kind(label).Action()
	if a == "" {
		return nil
	}
	s := string(a)
	return &s
}

func assets(list []engine.AssetSelection) []types.PlayerAsset {
	out := make([]types.PlayerAsset, 0, len(list))
	for _, a := range list {
		out = append(out, types.PlayerAsset{Name: a.AssetName, Player: string(a.Role)})
	}
	return out
}

func history(entries []engine.HistoryEntry) []types.PlayerAction {
	out := make([]types.PlayerAction, 0, len(entries))
	for _, e := range entries {
		action := e.ActionKind.Action()
		if coarse, ok := engine.ParseAction(string(e.ActionKind)); ok {
			action = coarse
		}
		if action == "" {
			action = engine.ActionBan
		}
		out = append(out, types.PlayerAction{
			Player:      string(e.Role),
			Action:      string(action),
			Selection:   e.AssetName,
			TimestampMs: e.TimestampMs,
		})
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
