package engine

import "maps"

// Clone returns a deep copy of s.
func (s DraftState) Clone() DraftState {
	c := s
	c.CurrentTurnRole = clonePtr(s.CurrentTurnRole)
	c.EventStarted = clonePtr(s.EventStarted)
	c.DeciderMap = clonePtr(s.DeciderMap)
	c.PendingSelection = clonePtr(s.PendingSelection)
	c.TeamNames = maps.Clone(s.TeamNames)
	c.MapsBanned = cloneSlice(s.MapsBanned)
	c.MapsPicked = cloneSlice(s.MapsPicked)
	c.AgentsBanned = cloneSlice(s.AgentsBanned)
	c.ActionHistory = cloneSlice(s.ActionHistory)
	c.RevealedActions = cloneSlice(s.RevealedActions)
	if s.AgentPicks != nil {
		c.AgentPicks = make(map[Role]*string, len(s.AgentPicks))
		for r, p := range s.AgentPicks {
			c.AgentPicks[r] = clonePtr(p)
		}
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// PickedMapNames returns the picked map names in pick order.
func PickedMapNames(s DraftState) []string {
	names := make([]string, 0, len(s.MapsPicked))
	for _, p := range s.MapsPicked {
		names = append(names, p.AssetName)
	}
	return names
}

// Banned and picked asset names for the asset class of kind.
func TakenAssets(s DraftState, kind Kind) map[string]bool {
	taken := map[string]bool{}
	switch kind {
	case KindMapBan, KindMapPick, KindDecider:
		for _, b := range s.MapsBanned {
			taken[b.AssetName] = true
		}
		for _, p := range s.MapsPicked {
			taken[p.AssetName] = true
		}
	case KindAgentBan, KindAgentPick:
		for _, b := range s.AgentsBanned {
			taken[b.AssetName] = true
		}
		for _, r := range Roles {
			if pick := s.AgentPicks[r]; pick != nil {
				taken[*pick] = true
			}
		}
	}
	return taken
}
