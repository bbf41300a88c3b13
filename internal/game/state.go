package game

// Player is one seat in the game. ID and Name are fixed at setup; Role is
// rebound every round; Score accumulates until an explicit reset.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role,omitempty"`
	Score    int    `json:"score"`
	IsAI     bool   `json:"is_ai,omitempty"`
	Revealed bool   `json:"revealed,omitempty"`
}

// GameState is the full engine state, serialized to JSON for snapshots.
// Players keep join order; roles bind to players positionally.
type GameState struct {
	GameID      string     `json:"game_id"`
	Phase       string     `json:"phase"`
	Status      string     `json:"status"` // waiting | in_progress | finished
	Round       int        `json:"round"`  // 1-based
	TotalRounds int        `json:"total_rounds"`
	Players     []Player   `json:"players"`
	RolePoints  RolePoints `json:"role_points,omitempty"`
	// HintUsed is set when the minister buys a hint; at most one per round.
	HintUsed bool `json:"hint_used,omitempty"`
	// GuessResolved guards against a second resolution in the same round.
	GuessResolved bool `json:"guess_resolved,omitempty"`
	// Version is incremented on each snapshot write (set by the store).
	Version int `json:"version,omitempty"`
}

// Clone returns a copy safe to mutate without touching the original.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Players != nil {
		out.Players = make([]Player, len(s.Players))
		copy(out.Players, s.Players)
	}
	if s.RolePoints != nil {
		out.RolePoints = make(RolePoints, len(s.RolePoints))
		for k, v := range s.RolePoints {
			out.RolePoints[k] = v
		}
	}
	return &out
}

// PlayerByID returns a pointer into Players, or nil when absent.
func (s *GameState) PlayerByID(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// PlayerByRole returns the player currently holding role, or nil. The
// allocator guarantees at most one holder per role.
func (s *GameState) PlayerByRole(role Role) *Player {
	for i := range s.Players {
		if s.Players[i].Role == role {
			return &s.Players[i]
		}
	}
	return nil
}

// Suspects returns the players the minister may accuse: everyone except the
// king and the minister. The thief is always among them.
func (s *GameState) Suspects() []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Role == RoleKing || p.Role == RoleMinister {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AllRevealed reports whether every player has acknowledged their role.
func (s *GameState) AllRevealed() bool {
	for _, p := range s.Players {
		if !p.Revealed {
			return false
		}
	}
	return len(s.Players) > 0
}

// HasHuman reports whether at least one seat is human-controlled.
func (s *GameState) HasHuman() bool {
	for _, p := range s.Players {
		if !p.IsAI {
			return true
		}
	}
	return false
}

// ToMap converts state to a map for the JSON snapshot.
func (s *GameState) ToMap() map[string]interface{} {
	if s == nil {
		return nil
	}
	players := make([]interface{}, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"role":     string(p.Role),
			"score":    p.Score,
			"is_ai":    p.IsAI,
			"revealed": p.Revealed,
		})
	}
	m := map[string]interface{}{
		"game_id":      s.GameID,
		"phase":        s.Phase,
		"status":       s.Status,
		"round":        s.Round,
		"total_rounds": s.TotalRounds,
		"players":      players,
		"version":      s.Version,
	}
	if len(s.RolePoints) > 0 {
		points := make(map[string]interface{}, len(s.RolePoints))
		for role, v := range s.RolePoints {
			points[string(role)] = v
		}
		m["role_points"] = points
	}
	if s.HintUsed {
		m["hint_used"] = true
	}
	if s.GuessResolved {
		m["guess_resolved"] = true
	}
	return m
}

// StateFromMap reconstructs GameState from a snapshot map (e.g. from DB).
func StateFromMap(m map[string]interface{}) *GameState {
	if m == nil {
		return nil
	}
	s := &GameState{}
	if v, ok := m["game_id"].(string); ok {
		s.GameID = v
	}
	if v, ok := m["phase"].(string); ok {
		s.Phase = v
	}
	if v, ok := m["status"].(string); ok {
		s.Status = v
	}
	if v, ok := mapInt(m["round"]); ok {
		s.Round = v
	}
	if v, ok := mapInt(m["total_rounds"]); ok {
		s.TotalRounds = v
	}
	if v, ok := mapInt(m["version"]); ok {
		s.Version = v
	}
	if v, ok := m["hint_used"].(bool); ok {
		s.HintUsed = v
	}
	if v, ok := m["guess_resolved"].(bool); ok {
		s.GuessResolved = v
	}
	if raw, ok := m["players"].([]interface{}); ok {
		s.Players = make([]Player, 0, len(raw))
		for _, entry := range raw {
			pm, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			var p Player
			if v, ok := pm["id"].(string); ok {
				p.ID = v
			}
			if v, ok := pm["name"].(string); ok {
				p.Name = v
			}
			if v, ok := pm["role"].(string); ok {
				p.Role = Role(v)
			}
			if v, ok := mapInt(pm["score"]); ok {
				p.Score = v
			}
			if v, ok := pm["is_ai"].(bool); ok {
				p.IsAI = v
			}
			if v, ok := pm["revealed"].(bool); ok {
				p.Revealed = v
			}
			s.Players = append(s.Players, p)
		}
	}
	if raw, ok := m["role_points"].(map[string]interface{}); ok {
		s.RolePoints = make(RolePoints, len(raw))
		for role, v := range raw {
			if n, ok := mapInt(v); ok {
				s.RolePoints[Role(role)] = n
			}
		}
	}
	return s
}

// mapInt handles both float64 (JSON round trip) and native int values.
func mapInt(a interface{}) (int, bool) {
	switch v := a.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
