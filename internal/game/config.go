package game

import "time"

// PhaseDef defines a phase: name and the action types allowed in it.
type PhaseDef struct {
	Name           string   `json:"name"`
	AllowedActions []string `json:"allowed_actions"`
}

// RulesConfig holds the phase sequence and the tunable rule constants.
type RulesConfig struct {
	Phases      []PhaseDef `json:"phases"`
	MinPlayers  int        `json:"min_players"`
	MaxPlayers  int        `json:"max_players"`
	TotalRounds int        `json:"total_rounds,omitempty"`
	// WrongGuessPenalty is the coin debit applied to a human minister who
	// accuses the wrong player. The debit floors at zero.
	WrongGuessPenalty int `json:"wrong_guess_penalty,omitempty"`
	// CompletionReward is credited to each human player's wallet when a game
	// with at least one human reaches completion.
	CompletionReward int `json:"completion_reward,omitempty"`
	// AIAccuracy is the probability the AI minister accuses the true thief.
	AIAccuracy float64 `json:"ai_accuracy,omitempty"`
	// Timer delays for the director (AI reveals, AI guess, auto-advance).
	AIRevealStagger time.Duration `json:"-"`
	AIThinkDelay    time.Duration `json:"-"`
	AdvanceDelay    time.Duration `json:"-"`
	// HintPrices per tier. Missing tiers reject the purchase.
	HintPrices map[HintTier]int `json:"hint_prices,omitempty"`
}

// Phase names.
const (
	PhaseLobby      = "lobby"
	PhaseRoleReveal = "role_reveal"
	PhaseGuess      = "guess"
	PhaseResolved   = "resolved"
	PhaseComplete   = "complete"
)

// Action types.
const (
	ActionStartGame  = "start_game"
	ActionRevealRole = "reveal_role"
	ActionGuess      = "guess"
	ActionBuyHint    = "buy_hint"
	ActionNextRound  = "next_round"
	ActionResetGame  = "reset_game"
)

// DefaultPhases is the phase sequence of a standard game.
var DefaultPhases = []PhaseDef{
	{Name: PhaseLobby, AllowedActions: []string{ActionStartGame}},
	{Name: PhaseRoleReveal, AllowedActions: []string{ActionRevealRole}},
	{Name: PhaseGuess, AllowedActions: []string{ActionGuess, ActionBuyHint}},
	{Name: PhaseResolved, AllowedActions: []string{ActionNextRound, ActionResetGame}},
	{Name: PhaseComplete, AllowedActions: []string{ActionResetGame}},
}

// DefaultConfig returns the standard rule set: 10 rounds, 20-coin wrong-guess
// penalty, 75% AI accuracy, and the stock hint prices.
func DefaultConfig() RulesConfig {
	return RulesConfig{
		Phases:            DefaultPhases,
		MinPlayers:        MinPlayers,
		MaxPlayers:        MaxPlayers,
		TotalRounds:       10,
		WrongGuessPenalty: 20,
		CompletionReward:  50,
		AIAccuracy:        0.75,
		AIRevealStagger:   1500 * time.Millisecond,
		AIThinkDelay:      2500 * time.Millisecond,
		AdvanceDelay:      1200 * time.Millisecond,
		HintPrices:        DefaultHintPrices(),
	}
}

// allowedActions returns the action allowlist for a phase.
func (c RulesConfig) allowedActions(phase string) []string {
	for _, p := range c.Phases {
		if p.Name == phase {
			return p.AllowedActions
		}
	}
	return nil
}
