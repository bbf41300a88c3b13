package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ApplyResult is returned by Apply: new state, events to broadcast, and an
// optional hint for the requesting player only (never broadcast).
type ApplyResult struct {
	State  *GameState
	Events []BroadcastEvent
	Hint   *Hint
	Error  error
}

// BroadcastEvent represents an event to broadcast (type + payload).
type BroadcastEvent struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// RosterEntry is one seat of a game as stored at creation time.
type RosterEntry struct {
	ID   string
	Name string
	IsAI bool
}

// GameStore is the persistence surface the engine needs (implemented by
// store.GameStore; kept as an interface to avoid a circular import and to
// allow fakes in tests).
type GameStore interface {
	GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error)
	CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (int32, error)
	UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error
	GetGameRoster(ctx context.Context, gameID string) ([]RosterEntry, error)
	GetGameConfig(ctx context.Context, gameID string) (map[string]interface{}, error)
}

// EventStore appends to the per-game event log.
type EventStore interface {
	AppendEvent(ctx context.Context, gameID string, playerID *string, eventType string, payload map[string]interface{}) error
}

// Wallet is the coin balance surface (implemented by kv.WalletStore).
// Debit floors at zero and returns the new balance.
type Wallet interface {
	Balance(ctx context.Context, playerID string) (int, error)
	Credit(ctx context.Context, playerID string, amount int) (int, error)
	Debit(ctx context.Context, playerID string, amount int) (int, error)
}

// AdminFlag reports whether the debug override is active (implemented by
// debug.Mode). When enabled, all spend checks are bypassed.
type AdminFlag interface {
	Enabled() bool
}

// Engine applies actions and drives phase transitions.
type Engine struct {
	store  GameStore
	events EventStore
	wallet Wallet
	admin  AdminFlag
	config RulesConfig

	// rngMu guards rng: Apply runs on request goroutines and on the
	// director's timer goroutines, and rand.Rand is not safe for
	// concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an engine with the given stores and config. wallet and
// admin may be nil for wallet-less games (all seats AI, or tests).
func NewEngine(store GameStore, events EventStore, wallet Wallet, admin AdminFlag, config RulesConfig) *Engine {
	if config.Phases == nil {
		config = DefaultConfig()
	}
	if config.TotalRounds <= 0 {
		config.TotalRounds = 10
	}
	if config.HintPrices == nil {
		config.HintPrices = DefaultHintPrices()
	}
	return &Engine{
		store:  store,
		events: events,
		wallet: wallet,
		admin:  admin,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Config returns the rule set the engine runs with.
func (e *Engine) Config() RulesConfig { return e.config }

// deal allocates n roles under the rng lock.
func (e *Engine) deal(n int) ([]Role, error) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return AllocateRoles(n, e.rng)
}

// GetState loads the latest snapshot for the game. Returns nil when the game
// has no snapshot yet.
func (e *Engine) GetState(ctx context.Context, gameID string) (*GameState, error) {
	m, err := e.store.GetLatestSnapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return StateFromMap(m), nil
}

// Apply validates the action, applies it, and persists event + snapshot.
// Wallet mutations (hint price, wrong-guess penalty, completion reward)
// happen here as well, so callers never touch coins directly.
func (e *Engine) Apply(ctx context.Context, gameID, playerID, action string, payload map[string]interface{}) ApplyResult {
	state, err := e.GetState(ctx, gameID)
	if err != nil {
		return ApplyResult{Error: fmt.Errorf("get state: %w", err)}
	}

	// No snapshot, or an untouched lobby snapshot: only start_game is valid.
	if state == nil || (state.Phase == PhaseLobby && len(state.Players) == 0) {
		if action != ActionStartGame {
			return ApplyResult{Error: ErrGameNotStarted}
		}
		return e.bootstrapAndStart(ctx, gameID, playerID)
	}

	if state.Status == "finished" && action != ActionResetGame {
		return ApplyResult{Error: ErrGameFinished}
	}
	if state.PlayerByID(playerID) == nil {
		return ApplyResult{Error: ErrNotInGame}
	}
	if !e.actionAllowed(state.Phase, action) {
		return ApplyResult{Error: fmt.Errorf("%w: %s in %s", ErrWrongPhase, action, state.Phase)}
	}

	var (
		next   *GameState
		events []BroadcastEvent
		hint   *Hint
	)
	switch action {
	case ActionStartGame:
		return ApplyResult{Error: fmt.Errorf("%w: %s in %s", ErrWrongPhase, action, state.Phase)}
	case ActionRevealRole:
		next, events, err = e.applyReveal(state, playerID)
	case ActionGuess:
		next, events, err = e.applyGuess(ctx, state, playerID, payload)
	case ActionBuyHint:
		next, events, hint, err = e.applyBuyHint(ctx, state, playerID, payload)
	case ActionNextRound:
		next, events, err = e.applyNextRound(ctx, state)
	case ActionResetGame:
		next, events, err = e.applyReset(ctx, state)
	default:
		return ApplyResult{Error: fmt.Errorf("unknown action %q", action)}
	}
	if err != nil {
		return ApplyResult{Error: err}
	}

	if err := e.persist(ctx, gameID, &playerID, action, payload, next); err != nil {
		return ApplyResult{Error: err}
	}
	return ApplyResult{State: next, Events: events, Hint: hint}
}

// bootstrapAndStart builds the initial round from the stored roster and
// per-game config, deals roles, and enters role_reveal.
func (e *Engine) bootstrapAndStart(ctx context.Context, gameID, playerID string) ApplyResult {
	roster, err := e.store.GetGameRoster(ctx, gameID)
	if err != nil {
		return ApplyResult{Error: fmt.Errorf("get roster: %w", err)}
	}
	n := len(roster)
	if n < e.config.MinPlayers {
		return ApplyResult{Error: ErrTooFewPlayers}
	}
	if n > e.config.MaxPlayers {
		return ApplyResult{Error: ErrTooManyPlayers}
	}

	totalRounds := e.config.TotalRounds
	points := DefaultRolePoints()
	if cfg, err := e.store.GetGameConfig(ctx, gameID); err == nil && cfg != nil {
		if v, ok := mapInt(cfg["total_rounds"]); ok && v >= 1 {
			totalRounds = v
		}
		if raw, ok := cfg["role_points"].(map[string]interface{}); ok {
			for role, v := range raw {
				if nv, ok := mapInt(v); ok {
					points[Role(role)] = nv
				}
			}
		}
	}

	roles, err := e.deal(n)
	if err != nil {
		return ApplyResult{Error: err}
	}
	players := make([]Player, n)
	for i, entry := range roster {
		players[i] = Player{
			ID:   entry.ID,
			Name: entry.Name,
			IsAI: entry.IsAI,
			Role: roles[i],
		}
	}

	state := &GameState{
		GameID:      gameID,
		Phase:       PhaseRoleReveal,
		Status:      "in_progress",
		Round:       1,
		TotalRounds: totalRounds,
		Players:     players,
		RolePoints:  points,
	}
	if err := e.events.AppendEvent(ctx, gameID, &playerID, ActionStartGame, map[string]interface{}{
		"action": ActionStartGame,
	}); err != nil {
		return ApplyResult{Error: fmt.Errorf("persist event: %w", err)}
	}
	version, err := e.store.CreateOrUpdateSnapshot(ctx, gameID, state.ToMap())
	if err != nil {
		return ApplyResult{Error: fmt.Errorf("create initial snapshot: %w", err)}
	}
	state.Version = int(version)
	if err := e.store.UpdateGameStatus(ctx, gameID, "in_progress", nil); err != nil {
		return ApplyResult{Error: fmt.Errorf("update game status: %w", err)}
	}

	ev := BroadcastEvent{Event: "game_started", Payload: map[string]interface{}{
		"round": state.Round, "total_rounds": state.TotalRounds, "phase": state.Phase,
	}}
	return ApplyResult{State: state, Events: []BroadcastEvent{ev}}
}

func (e *Engine) applyReveal(state *GameState, playerID string) (*GameState, []BroadcastEvent, error) {
	next := state.Clone()
	p := next.PlayerByID(playerID)
	if p.Revealed {
		return nil, nil, ErrAlreadyRevealed
	}
	p.Revealed = true
	events := []BroadcastEvent{{Event: "role_revealed", Payload: map[string]interface{}{
		"player_id": playerID,
	}}}
	if next.AllRevealed() {
		next.Phase = PhaseGuess
		events = append(events, BroadcastEvent{Event: "guess_phase", Payload: map[string]interface{}{
			"round": next.Round, "phase": next.Phase,
		}})
	}
	return next, events, nil
}

// applyGuess adjudicates the minister's accusation. Correct: minister earns
// the round points. Wrong: the thief earns them and the minister's score is
// reset to zero; a human minister additionally pays the coin penalty.
func (e *Engine) applyGuess(ctx context.Context, state *GameState, playerID string, payload map[string]interface{}) (*GameState, []BroadcastEvent, error) {
	if state.GuessResolved {
		return nil, nil, ErrGuessResolved
	}
	minister := state.PlayerByRole(RoleMinister)
	thief := state.PlayerByRole(RoleThief)
	if minister == nil || thief == nil {
		return nil, nil, fmt.Errorf("%w: minister=%v thief=%v", ErrMissingCoreRole, minister != nil, thief != nil)
	}
	if playerID != minister.ID {
		return nil, nil, ErrNotMinister
	}
	accusedID, _ := payload["accused_id"].(string)
	if accusedID == minister.ID {
		return nil, nil, ErrGuessSelf
	}
	accused := state.PlayerByID(accusedID)
	if accused == nil {
		return nil, nil, fmt.Errorf("%w: accused %q", ErrNotInGame, accusedID)
	}

	next := state.Clone()
	points := next.RolePoints.MinisterPoints()
	correct := accused.ID == thief.ID
	if correct {
		next.PlayerByID(minister.ID).Score += points
	} else {
		next.PlayerByID(thief.ID).Score += points
		next.PlayerByID(minister.ID).Score = 0
		if !minister.IsAI && !e.adminEnabled() && e.wallet != nil {
			if _, err := e.wallet.Debit(ctx, minister.ID, e.config.WrongGuessPenalty); err != nil {
				return nil, nil, fmt.Errorf("debit wrong-guess penalty: %w", err)
			}
		}
	}
	next.GuessResolved = true
	next.Phase = PhaseResolved

	ev := BroadcastEvent{Event: "guess_resolved", Payload: map[string]interface{}{
		"correct":     correct,
		"accused_id":  accused.ID,
		"thief_id":    thief.ID,
		"minister_id": minister.ID,
		"points":      points,
	}}
	return next, []BroadcastEvent{ev}, nil
}

// applyBuyHint debits the tier price and composes the disclosure. The hint
// text goes back to the purchaser only; the broadcast just records that a
// hint was bought.
func (e *Engine) applyBuyHint(ctx context.Context, state *GameState, playerID string, payload map[string]interface{}) (*GameState, []BroadcastEvent, *Hint, error) {
	minister := state.PlayerByRole(RoleMinister)
	if minister == nil {
		return nil, nil, nil, fmt.Errorf("%w: no minister assigned", ErrMissingCoreRole)
	}
	if playerID != minister.ID {
		return nil, nil, nil, ErrNotMinister
	}
	if state.HintUsed {
		return nil, nil, nil, ErrHintUsed
	}
	tierStr, _ := payload["tier"].(string)
	tier := HintTier(tierStr)
	price, ok := e.config.HintPrices[tier]
	if !ok {
		return nil, nil, nil, ErrUnknownHintTier
	}

	if !e.adminEnabled() {
		if e.wallet == nil {
			return nil, nil, nil, ErrInsufficientCoins
		}
		balance, err := e.wallet.Balance(ctx, playerID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("wallet balance: %w", err)
		}
		if balance < price {
			return nil, nil, nil, ErrInsufficientCoins
		}
	}

	e.rngMu.Lock()
	hint, err := composeHint(state, tier, price, e.rng)
	e.rngMu.Unlock()
	if err != nil {
		return nil, nil, nil, err
	}

	if !e.adminEnabled() {
		if _, err := e.wallet.Debit(ctx, playerID, price); err != nil {
			return nil, nil, nil, fmt.Errorf("debit hint price: %w", err)
		}
	}

	next := state.Clone()
	next.HintUsed = true
	ev := BroadcastEvent{Event: "hint_purchased", Payload: map[string]interface{}{
		"player_id": playerID, "tier": string(tier), "cost": price,
	}}
	return next, []BroadcastEvent{ev}, hint, nil
}

// applyNextRound advances past a resolved round: either re-deal for the next
// round or finish the game and pay out completion rewards.
func (e *Engine) applyNextRound(ctx context.Context, state *GameState) (*GameState, []BroadcastEvent, error) {
	if !state.GuessResolved {
		return nil, nil, ErrRoundNotResolved
	}
	next := state.Clone()
	if next.Round >= next.TotalRounds {
		next.Phase = PhaseComplete
		next.Status = "finished"
		if next.HasHuman() && e.wallet != nil && e.config.CompletionReward > 0 {
			for _, p := range next.Players {
				if p.IsAI {
					continue
				}
				if _, err := e.wallet.Credit(ctx, p.ID, e.config.CompletionReward); err != nil {
					return nil, nil, fmt.Errorf("credit completion reward: %w", err)
				}
			}
		}
		ev := BroadcastEvent{Event: "game_over", Payload: map[string]interface{}{
			"scores": scoreBoard(next),
		}}
		return next, []BroadcastEvent{ev}, nil
	}

	next.Round++
	if err := e.redeal(next); err != nil {
		return nil, nil, err
	}
	ev := BroadcastEvent{Event: "round_started", Payload: map[string]interface{}{
		"round": next.Round, "total_rounds": next.TotalRounds, "phase": next.Phase,
	}}
	return next, []BroadcastEvent{ev}, nil
}

// applyReset is "play again": scores to zero, round one, fresh deal; player
// identities, role points, and total rounds survive.
func (e *Engine) applyReset(ctx context.Context, state *GameState) (*GameState, []BroadcastEvent, error) {
	next := state.Clone()
	next.Round = 1
	next.Status = "in_progress"
	for i := range next.Players {
		next.Players[i].Score = 0
	}
	if err := e.redeal(next); err != nil {
		return nil, nil, err
	}
	if err := e.store.UpdateGameStatus(ctx, state.GameID, "in_progress", nil); err != nil {
		return nil, nil, fmt.Errorf("update game status: %w", err)
	}
	ev := BroadcastEvent{Event: "game_reset", Payload: map[string]interface{}{
		"round": next.Round, "total_rounds": next.TotalRounds,
	}}
	return next, []BroadcastEvent{ev}, nil
}

// redeal reallocates roles positionally and clears the per-round flags.
func (e *Engine) redeal(s *GameState) error {
	roles, err := e.deal(len(s.Players))
	if err != nil {
		return err
	}
	for i := range s.Players {
		s.Players[i].Role = roles[i]
		s.Players[i].Revealed = false
	}
	s.HintUsed = false
	s.GuessResolved = false
	s.Phase = PhaseRoleReveal
	return nil
}

// persist appends the event row and writes the snapshot, then flips the game
// row to finished when the state says so.
func (e *Engine) persist(ctx context.Context, gameID string, playerID *string, action string, payload map[string]interface{}, next *GameState) error {
	if next == nil {
		return fmt.Errorf("no state update")
	}
	// Copy before tagging the action so the caller's payload stays untouched.
	eventPayload := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		eventPayload[k] = v
	}
	eventPayload["action"] = action
	if err := e.events.AppendEvent(ctx, gameID, playerID, action, eventPayload); err != nil {
		return fmt.Errorf("persist event: %w", err)
	}
	version, err := e.store.CreateOrUpdateSnapshot(ctx, gameID, next.ToMap())
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	next.Version = int(version)
	if next.Status == "finished" {
		now := time.Now()
		_ = e.store.UpdateGameStatus(ctx, gameID, "finished", &now)
	}
	return nil
}

func (e *Engine) actionAllowed(phase, action string) bool {
	for _, a := range e.config.allowedActions(phase) {
		if a == action {
			return true
		}
	}
	return false
}

func (e *Engine) adminEnabled() bool {
	return e.admin != nil && e.admin.Enabled()
}

// PickAIGuess chooses the AI minister's accusation: the true thief with the
// configured accuracy, otherwise a uniform non-thief suspect. Falls back to
// the thief when there is no other candidate.
func (e *Engine) PickAIGuess(state *GameState) (string, error) {
	thief := state.PlayerByRole(RoleThief)
	if thief == nil {
		return "", fmt.Errorf("%w: no thief assigned", ErrMissingCoreRole)
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	if e.rng.Float64() < e.config.AIAccuracy {
		return thief.ID, nil
	}
	var decoys []string
	for _, p := range state.Suspects() {
		if p.ID != thief.ID {
			decoys = append(decoys, p.ID)
		}
	}
	if len(decoys) == 0 {
		return thief.ID, nil
	}
	return decoys[e.rng.Intn(len(decoys))], nil
}

func scoreBoard(s *GameState) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, map[string]interface{}{
			"player_id": p.ID, "name": p.Name, "score": p.Score,
		})
	}
	return out
}
