package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/clock"
)

// PublishFunc delivers the result of a director-driven move to whoever
// synchronizes clients (the websocket hub in production).
type PublishFunc func(gameID string, res ApplyResult)

// Director drives the timer-based continuations of a game: staggered AI role
// reveals, the AI minister's think delay, and the automatic advance out of a
// resolved round when no human is steering it.
//
// Every scheduled continuation captures the round it was made for and
// re-checks the live state at fire time; a mismatch means the
// round was superseded (early resolve, reset, teardown) and the continuation
// is dropped rather than mutating stale state.
type Director struct {
	engine  *Engine
	clock   clock.Clock
	publish PublishFunc

	mu     sync.Mutex
	timers map[string][]clock.Timer
}

// NewDirector creates a director. publish may be nil (results are dropped).
func NewDirector(engine *Engine, clk clock.Clock, publish PublishFunc) *Director {
	if clk == nil {
		clk = clock.New()
	}
	return &Director{
		engine:  engine,
		clock:   clk,
		publish: publish,
		timers:  make(map[string][]clock.Timer),
	}
}

// OnStateChange inspects a freshly persisted state and schedules whatever AI
// continuations it calls for. Call it after every Apply that produced a new
// state, including the director's own.
func (d *Director) OnStateChange(state *GameState) {
	if state == nil {
		return
	}
	cfg := d.engine.Config()
	switch state.Phase {
	case PhaseRoleReveal:
		// Schedule reveals only on a fresh deal. Later reveal states come
		// from the timers themselves and would pile up duplicates.
		for _, p := range state.Players {
			if p.Revealed {
				return
			}
		}
		pending := 0
		for _, p := range state.Players {
			if !p.IsAI {
				continue
			}
			pending++
			d.schedule(state, time.Duration(pending)*cfg.AIRevealStagger, p.ID, ActionRevealRole, nil)
		}
	case PhaseGuess:
		minister := state.PlayerByRole(RoleMinister)
		if minister != nil && minister.IsAI {
			d.scheduleAIGuess(state, minister.ID, cfg.AIThinkDelay)
		}
	case PhaseResolved:
		// Keep all-AI games moving; a human minister advances explicitly.
		if minister := state.PlayerByRole(RoleMinister); minister != nil && minister.IsAI {
			d.schedule(state, cfg.AdvanceDelay, minister.ID, ActionNextRound, nil)
		}
	}
}

// Teardown cancels every pending continuation for a game. Must be called when
// the last client detaches or the game is abandoned.
func (d *Director) Teardown(gameID string) {
	d.mu.Lock()
	timers := d.timers[gameID]
	delete(d.timers, gameID)
	d.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

func (d *Director) schedule(state *GameState, delay time.Duration, playerID, action string, payload map[string]interface{}) {
	gameID := state.GameID
	round := state.Round
	t := d.clock.AfterFunc(delay, func() {
		d.fire(gameID, round, playerID, action, payload)
	})
	d.track(gameID, t)
}

func (d *Director) scheduleAIGuess(state *GameState, ministerID string, delay time.Duration) {
	gameID := state.GameID
	round := state.Round
	t := d.clock.AfterFunc(delay, func() {
		live, ok := d.currentState(gameID, round)
		if !ok {
			return
		}
		accusedID, err := d.engine.PickAIGuess(live)
		if err != nil {
			log.Printf("director: pick ai guess game=%s: %v", gameID, err)
			return
		}
		d.apply(gameID, ministerID, ActionGuess, map[string]interface{}{"accused_id": accusedID})
	})
	d.track(gameID, t)
}

// fire re-validates the captured round generation and applies the move.
func (d *Director) fire(gameID string, round int, playerID, action string, payload map[string]interface{}) {
	if _, ok := d.currentState(gameID, round); !ok {
		return
	}
	d.apply(gameID, playerID, action, payload)
}

// currentState loads the live snapshot and checks it still belongs to the
// round the timer was scheduled for. The round number is the generation
// counter: a reset or advance supersedes every timer of the old round.
func (d *Director) currentState(gameID string, round int) (*GameState, bool) {
	state, err := d.engine.GetState(context.Background(), gameID)
	if err != nil || state == nil {
		return nil, false
	}
	if state.Round != round || state.Status == "finished" {
		return nil, false
	}
	return state, true
}

func (d *Director) apply(gameID, playerID, action string, payload map[string]interface{}) {
	res := d.engine.Apply(context.Background(), gameID, playerID, action, payload)
	if res.Error != nil {
		// Expected when a human raced the timer (e.g. guess already resolved).
		log.Printf("director: %s game=%s player=%s: %v", action, gameID, playerID, res.Error)
		return
	}
	if d.publish != nil {
		d.publish(gameID, res)
	}
	d.OnStateChange(res.State)
}

func (d *Director) track(gameID string, t clock.Timer) {
	d.mu.Lock()
	d.timers[gameID] = append(d.timers[gameID], t)
	d.mu.Unlock()
}
