package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent is one append-only move record.
type GameEvent struct {
	ID        string                 `json:"id"`
	GameID    string                 `json:"game_id"`
	PlayerID  *string                `json:"player_id,omitempty"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// GameEventStore handles the per-game event log.
type GameEventStore struct {
	pool *pgxpool.Pool
}

// NewGameEventStore creates a new GameEventStore.
func NewGameEventStore(pool *pgxpool.Pool) *GameEventStore {
	return &GameEventStore{pool: pool}
}

// AppendEvent writes one event row. Implements the engine's EventStore.
func (s *GameEventStore) AppendEvent(ctx context.Context, gameID string, playerID *string, eventType string, payload map[string]interface{}) error {
	payloadJSON := []byte("{}")
	if len(payload) > 0 {
		var err error
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_events (game_id, player_id, type, payload_json)
		VALUES ($1, $2, $3, $4)`,
		gameID, playerID, eventType, payloadJSON)
	if err != nil {
		return fmt.Errorf("insert game event: %w", err)
	}
	return nil
}

// GetGameEvents returns all events of a game in insertion order.
func (s *GameEventStore) GetGameEvents(ctx context.Context, gameID string) ([]GameEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, game_id, player_id, type, payload_json, created_at
		FROM game_events WHERE game_id = $1
		ORDER BY created_at ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var (
			ev          GameEvent
			payloadJSON []byte
		)
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.PlayerID, &ev.Type, &payloadJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &ev.Payload); err != nil {
			ev.Payload = make(map[string]interface{})
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
