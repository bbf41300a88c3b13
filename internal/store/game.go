package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/game"
)

// ErrGameNotFound is returned when a game id does not exist.
var ErrGameNotFound = errors.New("game not found")

// Game statuses.
const (
	GameWaiting    = "waiting"
	GameInProgress = "in_progress"
	GameFinished   = "finished"
)

// RosterPlayer is one seat recorded at game creation: identity plus whether
// the seat is AI-controlled. Roles are never stored here; they live in the
// snapshot and change every round.
type RosterPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"is_ai,omitempty"`
}

// Game is a game descriptor row. SessionID is nil for solo/local games.
type Game struct {
	ID        string                 `json:"id"`
	SessionID *string                `json:"session_id,omitempty"`
	Status    string                 `json:"status"`
	Roster    []RosterPlayer         `json:"roster"`
	Config    map[string]interface{} `json:"config,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
}

// GameStore handles database operations for games and their snapshots. It
// implements the engine's persistence interface.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

// CreateGame inserts a game row for a solo/local roster (no session).
func (s *GameStore) CreateGame(ctx context.Context, roster []RosterPlayer, config map[string]interface{}) (*Game, error) {
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, fmt.Errorf("marshal roster: %w", err)
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	g := &Game{Status: GameWaiting, Roster: roster, Config: config}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO games (status, roster_json, config_json)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		GameWaiting, rosterJSON, configJSON)
	if err := row.Scan(&g.ID, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	return g, nil
}

// GetGame loads a game descriptor by id.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	if _, err := uuid.Parse(gameID); err != nil {
		return nil, ErrGameNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, status, roster_json, config_json, created_at, ended_at
		FROM games WHERE id = $1`, gameID)
	return scanGame(row)
}

// GetLatestGameForSession returns the most recent game of a session, or
// ErrGameNotFound when the session never started one.
func (s *GameStore) GetLatestGameForSession(ctx context.Context, sessionID string) (*Game, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrGameNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, status, roster_json, config_json, created_at, ended_at
		FROM games WHERE session_id = $1
		ORDER BY created_at DESC LIMIT 1`, sessionID)
	return scanGame(row)
}

// GetLatestSnapshot returns the newest state snapshot map, or nil when the
// game has none yet.
func (s *GameStore) GetLatestSnapshot(ctx context.Context, gameID string) (map[string]interface{}, error) {
	if _, err := uuid.Parse(gameID); err != nil {
		return nil, ErrGameNotFound
	}
	var stateJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT state_json FROM game_state_snapshots
		WHERE game_id = $1
		ORDER BY version DESC LIMIT 1`, gameID).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	var state map[string]interface{}
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return state, nil
}

// CreateOrUpdateSnapshot appends the next snapshot version and returns it.
func (s *GameStore) CreateOrUpdateSnapshot(ctx context.Context, gameID string, stateJSON map[string]interface{}) (int32, error) {
	raw, err := json.Marshal(stateJSON)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	var version int32
	err = s.pool.QueryRow(ctx, `
		INSERT INTO game_state_snapshots (game_id, version, state_json)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2
		FROM game_state_snapshots WHERE game_id = $1
		RETURNING version`, gameID, raw).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return version, nil
}

// UpdateGameStatus sets the game row's status and optional end time.
func (s *GameStore) UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE games SET status = $1, ended_at = $2 WHERE id = $3`,
		status, endedAt, gameID)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	return nil
}

// GetGameRoster returns the roster in join order for the engine.
func (s *GameStore) GetGameRoster(ctx context.Context, gameID string) ([]game.RosterEntry, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	out := make([]game.RosterEntry, 0, len(g.Roster))
	for _, p := range g.Roster {
		out = append(out, game.RosterEntry{ID: p.ID, Name: p.Name, IsAI: p.IsAI})
	}
	return out, nil
}

// GetGameConfig returns the per-game config map (total rounds, role points).
func (s *GameStore) GetGameConfig(ctx context.Context, gameID string) (map[string]interface{}, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.Config, nil
}

func scanGame(row rowScanner) (*Game, error) {
	var (
		g          Game
		rosterJSON []byte
		configJSON []byte
	)
	err := row.Scan(&g.ID, &g.SessionID, &g.Status, &rosterJSON, &configJSON, &g.CreatedAt, &g.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	if err := json.Unmarshal(rosterJSON, &g.Roster); err != nil {
		return nil, fmt.Errorf("unmarshal roster: %w", err)
	}
	if err := json.Unmarshal(configJSON, &g.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &g, nil
}
