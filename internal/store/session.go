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
	"golang.org/x/crypto/bcrypt"
)

// Session lifecycle errors, mapped to HTTP statuses by the handlers.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStarted  = errors.New("game has already started")
	ErrSessionFull     = errors.New("lobby is full")
	ErrNotHost         = errors.New("only the host can start the game")
	ErrTooFewPlayers   = errors.New("at least 4 players are required to start")
	ErrBadPassword     = errors.New("invalid password")
	ErrNotInSession    = errors.New("player not in session")
)

// Session statuses.
const (
	SessionWaiting  = "waiting"
	SessionPlaying  = "playing"
	SessionFinished = "finished"
)

// MaxSessionPlayers is the hard lobby cap.
const MaxSessionPlayers = 10

// MinSessionPlayers is required before the host may start.
const MinSessionPlayers = 4

// SessionPlayer is one lobby participant.
type SessionPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the shared lobby record. Every write is a full-snapshot
// overwrite; Version counts writes for observability but concurrent writers
// are still last-write-wins (see DESIGN.md).
type Session struct {
	ID          string          `json:"id"`
	HostID      string          `json:"host_id"`
	Status      string          `json:"status"`
	Players     []SessionPlayer `json:"players"`
	Version     int             `json:"version"`
	HasPassword bool            `json:"has_password,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SessionStore handles database operations for lobby sessions.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// CreateSession creates a waiting session with the creator as host and sole
// player. password is optional; when set, joiners must present it.
func (s *SessionStore) CreateSession(ctx context.Context, hostName, password string) (*Session, *SessionPlayer, error) {
	host := SessionPlayer{ID: uuid.New().String(), Name: hostName}
	playersJSON, err := json.Marshal([]SessionPlayer{host})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal players: %w", err)
	}

	var passwordHash *string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (host_id, status, players_json, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		host.ID, SessionWaiting, playersJSON, passwordHash)

	session := &Session{
		HostID:      host.ID,
		Status:      SessionWaiting,
		Players:     []SessionPlayer{host},
		Version:     1,
		HasPassword: passwordHash != nil,
	}
	if err := row.Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("insert session: %w", err)
	}
	return session, &host, nil
}

// GetSession loads a session by id.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id, host_id, status, players_json, password_hash IS NOT NULL, version, created_at, updated_at
		FROM sessions WHERE id = $1`, sessionID)
	return scanSession(row)
}

// JoinSession appends a player to a waiting session. Joining again with the
// same player id is idempotent. password must match when the session has one.
func (s *SessionStore) JoinSession(ctx context.Context, sessionID, playerID, playerName, password string) (*Session, *SessionPlayer, error) {
	if err := s.checkPassword(ctx, sessionID, password); err != nil {
		return nil, nil, err
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != SessionWaiting {
		return nil, nil, ErrSessionStarted
	}

	for _, p := range session.Players {
		if p.ID == playerID {
			return session, &p, nil
		}
	}
	if len(session.Players) >= MaxSessionPlayers {
		return nil, nil, ErrSessionFull
	}

	if playerID == "" {
		playerID = uuid.New().String()
	}
	joined := SessionPlayer{ID: playerID, Name: playerName}
	session.Players = append(session.Players, joined)
	if err := s.writePlayers(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, &joined, nil
}

// LeaveSession removes a player. A departing host promotes the first
// remaining player; an emptied session is deleted outright. The returned
// session is nil when the session was deleted.
func (s *SessionStore) LeaveSession(ctx context.Context, sessionID, playerID string) (*Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]SessionPlayer, 0, len(session.Players))
	for _, p := range session.Players {
		if p.ID == playerID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil, ErrNotInSession
	}

	if len(remaining) == 0 {
		if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return nil, nil
	}

	session.Players = remaining
	if session.HostID == playerID {
		session.HostID = remaining[0].ID
	}
	if err := s.writePlayers(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// StartSession transitions a waiting session to playing and creates its game
// row over the current roster, all in one transaction. Host only; at least
// four players.
func (s *SessionStore) StartSession(ctx context.Context, sessionID, playerID string, config map[string]interface{}) (*Session, *Game, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.HostID != playerID {
		return nil, nil, ErrNotHost
	}
	if session.Status != SessionWaiting {
		return nil, nil, ErrSessionStarted
	}
	if len(session.Players) < MinSessionPlayers {
		return nil, nil, ErrTooFewPlayers
	}

	roster := make([]RosterPlayer, 0, len(session.Players))
	for _, p := range session.Players {
		roster = append(roster, RosterPlayer{ID: p.ID, Name: p.Name})
	}
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal roster: %w", err)
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal config: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE sessions SET status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		SessionPlaying, sessionID, SessionWaiting)
	if err != nil {
		return nil, nil, fmt.Errorf("update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, ErrSessionStarted
	}

	game := &Game{SessionID: &session.ID, Status: GameWaiting, Roster: roster, Config: config}
	row := tx.QueryRow(ctx, `
		INSERT INTO games (session_id, status, roster_json, config_json)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		sessionID, GameWaiting, rosterJSON, configJSON)
	if err := row.Scan(&game.ID, &game.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("insert game: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	session.Status = SessionPlaying
	session.Version++
	return session, game, nil
}

// checkPassword verifies the optional session password before any mutation.
func (s *SessionStore) checkPassword(ctx context.Context, sessionID, password string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return ErrSessionNotFound
	}
	var hash *string
	err := s.pool.QueryRow(ctx, `SELECT password_hash FROM sessions WHERE id = $1`, sessionID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("get session password: %w", err)
	}
	if hash == nil {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) != nil {
		return ErrBadPassword
	}
	return nil
}

// writePlayers persists the full player list and host as one overwrite.
func (s *SessionStore) writePlayers(ctx context.Context, session *Session) error {
	playersJSON, err := json.Marshal(session.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE sessions
		SET players_json = $1, host_id = $2, version = version + 1, updated_at = now()
		WHERE id = $3
		RETURNING version, updated_at`,
		playersJSON, session.HostID, session.ID)
	if err := row.Scan(&session.Version, &session.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("update session players: %w", err)
	}
	return nil
}

// rowScanner lets scanSession work with both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session     Session
		playersJSON []byte
	)
	err := row.Scan(&session.ID, &session.HostID, &session.Status, &playersJSON,
		&session.HasPassword, &session.Version, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal(playersJSON, &session.Players); err != nil {
		return nil, fmt.Errorf("unmarshal players: %w", err)
	}
	return &session, nil
}
