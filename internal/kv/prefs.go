package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	settingsKeyPrefix = "settings:"
	nameKeyPrefix     = "multiplayer_name:"
)

// Settings mirrors the client preference record the original app kept in
// local storage: theme, audio toggles, and language code.
type Settings struct {
	Theme     string `json:"theme"`
	Sound     bool   `json:"sound"`
	Vibration bool   `json:"vibration"`
	Music     bool   `json:"music"`
	Language  string `json:"language"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme:     "wooden",
		Sound:     true,
		Vibration: true,
		Music:     true,
		Language:  "en",
	}
}

// PrefsStore persists per-player settings and the last-used display name.
type PrefsStore struct {
	client *redis.Client
}

// NewPrefsStore creates a preferences store.
func NewPrefsStore(client *redis.Client) (*PrefsStore, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &PrefsStore{client: client}, nil
}

// GetSettings loads a player's settings, falling back to defaults when the
// player has never saved any.
func (s *PrefsStore) GetSettings(ctx context.Context, playerID string) (Settings, error) {
	raw, err := s.client.Get(ctx, settingsKeyPrefix+playerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings %s: %w", playerID, err)
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings %s: %w", playerID, err)
	}
	return out, nil
}

// PutSettings stores a player's settings wholesale.
func (s *PrefsStore) PutSettings(ctx context.Context, playerID string, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsKeyPrefix+playerID, raw, 0).Err(); err != nil {
		return fmt.Errorf("put settings %s: %w", playerID, err)
	}
	return nil
}

// GetDisplayName returns the last display name the client used, or "".
func (s *PrefsStore) GetDisplayName(ctx context.Context, clientID string) (string, error) {
	name, err := s.client.Get(ctx, nameKeyPrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get display name %s: %w", clientID, err)
	}
	return name, nil
}

// PutDisplayName remembers the display name the client last joined with.
func (s *PrefsStore) PutDisplayName(ctx context.Context, clientID, name string) error {
	if err := s.client.Set(ctx, nameKeyPrefix+clientID, name, 0).Err(); err != nil {
		return fmt.Errorf("put display name %s: %w", clientID, err)
	}
	return nil
}
