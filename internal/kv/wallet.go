// Package kv holds the small per-player key-value state: coin wallets,
// settings, and the last-used display name. It is backed by Redis.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/debug"
)

const walletKeyPrefix = "wallet:"

// WalletStore keeps one non-negative coin balance per player. When admin mode
// is active the visible balance is pinned to debug.AdminBalance and debits
// are ignored.
type WalletStore struct {
	client *redis.Client
	admin  *debug.Mode
}

// NewWalletStore creates a wallet store. admin may be nil.
func NewWalletStore(client *redis.Client, admin *debug.Mode) (*WalletStore, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &WalletStore{client: client, admin: admin}, nil
}

func walletKey(playerID string) string {
	return walletKeyPrefix + playerID
}

// Balance returns the player's coin balance.
func (s *WalletStore) Balance(ctx context.Context, playerID string) (int, error) {
	if s.adminEnabled() {
		return debug.AdminBalance, nil
	}
	n, err := s.client.Get(ctx, walletKey(playerID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get wallet %s: %w", playerID, err)
	}
	return n, nil
}

// Credit adds amount and returns the new balance.
func (s *WalletStore) Credit(ctx context.Context, playerID string, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	n, err := s.client.IncrBy(ctx, walletKey(playerID), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("credit wallet %s: %w", playerID, err)
	}
	return int(n), nil
}

// Debit subtracts amount, flooring the balance at zero, and returns the new
// balance. Under admin mode the debit is skipped entirely.
func (s *WalletStore) Debit(ctx context.Context, playerID string, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	if s.adminEnabled() {
		return debug.AdminBalance, nil
	}
	key := walletKey(playerID)
	n, err := s.client.DecrBy(ctx, key, int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("debit wallet %s: %w", playerID, err)
	}
	if n < 0 {
		if err := s.client.Set(ctx, key, 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("floor wallet %s: %w", playerID, err)
		}
		n = 0
	}
	return int(n), nil
}

func (s *WalletStore) adminEnabled() bool {
	return s.admin != nil && s.admin.Enabled()
}
