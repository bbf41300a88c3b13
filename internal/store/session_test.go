package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, host, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.HostID != host.ID {
		t.Errorf("host id mismatch: %s vs %s", session.HostID, host.ID)
	}
	if session.Status != SessionWaiting {
		t.Errorf("expected waiting, got %s", session.Status)
	}
	if len(session.Players) != 1 || session.Players[0].Name != "Asha" {
		t.Errorf("unexpected players %+v", session.Players)
	}
	if session.HasPassword {
		t.Error("password flag set on open session")
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.ID != session.ID || got.Version != 1 {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)

	if _, err := store.GetSession(context.Background(), "not-a-uuid"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for malformed id, got %v", err)
	}
	if _, err := store.GetSession(context.Background(), "7b5540d8-3f43-46b2-93a6-9a0a01b0a2c4"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for absent id, got %v", err)
	}
}

func TestSessionStore_JoinBumpsVersion(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, _, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	joined, player, err := store.JoinSession(ctx, session.ID, "", "Bilal", "")
	if err != nil {
		t.Fatalf("join session: %v", err)
	}
	if player.ID == "" {
		t.Error("join did not assign a player id")
	}
	if len(joined.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(joined.Players))
	}
	if joined.Version != 2 {
		t.Errorf("expected version 2 after one write, got %d", joined.Version)
	}

	// Joining again with the same id is idempotent.
	again, samePlayer, err := store.JoinSession(ctx, session.ID, player.ID, "Bilal", "")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if samePlayer.ID != player.ID || len(again.Players) != 2 {
		t.Errorf("rejoin duplicated the player: %+v", again.Players)
	}
}

func TestSessionStore_JoinPasswordChecks(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, _, err := store.CreateSession(ctx, "Asha", "sesame")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !session.HasPassword {
		t.Error("password flag not set")
	}

	if _, _, err := store.JoinSession(ctx, session.ID, "", "Bilal", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("expected ErrBadPassword, got %v", err)
	}
	if _, _, err := store.JoinSession(ctx, session.ID, "", "Bilal", "sesame"); err != nil {
		t.Errorf("join with correct password: %v", err)
	}
}

func TestSessionStore_JoinFullLobby(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, _, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 1; i < MaxSessionPlayers; i++ {
		if _, _, err := store.JoinSession(ctx, session.ID, "", fmt.Sprintf("P%d", i), ""); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	if _, _, err := store.JoinSession(ctx, session.ID, "", "Overflow", ""); !errors.Is(err, ErrSessionFull) {
		t.Errorf("expected ErrSessionFull, got %v", err)
	}
}

func TestSessionStore_LeavePromotesHostAndDeletesEmpty(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, host, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	_, joiner, err := store.JoinSession(ctx, session.ID, "", "Bilal", "")
	if err != nil {
		t.Fatalf("join session: %v", err)
	}

	after, err := store.LeaveSession(ctx, session.ID, host.ID)
	if err != nil {
		t.Fatalf("host leave: %v", err)
	}
	if after.HostID != joiner.ID {
		t.Errorf("expected host promotion to %s, got %s", joiner.ID, after.HostID)
	}

	gone, err := store.LeaveSession(ctx, session.ID, joiner.ID)
	if err != nil {
		t.Fatalf("last leave: %v", err)
	}
	if gone != nil {
		t.Errorf("expected nil session after last player left, got %+v", gone)
	}
	if _, err := store.GetSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("emptied session not deleted: %v", err)
	}
}

func TestSessionStore_LeaveUnknownPlayer(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, _, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := store.LeaveSession(ctx, session.ID, "stranger"); !errors.Is(err, ErrNotInSession) {
		t.Errorf("expected ErrNotInSession, got %v", err)
	}
}

func TestSessionStore_StartSession(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewSessionStore(pool)
	ctx := context.Background()

	session, host, err := store.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Too few players.
	if _, _, err := store.StartSession(ctx, session.ID, host.ID, nil); !errors.Is(err, ErrTooFewPlayers) {
		t.Errorf("expected ErrTooFewPlayers, got %v", err)
	}

	var lastJoiner string
	for _, name := range []string{"Bilal", "Chitra", "Dev"} {
		_, p, err := store.JoinSession(ctx, session.ID, "", name, "")
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		lastJoiner = p.ID
	}

	// Only the host may start.
	if _, _, err := store.StartSession(ctx, session.ID, lastJoiner, nil); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}

	started, game, err := store.StartSession(ctx, session.ID, host.ID, map[string]interface{}{"total_rounds": 5})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.Status != SessionPlaying {
		t.Errorf("expected playing, got %s", started.Status)
	}
	if game.SessionID == nil || *game.SessionID != session.ID {
		t.Errorf("game not linked to session: %+v", game)
	}
	if len(game.Roster) != 4 {
		t.Errorf("expected 4 roster entries, got %d", len(game.Roster))
	}

	// Starting twice fails, and late joins bounce off the started lobby.
	if _, _, err := store.StartSession(ctx, session.ID, host.ID, nil); !errors.Is(err, ErrSessionStarted) {
		t.Errorf("expected ErrSessionStarted on restart, got %v", err)
	}
	if _, _, err := store.JoinSession(ctx, session.ID, "", "Late", ""); !errors.Is(err, ErrSessionStarted) {
		t.Errorf("expected ErrSessionStarted on late join, got %v", err)
	}
}
