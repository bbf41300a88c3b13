package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testGameRoster() []RosterPlayer {
	return []RosterPlayer{
		{ID: "p1", Name: "Asha"},
		{ID: "p2", Name: "Diya", IsAI: true},
		{ID: "p3", Name: "Kabir", IsAI: true},
		{ID: "p4", Name: "Isha", IsAI: true},
	}
}

func TestGameStore_CreateAndGet(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewGameStore(pool)
	ctx := context.Background()

	g, err := store.CreateGame(ctx, testGameRoster(), map[string]interface{}{"total_rounds": float64(5)})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.SessionID != nil {
		t.Errorf("solo game must have no session, got %v", *g.SessionID)
	}
	if g.Status != GameWaiting {
		t.Errorf("expected waiting, got %s", g.Status)
	}

	got, err := store.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(got.Roster) != 4 || !got.Roster[1].IsAI {
		t.Errorf("roster lost in round trip: %+v", got.Roster)
	}
	if v, ok := got.Config["total_rounds"].(float64); !ok || v != 5 {
		t.Errorf("config lost in round trip: %+v", got.Config)
	}
}

func TestGameStore_GetMissing(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewGameStore(pool)

	if _, err := store.GetGame(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound for malformed id, got %v", err)
	}
	if _, err := store.GetGame(context.Background(), "3d1a2e46-0b71-4f0e-8c25-7eb4f6f9d811"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound for absent id, got %v", err)
	}
}

func TestGameStore_SnapshotVersioning(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewGameStore(pool)
	ctx := context.Background()

	g, err := store.CreateGame(ctx, testGameRoster(), nil)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	// No snapshot yet: nil map, no error.
	snap, err := store.GetLatestSnapshot(ctx, g.ID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot for fresh game, got %v", snap)
	}

	v1, err := store.CreateOrUpdateSnapshot(ctx, g.ID, map[string]interface{}{"phase": "role_reveal", "round": 1})
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	v2, err := store.CreateOrUpdateSnapshot(ctx, g.ID, map[string]interface{}{"phase": "guess", "round": 1})
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if v1 != 1 || v2 != 2 {
		t.Errorf("expected versions 1 and 2, got %d and %d", v1, v2)
	}

	snap, err = store.GetLatestSnapshot(ctx, g.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if snap["phase"] != "guess" {
		t.Errorf("latest snapshot is not the newest write: %v", snap)
	}
}

func TestGameStore_UpdateStatus(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewGameStore(pool)
	ctx := context.Background()

	g, err := store.CreateGame(ctx, testGameRoster(), nil)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	now := time.Now()
	if err := store.UpdateGameStatus(ctx, g.ID, GameFinished, &now); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := store.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Status != GameFinished || got.EndedAt == nil {
		t.Errorf("finish not recorded: status=%s ended=%v", got.Status, got.EndedAt)
	}
}

func TestGameStore_RosterAndConfigForEngine(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	store := NewGameStore(pool)
	ctx := context.Background()

	g, err := store.CreateGame(ctx, testGameRoster(), map[string]interface{}{"total_rounds": float64(3)})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	roster, err := store.GetGameRoster(ctx, g.ID)
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(roster))
	}
	if roster[0].ID != "p1" || roster[0].IsAI {
		t.Errorf("join order or seat type lost: %+v", roster[0])
	}

	cfg, err := store.GetGameConfig(ctx, g.ID)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if v, ok := cfg["total_rounds"].(float64); !ok || v != 3 {
		t.Errorf("unexpected config %v", cfg)
	}
}

func TestGameStore_LatestGameForSession(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	sessions := NewSessionStore(pool)
	games := NewGameStore(pool)
	ctx := context.Background()

	session, host, err := sessions.CreateSession(ctx, "Asha", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, name := range []string{"Bilal", "Chitra", "Dev"} {
		if _, _, err := sessions.JoinSession(ctx, session.ID, "", name, ""); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	_, started, err := sessions.StartSession(ctx, session.ID, host.ID, nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	got, err := games.GetLatestGameForSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("latest game: %v", err)
	}
	if got.ID != started.ID {
		t.Errorf("expected game %s, got %s", started.ID, got.ID)
	}

	if _, err := games.GetLatestGameForSession(ctx, "1f4f6f15-94d5-4c3f-92cb-2b4e3a30c111"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound for sessionless id, got %v", err)
	}
}

func TestGameEventStore_AppendAndList(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()
	games := NewGameStore(pool)
	events := NewGameEventStore(pool)
	ctx := context.Background()

	g, err := games.CreateGame(ctx, testGameRoster(), nil)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	p1 := "p1"
	if err := events.AppendEvent(ctx, g.ID, &p1, "reveal_role", map[string]interface{}{"action": "reveal_role"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := events.AppendEvent(ctx, g.ID, nil, "round_started", nil); err != nil {
		t.Fatalf("append system event: %v", err)
	}

	got, err := events.GetGameEvents(ctx, g.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "reveal_role" || got[0].PlayerID == nil || *got[0].PlayerID != "p1" {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].PlayerID != nil {
		t.Errorf("system event carries a player id: %+v", got[1])
	}
	if got[1].Payload == nil {
		t.Error("empty payload must decode to a map, not nil")
	}
}
