package websocket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/UltraUmarGamerz1/find-the-thief/internal/store"
)

func newTestClient(hub *Hub, sessionID, playerID string) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan *ServerEnvelope, 256),
		SessionID: sessionID,
		PlayerID:  playerID,
		ctx:       context.Background(),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub, "session-1", "player-1")
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	if count := hub.SessionClientCount("session-1"); count != 1 {
		t.Errorf("expected 1 client in session, got %d", count)
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if count := hub.SessionClientCount("session-1"); count != 0 {
		t.Errorf("expected 0 clients in session after unregister, got %d", count)
	}
}

func TestHub_MultipleClientsSameSession(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	clients := make([]*Client, 3)
	for i := 0; i < 3; i++ {
		clients[i] = newTestClient(hub, "session-1", fmt.Sprintf("player-%d", i+1))
		hub.register <- clients[i]
	}
	time.Sleep(10 * time.Millisecond)

	if count := hub.SessionClientCount("session-1"); count != 3 {
		t.Errorf("expected 3 clients in session, got %d", count)
	}

	hub.unregister <- clients[0]
	time.Sleep(10 * time.Millisecond)

	if count := hub.SessionClientCount("session-1"); count != 2 {
		t.Errorf("expected 2 clients in session after unregister, got %d", count)
	}
}

func TestHub_BroadcastReachesEveryTab(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	clients := make([]*Client, 3)
	for i := 0; i < 3; i++ {
		clients[i] = newTestClient(hub, "session-1", fmt.Sprintf("player-%d", i+1))
		hub.register <- clients[i]
	}
	time.Sleep(10 * time.Millisecond)

	envelope := &ServerEnvelope{
		Type:    ServerTypeSession,
		Event:   ServerEventSessionUpdated,
		Payload: map[string]interface{}{"id": "session-1", "version": 2},
	}
	hub.Broadcast("session-1", envelope)
	time.Sleep(10 * time.Millisecond)

	// Every client gets session snapshots, the publisher's own tab included.
	for i, client := range clients {
		select {
		case got := <-client.send:
			if got.Event != ServerEventSessionUpdated {
				t.Errorf("client %d: expected event %s, got %s", i, ServerEventSessionUpdated, got.Event)
			}
			if got.Payload["version"] != 2 {
				t.Errorf("client %d: expected version 2, got %v", i, got.Payload["version"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d: did not receive broadcast envelope", i)
		}
	}
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	sender := newTestClient(hub, "session-1", "player-1")
	other := newTestClient(hub, "session-1", "player-2")
	hub.register <- sender
	hub.register <- other
	time.Sleep(10 * time.Millisecond)

	envelope := &ServerEnvelope{
		Type:    ServerTypeEvent,
		Event:   ServerEventChat,
		Payload: map[string]interface{}{"message": "hello"},
	}
	hub.BroadcastExcept("session-1", envelope, sender)
	time.Sleep(10 * time.Millisecond)

	select {
	case got := <-other.send:
		if got.Event != ServerEventChat {
			t.Errorf("expected chat event, got %s", got.Event)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("other client did not receive chat event")
	}

	select {
	case <-sender.send:
		t.Error("sender should not have received its own chat event")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}

func TestHub_BroadcastDoesNotCrossSessions(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	c1 := newTestClient(hub, "session-1", "player-1")
	c2 := newTestClient(hub, "session-2", "player-1")
	hub.register <- c1
	hub.register <- c2
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("session-1", &ServerEnvelope{Type: ServerTypeEvent, Event: "round_started"})
	time.Sleep(10 * time.Millisecond)

	select {
	case got := <-c1.send:
		if got.Event != "round_started" {
			t.Errorf("expected round_started, got %s", got.Event)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("session-1 client did not receive broadcast")
	}

	select {
	case <-c2.send:
		t.Error("session-2 client should not have received session-1 broadcast")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}

func TestHub_EmptySessionBroadcast(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	// Broadcast to a session with no clients (should not panic)
	hub.Broadcast("no-such-session", &ServerEnvelope{Type: ServerTypeEvent, Event: "game_over"})
	time.Sleep(10 * time.Millisecond)

	if count := hub.SessionClientCount("no-such-session"); count != 0 {
		t.Errorf("expected 0 clients, got %d", count)
	}
}

func TestHub_ConcurrentRegistration(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	clients := make([]*Client, 10)
	for i := 0; i < 10; i++ {
		clients[i] = newTestClient(hub, "session-1", fmt.Sprintf("player-%d", i+1))
		go func(c *Client) {
			hub.register <- c
		}(clients[i])
	}
	time.Sleep(50 * time.Millisecond)

	if count := hub.SessionClientCount("session-1"); count != 10 {
		t.Errorf("expected 10 clients in session, got %d", count)
	}
}

func TestSessionEnvelope_FullSnapshot(t *testing.T) {
	session := &store.Session{
		ID:      "session-1",
		HostID:  "player-1",
		Status:  store.SessionWaiting,
		Version: 4,
		Players: []store.SessionPlayer{
			{ID: "player-1", Name: "Asha"},
			{ID: "player-2", Name: "Bilal"},
		},
	}
	env := SessionEnvelope(session)
	if env.Type != ServerTypeSession || env.Event != ServerEventSessionUpdated {
		t.Fatalf("unexpected envelope type/event: %s/%s", env.Type, env.Event)
	}
	if env.Payload["host_id"] != "player-1" {
		t.Errorf("expected host_id player-1, got %v", env.Payload["host_id"])
	}
	players, ok := env.Payload["players"].([]map[string]interface{})
	if !ok || len(players) != 2 {
		t.Fatalf("expected 2 players in payload, got %v", env.Payload["players"])
	}
	if players[1]["name"] != "Bilal" {
		t.Errorf("expected second player Bilal, got %v", players[1]["name"])
	}
}
