package game

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func hintTestState(n int) *GameState {
	names := []string{"Asha", "Bilal", "Chitra", "Dev", "Esha", "Farid", "Gita"}
	rng := rand.New(rand.NewSource(99))
	roles, err := AllocateRoles(n, rng)
	if err != nil {
		panic(err)
	}
	players := make([]Player, n)
	for i := 0; i < n; i++ {
		players[i] = Player{ID: names[i], Name: names[i], Role: roles[i]}
	}
	return &GameState{Phase: PhaseGuess, Players: players}
}

func TestComposeHint_RealNamesThief(t *testing.T) {
	s := hintTestState(4)
	thief := s.PlayerByRole(RoleThief)
	h, err := composeHint(s, HintReal, 100, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if h.Text != "The Thief is "+thief.Name+"!" {
		t.Errorf("unexpected text %q", h.Text)
	}
	if h.Cost != 100 || h.Tier != HintReal {
		t.Errorf("unexpected hint %+v", h)
	}
	if len(h.Cleared) != 0 {
		t.Errorf("real tier must not list cleared players, got %v", h.Cleared)
	}
}

func TestComposeHint_EliminatingTiers(t *testing.T) {
	s := hintTestState(7) // 5 suspects, 4 innocents among them
	thief := s.PlayerByRole(RoleThief)

	for tier, want := range map[HintTier]int{HintSmall: 1, HintNormal: 2, HintBig: 3} {
		h, err := composeHint(s, tier, 25, rand.New(rand.NewSource(5)))
		if err != nil {
			t.Fatalf("%s: %v", tier, err)
		}
		if len(h.Cleared) != want {
			t.Errorf("%s: expected %d cleared, got %d", tier, want, len(h.Cleared))
		}
		for _, id := range h.Cleared {
			if id == thief.ID {
				t.Errorf("%s: hint cleared the thief", tier)
			}
			p := s.PlayerByID(id)
			if p == nil || p.Role == RoleKing || p.Role == RoleMinister {
				t.Errorf("%s: cleared %q is not an accusable suspect", tier, id)
			}
		}
		if !strings.HasSuffix(h.Text, "not the Thief.") {
			t.Errorf("%s: unexpected text %q", tier, h.Text)
		}
		if want == 1 && !strings.Contains(h.Text, " is ") {
			t.Errorf("small: expected singular phrasing, got %q", h.Text)
		}
		if want > 1 {
			if !strings.Contains(h.Text, " are ") || !strings.Contains(h.Text, " and ") {
				t.Errorf("%s: expected plural phrasing, got %q", tier, h.Text)
			}
		}
	}
}

func TestComposeHint_NotEnoughSuspects(t *testing.T) {
	// Four players leave exactly one innocent suspect; the big tier needs three.
	s := hintTestState(4)
	_, err := composeHint(s, HintBig, 40, rand.New(rand.NewSource(2)))
	if !errors.Is(err, ErrNotEnoughSuspects) {
		t.Errorf("expected ErrNotEnoughSuspects, got %v", err)
	}
}

func TestComposeHint_UnknownTier(t *testing.T) {
	s := hintTestState(5)
	_, err := composeHint(s, HintTier("mega"), 1, rand.New(rand.NewSource(3)))
	if !errors.Is(err, ErrUnknownHintTier) {
		t.Errorf("expected ErrUnknownHintTier, got %v", err)
	}
}

func TestDefaultHintPrices_CoverAllTiers(t *testing.T) {
	prices := DefaultHintPrices()
	for _, tier := range []HintTier{HintSmall, HintNormal, HintBig, HintReal} {
		if prices[tier] <= 0 {
			t.Errorf("tier %s has no price", tier)
		}
	}
	if prices[HintSmall] >= prices[HintNormal] || prices[HintNormal] >= prices[HintBig] || prices[HintBig] >= prices[HintReal] {
		t.Errorf("prices are not strictly increasing: %v", prices)
	}
}
