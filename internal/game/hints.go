package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// HintTier is one of the four priced disclosure levels.
type HintTier string

const (
	HintSmall  HintTier = "small"  // reveal 1 non-thief
	HintNormal HintTier = "normal" // reveal 2 non-thieves
	HintBig    HintTier = "big"    // reveal 3 non-thieves
	HintReal   HintTier = "real"   // reveal the thief outright
)

// DefaultHintPrices returns the stock coin price per tier.
func DefaultHintPrices() map[HintTier]int {
	return map[HintTier]int{
		HintSmall:  10,
		HintNormal: 25,
		HintBig:    40,
		HintReal:   100,
	}
}

// hintRevealCount is how many non-thieves each eliminating tier discloses.
var hintRevealCount = map[HintTier]int{
	HintSmall:  1,
	HintNormal: 2,
	HintBig:    3,
}

// Hint is the outcome of a successful purchase.
type Hint struct {
	Tier HintTier `json:"tier"`
	Cost int      `json:"cost"`
	Text string   `json:"text"`
	// Cleared lists the players the hint rules out (empty for the real tier).
	Cleared []string `json:"cleared,omitempty"`
}

// composeHint builds the disclosure for tier against the current assignment.
// It does not touch the wallet or the hint-used flag; the engine does that.
func composeHint(s *GameState, tier HintTier, price int, rng *rand.Rand) (*Hint, error) {
	thief := s.PlayerByRole(RoleThief)
	if thief == nil {
		return nil, fmt.Errorf("%w: no thief assigned", ErrMissingCoreRole)
	}
	if tier == HintReal {
		return &Hint{
			Tier: tier,
			Cost: price,
			Text: fmt.Sprintf("The Thief is %s!", thief.Name),
		}, nil
	}
	count, ok := hintRevealCount[tier]
	if !ok {
		return nil, ErrUnknownHintTier
	}
	// Eligible reveals: suspects the minister could accuse, minus the thief.
	var innocents []Player
	for _, p := range s.Suspects() {
		if p.ID != thief.ID {
			innocents = append(innocents, p)
		}
	}
	if len(innocents) < count {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughSuspects, count, len(innocents))
	}
	rng.Shuffle(len(innocents), func(i, j int) {
		innocents[i], innocents[j] = innocents[j], innocents[i]
	})
	names := make([]string, count)
	ids := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = innocents[i].Name
		ids[i] = innocents[i].ID
	}
	var subject, verb string
	switch count {
	case 1:
		subject, verb = names[0], "is"
	default:
		subject = strings.Join(names[:count-1], ", ") + " and " + names[count-1]
		verb = "are"
	}
	return &Hint{
		Tier:    tier,
		Cost:    price,
		Text:    fmt.Sprintf("%s %s not the Thief.", subject, verb),
		Cleared: ids,
	}, nil
}
