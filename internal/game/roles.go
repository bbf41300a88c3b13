package game

import (
	"fmt"
	"math/rand"
)

// Role identifies one of the hidden roles dealt each round.
type Role string

// Core roles are present in every game regardless of player count.
const (
	RoleKing     Role = "king"
	RoleMinister Role = "minister"
	RoleSoldier  Role = "soldier"
	RoleThief    Role = "thief"
)

// Extra roles fill player counts above four, consumed in this priority order.
const (
	RoleLaundry  Role = "laundry"
	RoleCleaner  Role = "cleaner"
	RoleChef     Role = "chef"
	RoleGardener Role = "gardener"
	RolePrince   Role = "prince"
	RoleQueen    Role = "queen"
)

// CoreRoles is the mandatory subset; exactly one of each is dealt per round.
var CoreRoles = []Role{RoleKing, RoleMinister, RoleSoldier, RoleThief}

// ExtraRoles is the ordered, extensible overflow list. The allocator takes a
// positional prefix of it, so ordering here is part of the contract.
var ExtraRoles = []Role{RoleLaundry, RoleCleaner, RoleChef, RoleGardener, RolePrince, RoleQueen}

// RolePoints maps a role to its reward value. Only the Minister's value
// participates in guess scoring; the rest is catalog data shown in setup.
type RolePoints map[Role]int

// DefaultMinisterPoints is used when a game's role points omit the Minister.
const DefaultMinisterPoints = 800

// DefaultRolePoints returns the default reward table.
func DefaultRolePoints() RolePoints {
	return RolePoints{
		RoleKing:     1000,
		RoleMinister: DefaultMinisterPoints,
		RoleSoldier:  500,
		RoleThief:    0,
		RoleLaundry:  300,
		RoleCleaner:  200,
		RoleChef:     150,
		RoleGardener: 100,
		RolePrince:   600,
		RoleQueen:    700,
	}
}

// MinisterPoints returns the configured Minister reward, defaulting when unset.
func (p RolePoints) MinisterPoints() int {
	if p == nil {
		return DefaultMinisterPoints
	}
	if v, ok := p[RoleMinister]; ok && v > 0 {
		return v
	}
	return DefaultMinisterPoints
}

// MinPlayers and MaxPlayers bound the roster size the allocator supports.
const (
	MinPlayers = 4
	MaxPlayers = 10
)

// AllocateRoles returns exactly n distinct roles: the four core roles plus the
// first n-4 extra roles, shuffled with an unbiased Fisher–Yates permutation.
func AllocateRoles(n int, rng *rand.Rand) ([]Role, error) {
	if n < len(CoreRoles) {
		return nil, fmt.Errorf("%w: %d players, need at least %d", ErrTooFewPlayers, n, len(CoreRoles))
	}
	if n > len(CoreRoles)+len(ExtraRoles) {
		return nil, fmt.Errorf("%w: %d players, at most %d supported", ErrTooManyPlayers, n, len(CoreRoles)+len(ExtraRoles))
	}
	roles := make([]Role, 0, n)
	roles = append(roles, CoreRoles...)
	roles = append(roles, ExtraRoles[:n-len(CoreRoles)]...)
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	return roles, nil
}
