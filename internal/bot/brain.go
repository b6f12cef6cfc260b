package bot

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/table"
)

// Strategy names a brain implementation.
type Strategy string

const (
	StrategyRandom Strategy = "random"
	StrategySeeker Strategy = "seeker"
)

// Strategies lists the accepted strategy names.
var Strategies = []Strategy{StrategyRandom, StrategySeeker}

// ParseStrategy converts a config value to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown bot strategy %q (expected one of %v)", name, Strategies)
}

// Brain picks the next slot a computer player presses. It is called with the
// table lock held and must not block. A negative result skips the turn.
type Brain interface {
	NextSlot(g *table.Grid, marked []int, rng *rand.Rand) int
}

// NewBrain creates a brain for the given strategy.
func NewBrain(s Strategy, claimSize int, valid cards.Predicate) (Brain, error) {
	switch s {
	case StrategyRandom:
		return RandomBrain{}, nil
	case StrategySeeker:
		return &SeekerBrain{ClaimSize: claimSize, Valid: valid}, nil
	default:
		return nil, fmt.Errorf("unknown bot strategy: %q", s)
	}
}

// RandomBrain presses any occupied slot.
type RandomBrain struct{}

func (RandomBrain) NextSlot(g *table.Grid, _ []int, rng *rand.Rand) int {
	occupied := g.OccupiedSlots()
	if len(occupied) == 0 {
		return -1
	}
	return occupied[rng.Intn(len(occupied))]
}

// SeekerBrain looks for a valid set on the board and marks it, first removing
// any of its own markers that are not part of the target. With no set on the
// board it behaves like RandomBrain.
type SeekerBrain struct {
	ClaimSize int
	Valid     cards.Predicate

	target []int
}

func (b *SeekerBrain) NextSlot(g *table.Grid, marked []int, rng *rand.Rand) int {
	if !b.targetOnBoard(g) {
		b.target = nil
		if sets := g.Hints(b.ClaimSize, b.Valid); len(sets) > 0 {
			b.target = sets[rng.Intn(len(sets))]
		}
	}
	if b.target == nil {
		return RandomBrain{}.NextSlot(g, marked, rng)
	}

	for _, card := range marked {
		if !contains(b.target, card) {
			if slot, ok := g.SlotOf(card); ok {
				return slot
			}
		}
	}
	for _, card := range b.target {
		if !contains(marked, card) {
			slot, _ := g.SlotOf(card)
			return slot
		}
	}
	// Everything is marked; the claim is with the arbiter.
	return -1
}

func (b *SeekerBrain) targetOnBoard(g *table.Grid) bool {
	if len(b.target) == 0 {
		return false
	}
	for _, card := range b.target {
		if _, ok := g.SlotOf(card); !ok {
			return false
		}
	}
	return true
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
