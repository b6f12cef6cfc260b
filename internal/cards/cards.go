// Package cards models Set cards as feature vectors and provides the default
// set predicate used by the arbiter.
//
// A card is identified by an int in [0, DeckSize). Its features are the digits
// of that id written in base FeatureSize, FeatureCount digits long. With the
// classic parameters (3 values, 4 features) this yields the familiar 81-card
// deck: number, color, shading and shape.
package cards

import (
	"fmt"
	"math/rand"
)

// Predicate reports whether the given cards form a valid set.
// Implementations must be pure: the arbiter may call them while holding the
// table lock.
type Predicate func(cards []int) bool

// Spec describes the shape of the card space.
type Spec struct {
	FeatureSize  int // values per feature, also the number of cards in a set
	FeatureCount int // features per card
}

// Classic is the standard Set deck.
var Classic = Spec{FeatureSize: 3, FeatureCount: 4}

// DeckSize returns FeatureSize^FeatureCount.
func (s Spec) DeckSize() int {
	size := 1
	for i := 0; i < s.FeatureCount; i++ {
		size *= s.FeatureSize
	}
	return size
}

// Validate checks that s describes a playable card space.
func (s Spec) Validate() error {
	if s.FeatureSize < 2 {
		return fmt.Errorf("feature size must be >= 2, got %d", s.FeatureSize)
	}
	if s.FeatureCount < 1 {
		return fmt.Errorf("feature count must be >= 1, got %d", s.FeatureCount)
	}
	return nil
}

// Features returns the feature vector of a card.
func (s Spec) Features(card int) []int {
	features := make([]int, s.FeatureCount)
	for i := 0; i < s.FeatureCount; i++ {
		features[i] = card % s.FeatureSize
		card /= s.FeatureSize
	}
	return features
}

// IsValidSet is the default Predicate: exactly FeatureSize distinct cards where
// every feature is either shared by all of them or different on each of them.
func (s Spec) IsValidSet(cards []int) bool {
	if len(cards) != s.FeatureSize {
		return false
	}

	seen := make(map[int]bool, len(cards))
	vectors := make([][]int, len(cards))
	for i, c := range cards {
		if seen[c] {
			return false
		}
		seen[c] = true
		vectors[i] = s.Features(c)
	}

	for f := 0; f < s.FeatureCount; f++ {
		values := make(map[int]struct{}, len(cards))
		for _, v := range vectors {
			values[v[f]] = struct{}{}
		}
		if len(values) != 1 && len(values) != len(cards) {
			return false
		}
	}
	return true
}

// FindSets returns up to max valid sets among the given cards, in the order the
// combinations are enumerated. A max <= 0 means no limit.
func FindSets(cards []int, size int, valid Predicate, max int) [][]int {
	var found [][]int
	if size <= 0 || len(cards) < size {
		return found
	}

	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}

	pick := make([]int, size)
	for {
		for i, j := range idx {
			pick[i] = cards[j]
		}
		if valid(pick) {
			set := make([]int, size)
			copy(set, pick)
			found = append(found, set)
			if max > 0 && len(found) >= max {
				return found
			}
		}

		// advance to the next combination in lexicographic order
		i := size - 1
		for i >= 0 && idx[i] == len(cards)-size+i {
			i--
		}
		if i < 0 {
			return found
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// NewDeck returns the card ids 0..size-1 in order.
func NewDeck(size int) []int {
	deck := make([]int, size)
	for i := range deck {
		deck[i] = i
	}
	return deck
}

// Shuffle shuffles the deck in place.
func Shuffle(rng *rand.Rand, deck []int) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Draw removes and returns a random card from the deck.
// It panics on an empty deck; callers check the length first.
func Draw(rng *rand.Rand, deck []int) (int, []int) {
	i := rng.Intn(len(deck))
	card := deck[i]
	deck[i] = deck[len(deck)-1]
	return card, deck[:len(deck)-1]
}
