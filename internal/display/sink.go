// Package display defines the write-only sink the game core reports to, and the
// sinks shipped with setgame: a colored terminal renderer, a structured log
// sink, a Redis event publisher and a fan-out.
//
// Calls are fire-and-forget. The core invokes them while holding the table
// lock, so an implementation must never block on slow I/O.
package display

import "time"

// Sink receives every visible state change of a game.
type Sink interface {
	// ShowCountdown reports the time left in the round; warn is set once the
	// remaining time is below the warning threshold.
	ShowCountdown(remaining time.Duration, warn bool)
	SetScore(player, score int)
	// SetFreeze reports the time left on a player's freeze, 0 when it ends.
	SetFreeze(player int, remaining time.Duration)
	PlaceCard(card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	ClearAllMarkers()
	RemoveMarkersAt(slot int)
	ShowHint(cards []int)
	AnnounceWinners(players []int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ShowCountdown(time.Duration, bool) {}
func (Nop) SetScore(int, int)                 {}
func (Nop) SetFreeze(int, time.Duration)      {}
func (Nop) PlaceCard(int, int)                {}
func (Nop) RemoveCard(int)                    {}
func (Nop) PlaceToken(int, int)               {}
func (Nop) RemoveToken(int, int)              {}
func (Nop) ClearAllMarkers()                  {}
func (Nop) RemoveMarkersAt(int)               {}
func (Nop) ShowHint([]int)                    {}
func (Nop) AnnounceWinners([]int)             {}

// Multi forwards every call to each of its sinks in order.
type Multi []Sink

func (m Multi) ShowCountdown(remaining time.Duration, warn bool) {
	for _, s := range m {
		s.ShowCountdown(remaining, warn)
	}
}

func (m Multi) SetScore(player, score int) {
	for _, s := range m {
		s.SetScore(player, score)
	}
}

func (m Multi) SetFreeze(player int, remaining time.Duration) {
	for _, s := range m {
		s.SetFreeze(player, remaining)
	}
}

func (m Multi) PlaceCard(card, slot int) {
	for _, s := range m {
		s.PlaceCard(card, slot)
	}
}

func (m Multi) RemoveCard(slot int) {
	for _, s := range m {
		s.RemoveCard(slot)
	}
}

func (m Multi) PlaceToken(player, slot int) {
	for _, s := range m {
		s.PlaceToken(player, slot)
	}
}

func (m Multi) RemoveToken(player, slot int) {
	for _, s := range m {
		s.RemoveToken(player, slot)
	}
}

func (m Multi) ClearAllMarkers() {
	for _, s := range m {
		s.ClearAllMarkers()
	}
}

func (m Multi) RemoveMarkersAt(slot int) {
	for _, s := range m {
		s.RemoveMarkersAt(slot)
	}
}

func (m Multi) ShowHint(cards []int) {
	for _, s := range m {
		s.ShowHint(cards)
	}
}

func (m Multi) AnnounceWinners(players []int) {
	for _, s := range m {
		s.AnnounceWinners(players)
	}
}
