// Package events defines the game event stream published to Redis and the
// client used to publish and consume it.
//
// Every visible change of a game (cards dealt, markers placed, scores, freezes,
// countdown ticks, winners) is published as one JSON Event on the game's
// channel, so any number of watchers can follow a game live.
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// None marks an Event field that does not apply to the event type.
const None = -1

// Event is one visible state change of a game.
type Event struct {
	ID          string    `json:"id"`                     // UUID
	GameID      string    `json:"game_id"`                // Game the event belongs to
	Type        EventType `json:"type"`                   // What happened
	Player      int       `json:"player"`                 // Player id, or None
	Slot        int       `json:"slot"`                   // Board slot, or None
	Card        int       `json:"card"`                   // Card id, or None
	Score       int       `json:"score,omitempty"`        // New score (score events)
	Cards       []int     `json:"cards,omitempty"`        // Hinted set (hint events)
	Players     []int     `json:"players,omitempty"`      // Winners (winners events)
	RemainingMs int64     `json:"remaining_ms,omitempty"` // Countdown or freeze time left
	Warn        bool      `json:"warn,omitempty"`         // Countdown is in the warning window
	CreatedAtMs int64     `json:"created_at_ms"`          // Unix timestamp in milliseconds
}

// EventType names the kind of change an Event reports.
type EventType string

const (
	// EventCountdown reports the time left in the round
	EventCountdown EventType = "countdown"

	// EventScore reports a player's new score
	EventScore EventType = "score"

	// EventFreeze reports the time left on a player's freeze, 0 when it ends
	EventFreeze EventType = "freeze"

	// EventCardPlaced reports a card dealt into a slot
	EventCardPlaced EventType = "card_placed"

	// EventCardRemoved reports a slot emptied
	EventCardRemoved EventType = "card_removed"

	// EventTokenPlaced reports a player's marker placed on a slot
	EventTokenPlaced EventType = "token_placed"

	// EventTokenRemoved reports a player's marker taken off a slot
	EventTokenRemoved EventType = "token_removed"

	// EventMarkersCleared reports every marker removed from the board
	EventMarkersCleared EventType = "markers_cleared"

	// EventMarkersRemoved reports every marker removed from one slot
	EventMarkersRemoved EventType = "markers_removed"

	// EventHint reports a valid set on the board
	EventHint EventType = "hint"

	// EventWinners reports the end of the game
	EventWinners EventType = "winners"
)

// New creates an event with a fresh ID and timestamp. Player, slot and card
// start as None.
func New(gameID string, t EventType) *Event {
	return &Event{
		ID:          uuid.New().String(),
		GameID:      gameID,
		Type:        t,
		Player:      None,
		Slot:        None,
		Card:        None,
		CreatedAtMs: time.Now().UnixMilli(),
	}
}

// Validate checks the event type and that the fields the type needs are set.
func (e *Event) Validate() error {
	if !isValidUUID(e.ID) {
		return fmt.Errorf("invalid event ID: not a valid UUID")
	}
	if e.GameID == "" {
		return fmt.Errorf("game ID cannot be empty")
	}
	if err := e.Type.Validate(); err != nil {
		return fmt.Errorf("invalid event type: %w", err)
	}

	switch e.Type {
	case EventScore, EventFreeze:
		if e.Player < 0 {
			return fmt.Errorf("%s event requires a player", e.Type)
		}
	case EventCardPlaced:
		if e.Slot < 0 || e.Card < 0 {
			return fmt.Errorf("%s event requires a slot and a card", e.Type)
		}
	case EventCardRemoved, EventMarkersRemoved:
		if e.Slot < 0 {
			return fmt.Errorf("%s event requires a slot", e.Type)
		}
	case EventTokenPlaced, EventTokenRemoved:
		if e.Player < 0 || e.Slot < 0 {
			return fmt.Errorf("%s event requires a player and a slot", e.Type)
		}
	case EventHint:
		if len(e.Cards) == 0 {
			return fmt.Errorf("hint event requires cards")
		}
	}
	return nil
}

// Validate checks that the event type is known.
func (t EventType) Validate() error {
	switch t {
	case EventCountdown, EventScore, EventFreeze, EventCardPlaced, EventCardRemoved,
		EventTokenPlaced, EventTokenRemoved, EventMarkersCleared, EventMarkersRemoved,
		EventHint, EventWinners:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", t)
	}
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
