package filter

import (
	"path/filepath"

	"github.com/dyluth/setgame/pkg/events"
)

// Criteria defines filtering criteria for game events.
// All filters are ANDed together - an event must match ALL criteria to pass.
type Criteria struct {
	TypeGlob string // Glob pattern for the event type, empty = no filter
	Player   int    // Player id, events.None = no filter
}

// All returns criteria that match every event.
func All() Criteria {
	return Criteria{Player: events.None}
}

// Matches returns true if the event matches all filter criteria.
// Empty criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(e *events.Event) bool {
	// Type filtering - glob pattern matching
	if c.TypeGlob != "" {
		matched, err := filepath.Match(c.TypeGlob, string(e.Type))
		if err != nil || !matched {
			return false
		}
	}

	// Player filtering - the event's own player, or any of the winners
	if c.Player != events.None && e.Player != c.Player && !containsPlayer(e.Players, c.Player) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.TypeGlob != "" || c.Player != events.None
}

// Validate rejects malformed glob patterns up front.
func (c *Criteria) Validate() error {
	if c.TypeGlob == "" {
		return nil
	}
	_, err := filepath.Match(c.TypeGlob, "")
	return err
}

func containsPlayer(players []int, id int) bool {
	for _, p := range players {
		if p == id {
			return true
		}
	}
	return false
}
