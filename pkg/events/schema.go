package events

import "fmt"

// Redis key pattern helpers
//
// Keys and channels are namespaced by game ID so several games can share one
// Redis server.
//
// Key pattern: setgame:{game_id}:{entity}
// Channel pattern: setgame:{game_id}:events

// EventsChannel returns the Pub/Sub channel carrying a game's events.
// Pattern: setgame:{game_id}:events
func EventsChannel(gameID string) string {
	return fmt.Sprintf("setgame:%s:events", gameID)
}

// ScoresKey returns the Redis key of a game's scoreboard hash.
// The hash maps player id to score and lets late watchers catch up.
// Pattern: setgame:{game_id}:scores
func ScoresKey(gameID string) string {
	return fmt.Sprintf("setgame:%s:scores", gameID)
}
