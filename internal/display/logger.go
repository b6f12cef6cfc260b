package display

import (
	"time"

	"github.com/rs/zerolog"
)

// Logger writes every display call as a debug event. Countdown ticks go to
// trace level; there are many of them.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a logging sink.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "display").Logger()}
}

func (l *Logger) ShowCountdown(remaining time.Duration, warn bool) {
	l.log.Trace().Dur("remaining", remaining).Bool("warn", warn).Msg("countdown")
}

func (l *Logger) SetScore(player, score int) {
	l.log.Debug().Int("player", player).Int("score", score).Msg("score")
}

func (l *Logger) SetFreeze(player int, remaining time.Duration) {
	l.log.Debug().Int("player", player).Dur("remaining", remaining).Msg("freeze")
}

func (l *Logger) PlaceCard(card, slot int) {
	l.log.Debug().Int("card", card).Int("slot", slot).Msg("card placed")
}

func (l *Logger) RemoveCard(slot int) {
	l.log.Debug().Int("slot", slot).Msg("card removed")
}

func (l *Logger) PlaceToken(player, slot int) {
	l.log.Debug().Int("player", player).Int("slot", slot).Msg("token placed")
}

func (l *Logger) RemoveToken(player, slot int) {
	l.log.Debug().Int("player", player).Int("slot", slot).Msg("token removed")
}

func (l *Logger) ClearAllMarkers() {
	l.log.Debug().Msg("markers cleared")
}

func (l *Logger) RemoveMarkersAt(slot int) {
	l.log.Debug().Int("slot", slot).Msg("markers removed")
}

func (l *Logger) ShowHint(cards []int) {
	l.log.Debug().Ints("cards", cards).Msg("hint")
}

func (l *Logger) AnnounceWinners(players []int) {
	l.log.Info().Ints("players", players).Msg("winners")
}
