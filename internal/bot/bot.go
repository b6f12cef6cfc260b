// Package bot drives computer players. A Bot presses slots at a fixed pace
// through the same KeyPressed entry point human input uses, so the player agent
// cannot tell the two apart.
package bot

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/dyluth/setgame/internal/table"
	"github.com/rs/zerolog"
)

// Presser is the player a bot plays for.
type Presser interface {
	KeyPressed(slot int) bool
	// Markers returns the player's marked cards. Requires the table lock.
	Markers(g *table.Grid) []int
}

// Bot is the input source of one computer player.
type Bot struct {
	player   Presser
	table    *table.Table
	brain    Brain
	interval time.Duration
	rng      *rand.Rand
	log      zerolog.Logger

	pressed  atomic.Int64
	accepted atomic.Int64
}

// New creates a bot. The rng is owned by the bot from then on.
func New(player Presser, tbl *table.Table, brain Brain, interval time.Duration, rng *rand.Rand, log zerolog.Logger) *Bot {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Bot{
		player:   player,
		table:    tbl,
		brain:    brain,
		interval: interval,
		rng:      rng,
		log:      log.With().Str("component", "bot").Logger(),
	}
}

// Run presses one slot per interval until quit is closed.
func (b *Bot) Run(quit <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Debug().Dur("interval", b.interval).Msg("bot started")
	defer func() {
		b.log.Debug().
			Int64("pressed", b.pressed.Load()).
			Int64("accepted", b.accepted.Load()).
			Msg("bot stopped")
	}()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			b.pressOnce()
		}
	}
}

func (b *Bot) pressOnce() {
	slot := -1
	b.table.View(func(g *table.Grid) {
		slot = b.brain.NextSlot(g, b.player.Markers(g), b.rng)
	})
	if slot < 0 {
		return
	}

	b.pressed.Add(1)
	if b.player.KeyPressed(slot) {
		b.accepted.Add(1)
	}
}

// Stats returns how many presses the bot made and how many were accepted.
func (b *Bot) Stats() (pressed, accepted int64) {
	return b.pressed.Load(), b.accepted.Load()
}
