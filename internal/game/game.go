// Package game assembles a playable game from a validated configuration: the
// board, the claim queue, one player agent per seat with a bot behind every
// computer seat, and the arbiter that drives them.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/dyluth/setgame/internal/arbiter"
	"github.com/dyluth/setgame/internal/bot"
	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/claims"
	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/player"
	"github.com/dyluth/setgame/internal/table"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options are the runtime collaborators that do not come from setgame.yml.
type Options struct {
	// Display receives every visible change. Nil discards them.
	Display display.Sink
	Logger  zerolog.Logger
	// Seed fixes every random choice of the game. Zero seeds from the clock.
	Seed int64
	// Valid overrides the set predicate. Nil uses the deck's IsValidSet.
	Valid cards.Predicate
}

// Game is a fully wired, not yet started game.
type Game struct {
	ID      string
	Config  *config.SetgameConfig
	Arbiter *arbiter.Arbiter
	Table   *table.Table
	Queue   *claims.Queue

	bots map[int]*bot.Bot
	log  zerolog.Logger
}

// ArbiterConfig maps the file configuration onto the arbiter's rules.
func ArbiterConfig(c *config.SetgameConfig) arbiter.Config {
	return arbiter.Config{
		TableSize:          c.Table.Size,
		ClaimSize:          c.ClaimSize(),
		DeckSize:           c.Deck.Size,
		TurnTimeout:        c.Timing.TurnTimeout,
		TurnTimeoutWarning: c.Timing.TurnTimeoutWarning,
		Tick:               c.Timing.Tick,
		WarningTick:        c.Timing.WarningTick,
		Hints:              c.Hints,
		HintThreshold:      c.Timing.HintThreshold,
	}
}

// PlayerConfig maps the file configuration onto the player agents' rules.
func PlayerConfig(c *config.SetgameConfig) player.Config {
	return player.Config{
		ClaimSize:     c.ClaimSize(),
		PointFreeze:   c.Timing.PointFreeze,
		PenaltyFreeze: c.Timing.PenaltyFreeze,
	}
}

// New wires a game. cfg must have passed Validate.
func New(cfg *config.SetgameConfig, opts Options) (*Game, error) {
	if len(cfg.Players.Names) != cfg.TotalPlayers() {
		return nil, fmt.Errorf("configuration not validated: %d names for %d players", len(cfg.Players.Names), cfg.TotalPlayers())
	}

	strategy, err := bot.ParseStrategy(cfg.Computer.Strategy)
	if err != nil {
		return nil, err
	}

	valid := opts.Valid
	if valid == nil {
		valid = cfg.CardSpec().IsValidSet
	}
	sink := opts.Display
	if sink == nil {
		sink = display.Nop{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	id := cfg.Events.GameID
	if id == "" {
		id = uuid.NewString()
	}
	log := opts.Logger.With().Str("game_id", id).Logger()

	g := &Game{
		ID:     id,
		Config: cfg,
		Table:  table.New(cfg.Table.Size, sink),
		Queue:  claims.NewQueue(),
		bots:   make(map[int]*bot.Bot),
		log:    log,
	}

	// One rng per goroutine: math/rand sources are not safe for concurrent use.
	seeds := rand.New(rand.NewSource(seed))
	pcfg := PlayerConfig(cfg)
	players := make([]*player.Player, 0, cfg.TotalPlayers())
	for i, name := range cfg.Players.Names {
		human := i < cfg.Players.Human
		botSeed := seeds.Int63()

		deps := player.Deps{
			Table:   g.Table,
			Queue:   g.Queue,
			Display: sink,
			Logger:  log,
		}
		if !human {
			brain, err := bot.NewBrain(strategy, cfg.ClaimSize(), valid)
			if err != nil {
				return nil, fmt.Errorf("failed to create bot for %s: %w", name, err)
			}
			deps.Input = func(p *player.Player) player.InputSource {
				b := bot.New(p, g.Table, brain, cfg.Computer.KeyPressInterval, rand.New(rand.NewSource(botSeed)), log)
				g.bots[p.ID] = b
				return b
			}
		}
		players = append(players, player.New(i, name, human, pcfg, deps))
	}

	a, err := arbiter.New(ArbiterConfig(cfg), arbiter.Deps{
		Table:   g.Table,
		Queue:   g.Queue,
		Players: players,
		Display: sink,
		Valid:   valid,
		Rand:    rand.New(rand.NewSource(seeds.Int63())),
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create arbiter: %w", err)
	}
	g.Arbiter = a

	return g, nil
}

// Run plays the game to completion and returns the winners.
func (g *Game) Run(ctx context.Context) ([]int, error) {
	g.log.Info().
		Int("humans", g.Config.Players.Human).
		Int("computers", g.Config.Players.Computer).
		Str("strategy", g.Config.Computer.Strategy).
		Msg("seats ready")

	if err := g.Arbiter.Run(ctx); err != nil {
		return nil, err
	}

	winners := g.Arbiter.Winners()
	for id, b := range g.bots {
		pressed, accepted := b.Stats()
		g.log.Debug().Int("player", id).Int64("pressed", pressed).Int64("accepted", accepted).Msg("bot summary")
	}
	return winners, nil
}

// SlotPressed forwards a human key press. It reports whether the press was
// accepted.
func (g *Game) SlotPressed(playerID, slot int) bool {
	return g.Arbiter.SlotPressed(playerID, slot)
}

// Terminate asks the game to stop; Run returns once every player is joined.
func (g *Game) Terminate() {
	g.Arbiter.Terminate()
}

// Names returns the display names indexed by player id.
func (g *Game) Names() []string {
	return append([]string(nil), g.Config.Players.Names...)
}

// Humans returns the ids of the human seats.
func (g *Game) Humans() []int {
	ids := make([]int, 0, g.Config.Players.Human)
	for i := 0; i < g.Config.Players.Human; i++ {
		ids = append(ids, i)
	}
	return ids
}
