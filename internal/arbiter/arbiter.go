// Package arbiter runs a game: it deals cards, drives the round countdown,
// resolves queued claims in arrival order and terminates the players when the
// game ends.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/claims"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/player"
	"github.com/dyluth/setgame/internal/table"
	"github.com/rs/zerolog"
)

// State is the arbiter's round phase.
type State string

const (
	StateIdle         State = "idle"
	StateDealing      State = "dealing"
	StateCountingDown State = "counting_down"
	StateReshuffling  State = "reshuffling"
	StateTerminating  State = "terminating"
	StateTerminated   State = "terminated"
)

// Config holds the game rules the arbiter enforces.
type Config struct {
	TableSize          int
	ClaimSize          int
	DeckSize           int
	TurnTimeout        time.Duration
	TurnTimeoutWarning time.Duration
	Tick               time.Duration
	WarningTick        time.Duration
	Hints              bool
	HintThreshold      time.Duration
}

// Deps are the arbiter's collaborators. Players must be indexed by their ID.
type Deps struct {
	Table   *table.Table
	Queue   *claims.Queue
	Players []*player.Player
	Display display.Sink
	Valid   cards.Predicate
	Rand    *rand.Rand
	Logger  zerolog.Logger
}

// Arbiter is the single controlling goroutine of a game.
type Arbiter struct {
	cfg     Config
	table   *table.Table
	queue   *claims.Queue
	players []*player.Player
	display display.Sink
	valid   cards.Predicate
	rng     *rand.Rand
	log     zerolog.Logger

	// deck holds the cards neither on the board nor scored. Guarded by the
	// table lock.
	deck []int

	// Owned by the arbiter goroutine.
	timer         *roundTimer
	resetDeadline bool
	frozen        map[int]bool

	mu      sync.Mutex
	state   State
	round   int
	winners []int

	quit     chan struct{}
	quitOnce sync.Once
}

// New validates the configuration and creates an arbiter with a full deck.
func New(cfg Config, deps Deps) (*Arbiter, error) {
	if cfg.TableSize <= 0 {
		return nil, fmt.Errorf("table size must be positive, got %d", cfg.TableSize)
	}
	if cfg.ClaimSize < 1 || cfg.ClaimSize > cfg.TableSize {
		return nil, fmt.Errorf("claim size must be between 1 and %d, got %d", cfg.TableSize, cfg.ClaimSize)
	}
	if cfg.TurnTimeout <= 0 {
		return nil, errors.New("turn timeout must be positive")
	}
	if deps.Table == nil || deps.Queue == nil {
		return nil, errors.New("table and claim queue are required")
	}
	if deps.Table.Size() != cfg.TableSize {
		return nil, fmt.Errorf("table has %d slots, config expects %d", deps.Table.Size(), cfg.TableSize)
	}
	if len(deps.Players) == 0 {
		return nil, errors.New("at least one player is required")
	}
	for i, p := range deps.Players {
		if p.ID != i {
			return nil, fmt.Errorf("player at index %d has id %d", i, p.ID)
		}
	}
	if deps.Valid == nil {
		return nil, errors.New("set predicate is required")
	}

	sink := deps.Display
	if sink == nil {
		sink = display.Nop{}
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Arbiter{
		cfg:     cfg,
		table:   deps.Table,
		queue:   deps.Queue,
		players: deps.Players,
		display: sink,
		valid:   deps.Valid,
		rng:     rng,
		log:     deps.Logger.With().Str("component", "arbiter").Logger(),
		deck:    cards.NewDeck(cfg.DeckSize),
		timer:   newRoundTimer(cfg),
		frozen:  make(map[int]bool),
		state:   StateIdle,
		quit:    make(chan struct{}),
	}, nil
}

// Run plays the game to the end. It starts every player, loops over rounds
// until no set is left or termination is requested, joins the players and
// announces the winners. Cancelling ctx is a termination request.
func (a *Arbiter) Run(ctx context.Context) error {
	a.log.Info().
		Int("players", len(a.players)).
		Int("deck", a.cfg.DeckSize).
		Int("table_size", a.cfg.TableSize).
		Msg("game starting")

	for _, p := range a.players {
		p.Start()
	}
	a.display.ShowCountdown(a.cfg.TurnTimeout, false)

	for !a.shouldFinish(ctx) {
		a.placeCardsOnTable(true)
		a.updateTimerDisplay()
		a.timerLoop(ctx)
		a.updateTimerDisplay()
		a.removeAllCardsFromTable()
	}

	a.setState(StateTerminating)
	a.terminatePlayers()
	a.announceWinners()
	a.setState(StateTerminated)
	return nil
}

// Terminate requests the end of the game. It returns immediately; Run finishes
// the shutdown. Safe to call from any goroutine, any number of times.
func (a *Arbiter) Terminate() {
	a.quitOnce.Do(func() {
		a.log.Info().Msg("termination requested")
		close(a.quit)
	})
}

func (a *Arbiter) terminating(ctx context.Context) bool {
	select {
	case <-a.quit:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// shouldFinish reports whether the game is over: termination was requested
// or the remaining cards hold no set.
func (a *Arbiter) shouldFinish(ctx context.Context) bool {
	if a.terminating(ctx) {
		return true
	}
	var exhausted bool
	a.table.View(func(g *table.Grid) { exhausted = a.exhausted(g) })
	return exhausted
}

// exhausted reports whether deck and board together hold no set. Requires the
// table lock.
func (a *Arbiter) exhausted(g *table.Grid) bool {
	remaining := append(g.Cards(), a.deck...)
	return len(cards.FindSets(remaining, a.cfg.ClaimSize, a.valid, 1)) == 0
}

// SlotPressed routes a key press to the player. Unknown players are ignored.
func (a *Arbiter) SlotPressed(playerID, slot int) bool {
	if playerID < 0 || playerID >= len(a.players) {
		return false
	}
	return a.players[playerID].KeyPressed(slot)
}

// Players returns the game's players, indexed by ID.
func (a *Arbiter) Players() []*player.Player {
	return a.players
}

// Scores returns every player's score, indexed by player ID.
func (a *Arbiter) Scores() []int {
	scores := make([]int, len(a.players))
	for i, p := range a.players {
		scores[i] = p.Score()
	}
	return scores
}

// Winners returns the players announced at the end of the game, or nil while
// it is still running.
func (a *Arbiter) Winners() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.winners...)
}

// State returns the current phase.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Arbiter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// timerLoop runs one round: it sleeps until a claim arrives or the countdown
// needs refreshing, resolves claims and tops up the board, until the deadline
// passes, the cards run out or termination is requested.
func (a *Arbiter) timerLoop(ctx context.Context) {
	a.setState(StateCountingDown)

	for !a.terminating(ctx) && !a.timer.expired(time.Now()) {
		a.sleepUntilWokenOrTimeout(ctx)
		a.updateTimerDisplay()

		var scored, exhausted bool
		a.table.Do(func(g *table.Grid) {
			scored = a.drainClaims(g)
			if scored {
				exhausted = a.exhausted(g)
			}
		})
		if a.resetDeadline {
			a.resetDeadline = false
			a.timer.reset(time.Now())
			a.updateTimerDisplay()
		}
		if exhausted {
			a.log.Info().Msg("no set left on the board or in the deck")
			return
		}
		if scored {
			a.placeCardsOnTable(false)
			// Claims left behind by the early stop are handled on the next pass.
			if a.queue.Len() > 0 {
				a.queue.Notify()
			}
		}
	}
}

func (a *Arbiter) sleepUntilWokenOrTimeout(ctx context.Context) {
	timer := time.NewTimer(a.timer.quantum(time.Now()))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-a.queue.Signal():
	case <-a.quit:
	case <-ctx.Done():
	}
}

// placeCardsOnTable fills empty slots with random deck cards. At the start of
// a round it also restarts the countdown and releases every player.
func (a *Arbiter) placeCardsOnTable(roundStart bool) {
	if roundStart {
		a.setState(StateDealing)
	}

	placed := 0
	a.table.Do(func(g *table.Grid) {
		empty := g.EmptySlots()
		for len(empty) > 0 && len(a.deck) > 0 {
			i := a.rng.Intn(len(empty))
			slot := empty[i]
			empty = append(empty[:i], empty[i+1:]...)

			var card int
			card, a.deck = cards.Draw(a.rng, a.deck)
			if err := g.PlaceCard(card, slot); err != nil {
				a.log.Error().Err(err).Int("card", card).Int("slot", slot).Msg("failed to deal card")
				a.deck = append(a.deck, card)
				continue
			}
			placed++
		}
	})

	if !roundStart {
		if placed > 0 {
			a.log.Debug().Int("placed", placed).Msg("board topped up")
		}
		return
	}

	a.mu.Lock()
	a.round++
	round := a.round
	a.mu.Unlock()

	a.timer.reset(time.Now())
	for _, p := range a.players {
		p.Release()
	}
	a.logEvent("round_started", map[string]interface{}{
		"round":     round,
		"placed":    placed,
		"deck_left": a.deckSize(),
	})
	a.setState(StateCountingDown)
}

// updateTimerDisplay refreshes the countdown, the hints and the per-player
// freeze indicators.
func (a *Arbiter) updateTimerDisplay() {
	now := time.Now()
	a.display.ShowCountdown(a.timer.countdown(now))

	if a.timer.hintDue(now) {
		a.timer.hintShown = true
		a.showHints()
	}

	for _, p := range a.players {
		if rem := p.FreezeRemaining(); rem > 0 {
			a.display.SetFreeze(p.ID, rem)
			a.frozen[p.ID] = true
		} else if a.frozen[p.ID] {
			a.display.SetFreeze(p.ID, 0)
			delete(a.frozen, p.ID)
		}
	}
}

func (a *Arbiter) showHints() {
	var hints [][]int
	a.table.View(func(g *table.Grid) { hints = g.Hints(a.cfg.ClaimSize, a.valid) })
	for _, h := range hints {
		a.display.ShowHint(h)
	}
	a.log.Debug().Int("sets", len(hints)).Msg("hints shown")
}

// removeAllCardsFromTable ends a round: every player is blocked and reset, the
// claim queue is cleared and the board cards go back to the deck. A full board
// is cleared in random order, a partial one from the top slot down.
func (a *Arbiter) removeAllCardsFromTable() {
	a.setState(StateReshuffling)

	for _, p := range a.players {
		p.Block()
	}

	returned := 0
	a.table.Do(func(g *table.Grid) {
		g.ClearTokens()
		for _, p := range a.players {
			p.Reset(g)
		}
		a.queue.Clear()

		slots := g.OccupiedSlots()
		if len(slots) == g.Size() {
			a.rng.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
		}
		for _, slot := range slots {
			card, _, err := g.RemoveCard(slot)
			if err != nil {
				a.log.Error().Err(err).Int("slot", slot).Msg("failed to collect card")
				continue
			}
			a.deck = append(a.deck, card)
			returned++
		}
	})
	a.timer.hintShown = false

	a.logEvent("round_reshuffled", map[string]interface{}{
		"returned":  returned,
		"deck_size": a.deckSize(),
	})
}

// terminatePlayers stops every player, last one first, and waits for each to
// exit together with its input source. Must not be called with the table lock
// held: a player may need it to finish its current step.
func (a *Arbiter) terminatePlayers() {
	for i := len(a.players) - 1; i >= 0; i-- {
		p := a.players[i]
		p.Terminate()
		<-p.Done()
		a.log.Debug().Int("player", p.ID).Msg("player joined")
	}
}

// announceWinners reports every player tied at the highest score.
func (a *Arbiter) announceWinners() []int {
	scores := a.Scores()
	best := 0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	var winners []int
	for id, s := range scores {
		if s == best {
			winners = append(winners, id)
		}
	}

	a.mu.Lock()
	a.winners = winners
	a.mu.Unlock()

	a.display.AnnounceWinners(winners)
	a.logEvent("game_over", map[string]interface{}{
		"winners": winners,
		"score":   best,
		"scores":  scores,
	})
	return winners
}

func (a *Arbiter) deckSize() (n int) {
	a.table.View(func(*table.Grid) { n = len(a.deck) })
	return n
}

// logEvent writes a named structured event.
func (a *Arbiter) logEvent(eventType string, data map[string]interface{}) {
	a.log.Info().Str("event_type", eventType).Fields(data).Msg(eventType)
}
