// Package player implements the player agent: one goroutine per participant
// that consumes queued key presses, toggles markers on the table and, once a
// full claim is assembled, publishes it and waits for the arbiter's verdict.
package player

import (
	"sync"
	"time"

	"github.com/dyluth/setgame/internal/claims"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/table"
	"github.com/rs/zerolog"
)

// Config holds the rules a player agent enforces.
type Config struct {
	ClaimSize     int           // markers needed for a claim (K)
	PointFreeze   time.Duration // freeze after scoring
	PenaltyFreeze time.Duration // freeze after an invalid claim
}

// InputSource generates key presses for a computer player. Run blocks until
// quit is closed.
type InputSource interface {
	Run(quit <-chan struct{})
}

// Deps are the collaborators shared by all players of a game.
type Deps struct {
	Table   *table.Table
	Queue   *claims.Queue
	Display display.Sink
	Logger  zerolog.Logger
	// Input builds the input source of a computer player. Ignored for humans.
	Input func(p *Player) InputSource
}

// State is the coarse lifecycle state of a player, for logs and displays.
type State string

const (
	StateBlocked    State = "blocked"
	StatePlayable   State = "playable"
	StateFrozen     State = "frozen"
	StateTerminated State = "terminated"
)

type action struct {
	slot  int
	epoch uint64
}

// Player is a single participant. The exported fields are fixed at creation.
type Player struct {
	ID    int
	Name  string
	Human bool

	cfg     Config
	table   *table.Table
	queue   *claims.Queue
	display display.Sink
	log     zerolog.Logger
	input   InputSource

	actions chan action

	mu          sync.Mutex
	playable    bool
	suspended   bool // the agent goroutine is parked
	terminated  bool
	freezeDue   bool
	freezeUntil time.Time
	score       int
	epoch       uint64

	// markers lists the cards this player has marked, in marking order.
	// Guarded by the table lock.
	markers []int

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a blocked player. Call Start to launch its goroutines.
func New(id int, name string, human bool, cfg Config, deps Deps) *Player {
	sink := deps.Display
	if sink == nil {
		sink = display.Nop{}
	}
	p := &Player{
		ID:        id,
		Name:      name,
		Human:     human,
		cfg:       cfg,
		table:     deps.Table,
		queue:     deps.Queue,
		display:   sink,
		log:       deps.Logger.With().Str("component", "player").Int("player", id).Logger(),
		actions:   make(chan action, cfg.ClaimSize),
		suspended: true,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if !human && deps.Input != nil {
		p.input = deps.Input(p)
	}
	return p
}

// Start launches the agent goroutine and, for computer players, the input
// source goroutine.
func (p *Player) Start() {
	if p.input != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.input.Run(p.quit)
		}()
	}
	go p.run()
}

// Done is closed once the agent goroutine and its input source have exited.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) run() {
	defer close(p.done)
	defer p.wg.Wait()
	defer p.log.Debug().Msg("player goroutine exited")

	p.log.Info().Str("name", p.Name).Bool("human", p.Human).Msg("player started")

	for {
		if !p.awaitPlayable() {
			return
		}
		if !p.serveFreeze() {
			return
		}
		if !p.step() {
			return
		}
	}
}

// awaitPlayable parks the goroutine until the arbiter marks the player
// playable. The flag is re-checked after every wake-up, so a wake-up that races
// with the park is never lost. Returns false on termination.
func (p *Player) awaitPlayable() bool {
	for {
		p.mu.Lock()
		if p.terminated {
			p.mu.Unlock()
			return false
		}
		if p.playable {
			p.mu.Unlock()
			return true
		}
		p.suspended = true
		p.mu.Unlock()

		select {
		case <-p.wake:
		case <-p.quit:
			return false
		}
	}
}

// serveFreeze sleeps out a pending point or penalty freeze. The arbiter only
// sets the deadline; the waiting happens here so claim draining never blocks.
func (p *Player) serveFreeze() bool {
	p.mu.Lock()
	if !p.freezeDue {
		p.suspended = false
		p.mu.Unlock()
		return true
	}
	until := p.freezeUntil
	p.suspended = true
	p.mu.Unlock()

	if d := time.Until(until); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-p.quit:
			return false
		}
	}

	p.mu.Lock()
	p.freezeDue = false
	p.suspended = false
	p.mu.Unlock()
	p.notify()
	return true
}

// step consumes one queued action, or returns early when the arbiter changes
// the player's state.
func (p *Player) step() bool {
	select {
	case a := <-p.actions:
		p.apply(a)
		return true
	case <-p.wake:
		return true
	case <-p.quit:
		return false
	}
}

// apply toggles the marker on the card currently in the action's slot and
// publishes a claim when the player reaches a full set of markers. It all
// happens under the table lock so the arbiter sees the claim and the markers
// change atomically.
func (p *Player) apply(a action) {
	var claim *claims.Claim

	p.table.Do(func(g *table.Grid) {
		p.mu.Lock()
		live := p.playable && !p.freezeDue && !p.terminated && a.epoch == p.epoch
		p.mu.Unlock()
		if !live {
			p.log.Debug().Int("slot", a.slot).Msg("dropped stale action")
			return
		}

		card, ok := g.CardAt(a.slot)
		if !ok {
			p.log.Debug().Int("slot", a.slot).Msg("dropped action on empty slot")
			return
		}

		if i := indexOf(p.markers, card); i >= 0 {
			g.RemoveToken(p.ID, a.slot)
			p.markers = append(p.markers[:i], p.markers[i+1:]...)
			return
		}
		if len(p.markers) >= p.cfg.ClaimSize {
			return
		}

		g.PlaceToken(p.ID, a.slot)
		p.markers = append(p.markers, card)
		if len(p.markers) != p.cfg.ClaimSize {
			return
		}

		claim = claims.NewClaim(p.ID, p.markers)
		p.mu.Lock()
		p.playable = false
		p.mu.Unlock()
		p.queue.Push(claim)
	})

	if claim != nil {
		p.log.Debug().Str("claim_id", claim.ID).Ints("cards", claim.Cards).Msg("claim submitted")
	}
}

// KeyPressed queues a slot press. It is rejected, without error, when the
// player cannot act right now, the slot is empty or the backlog is full.
func (p *Player) KeyPressed(slot int) bool {
	p.mu.Lock()
	blocked := p.terminated || !p.playable || p.suspended || p.freezeDue
	epoch := p.epoch
	p.mu.Unlock()
	if blocked {
		return false
	}

	if _, ok := p.table.CardAt(slot); !ok {
		return false
	}

	select {
	case p.actions <- action{slot: slot, epoch: epoch}:
		return true
	default:
		return false
	}
}

// Point awards a point and starts the point freeze.
func (p *Player) Point() {
	p.mu.Lock()
	p.score++
	score := p.score
	p.freezeLocked(p.cfg.PointFreeze)
	p.playable = true
	p.mu.Unlock()

	p.display.SetScore(p.ID, score)
	if p.cfg.PointFreeze > 0 {
		p.display.SetFreeze(p.ID, p.cfg.PointFreeze)
	}
	p.notify()
}

// Penalty starts the penalty freeze.
func (p *Player) Penalty() {
	p.mu.Lock()
	p.freezeLocked(p.cfg.PenaltyFreeze)
	p.playable = true
	p.mu.Unlock()

	if p.cfg.PenaltyFreeze > 0 {
		p.display.SetFreeze(p.ID, p.cfg.PenaltyFreeze)
	}
	p.notify()
}

func (p *Player) freezeLocked(d time.Duration) {
	if d <= 0 {
		return
	}
	p.freezeDue = true
	p.freezeUntil = time.Now().Add(d)
}

// Release lets the player act again without any freeze.
func (p *Player) Release() {
	p.mu.Lock()
	p.playable = true
	p.mu.Unlock()
	p.notify()
}

// Block stops the player from acting until the next Release, Point or Penalty.
func (p *Player) Block() {
	p.mu.Lock()
	p.playable = false
	p.mu.Unlock()
	p.notify()
}

// Terminate asks the agent goroutine and its input source to exit. It does not
// wait; use Done for that.
func (p *Player) Terminate() {
	p.mu.Lock()
	p.terminated = true
	p.playable = true
	p.mu.Unlock()
	p.quitOnce.Do(func() { close(p.quit) })
	p.notify()
}

func (p *Player) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Reset forgets the player's markers and queued actions. Actions already taken
// off the backlog are voided by the epoch bump. The grid argument is only proof
// that the caller holds the table lock.
func (p *Player) Reset(_ *table.Grid) {
	p.markers = nil
drain:
	for {
		select {
		case <-p.actions:
		default:
			break drain
		}
	}
	p.mu.Lock()
	p.epoch++
	p.mu.Unlock()
}

// StripMarkers takes all of the player's markers off the board. Requires the
// table lock.
func (p *Player) StripMarkers(g *table.Grid) {
	for _, card := range p.markers {
		if slot, ok := g.SlotOf(card); ok {
			g.RemoveToken(p.ID, slot)
		}
	}
	p.markers = nil
}

// DropCard forgets a card the player had marked. The grid argument is only
// proof that the caller holds the table lock.
func (p *Player) DropCard(_ *table.Grid, card int) {
	if i := indexOf(p.markers, card); i >= 0 {
		p.markers = append(p.markers[:i], p.markers[i+1:]...)
	}
}

// Markers returns the marked cards in marking order. The grid argument is only
// proof that the caller holds the table lock.
func (p *Player) Markers(_ *table.Grid) []int {
	out := make([]int, len(p.markers))
	copy(out, p.markers)
	return out
}

// Score returns the current score.
func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// FreezeRemaining returns how long the current freeze still lasts, or 0.
func (p *Player) FreezeRemaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freezeUntil.IsZero() {
		return 0
	}
	if d := time.Until(p.freezeUntil); d > 0 {
		return d
	}
	return 0
}

// State reports the player's lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.terminated:
		return StateTerminated
	case !p.playable:
		return StateBlocked
	case p.freezeDue:
		return StateFrozen
	default:
		return StatePlayable
	}
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
