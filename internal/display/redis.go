package display

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/setgame/pkg/events"
	"github.com/rs/zerolog"
)

// Publisher is the part of events.Client the Redis sink needs.
type Publisher interface {
	GameID() string
	Publish(ctx context.Context, e *events.Event) error
}

// Redis publishes every display call as a game event. Calls only enqueue; a
// background goroutine does the network I/O. When the buffer is full new
// events are dropped and counted.
type Redis struct {
	client  Publisher
	gameID  string
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *events.Event
	done   chan struct{}

	dropped atomic.Int64
}

// NewRedis starts a Redis sink with the given buffer size.
func NewRedis(client Publisher, buffer int, log zerolog.Logger) *Redis {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Redis{
		client:  client,
		gameID:  client.GameID(),
		timeout: 2 * time.Second,
		log:     log.With().Str("component", "events").Logger(),
		queue:   make(chan *events.Event, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Redis) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.client.Publish(ctx, e); err != nil {
			r.log.Warn().Err(err).Str("type", string(e.Type)).Msg("failed to publish event")
		}
		cancel()
	}
}

// Close stops accepting events and waits until the buffered ones are
// published or ctx ends.
func (r *Redis) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if n := r.dropped.Load(); n > 0 {
		r.log.Warn().Int64("dropped", n).Msg("events dropped: publisher fell behind")
	}
	return nil
}

// Dropped returns how many events were discarded because the buffer was full.
func (r *Redis) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Redis) emit(e *events.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.dropped.Add(1)
	}
}

func (r *Redis) event(t events.EventType) *events.Event {
	return events.New(r.gameID, t)
}

func (r *Redis) ShowCountdown(remaining time.Duration, warn bool) {
	e := r.event(events.EventCountdown)
	e.RemainingMs = remaining.Milliseconds()
	e.Warn = warn
	r.emit(e)
}

func (r *Redis) SetScore(player, score int) {
	e := r.event(events.EventScore)
	e.Player = player
	e.Score = score
	r.emit(e)
}

func (r *Redis) SetFreeze(player int, remaining time.Duration) {
	e := r.event(events.EventFreeze)
	e.Player = player
	e.RemainingMs = remaining.Milliseconds()
	r.emit(e)
}

func (r *Redis) PlaceCard(card, slot int) {
	e := r.event(events.EventCardPlaced)
	e.Card = card
	e.Slot = slot
	r.emit(e)
}

func (r *Redis) RemoveCard(slot int) {
	e := r.event(events.EventCardRemoved)
	e.Slot = slot
	r.emit(e)
}

func (r *Redis) PlaceToken(player, slot int) {
	e := r.event(events.EventTokenPlaced)
	e.Player = player
	e.Slot = slot
	r.emit(e)
}

func (r *Redis) RemoveToken(player, slot int) {
	e := r.event(events.EventTokenRemoved)
	e.Player = player
	e.Slot = slot
	r.emit(e)
}

func (r *Redis) ClearAllMarkers() {
	r.emit(r.event(events.EventMarkersCleared))
}

func (r *Redis) RemoveMarkersAt(slot int) {
	e := r.event(events.EventMarkersRemoved)
	e.Slot = slot
	r.emit(e)
}

func (r *Redis) ShowHint(cards []int) {
	e := r.event(events.EventHint)
	e.Cards = append([]int(nil), cards...)
	r.emit(e)
}

func (r *Redis) AnnounceWinners(players []int) {
	e := r.event(events.EventWinners)
	e.Players = append([]int(nil), players...)
	r.emit(e)
}
