// Package claims holds the FIFO queue of set claims shared by the player agents
// (producers) and the arbiter (sole consumer).
package claims

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Claim is a player's snapshot assertion that the listed cards form a set.
// Cards is a private copy; later marker changes by the player never reach it.
type Claim struct {
	ID          string
	Player      int
	Cards       []int
	SubmittedAt time.Time
}

// NewClaim snapshots the given cards into a new claim.
func NewClaim(player int, cards []int) *Claim {
	snapshot := make([]int, len(cards))
	copy(snapshot, cards)
	return &Claim{
		ID:          uuid.New().String(),
		Player:      player,
		Cards:       snapshot,
		SubmittedAt: time.Now(),
	}
}

// Contains reports whether the claim still references the card.
func (c *Claim) Contains(card int) bool {
	for _, x := range c.Cards {
		if x == card {
			return true
		}
	}
	return false
}

// Queue is a thread-safe FIFO of claims with a wake-up signal for the consumer.
//
// The signal channel has capacity one: any number of pushes between two reads
// collapse into a single pending wake-up, and a push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []*Claim
	signal chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends a claim and signals the consumer.
func (q *Queue) Push(c *Claim) {
	q.mu.Lock()
	q.items = append(q.items, c)
	q.mu.Unlock()
	q.Notify()
}

// Notify wakes the consumer without enqueuing anything.
func (q *Queue) Notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Signal returns the channel the consumer waits on.
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued claims.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the queued claims in arrival order. The slice is a copy; the
// claims are shared, so callers mutate them only while holding the table lock.
func (q *Queue) Pending() []*Claim {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Claim, len(q.items))
	copy(out, q.items)
	return out
}

// Remove drops the given claims, keeping the order of the rest.
func (q *Queue) Remove(done []*Claim) {
	if len(done) == 0 {
		return
	}
	drop := make(map[*Claim]struct{}, len(done))
	for _, c := range done {
		drop[c] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, c := range q.items {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
}

// StripCard removes a card from every queued claim except keep, so a scored
// card can never be scored twice. Affected claims become stale.
func (q *Queue) StripCard(card int, keep *Claim) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range q.items {
		if c == keep {
			continue
		}
		kept := c.Cards[:0]
		for _, x := range c.Cards {
			if x != card {
				kept = append(kept, x)
			}
		}
		c.Cards = kept
	}
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
