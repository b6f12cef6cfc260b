package display

import (
	"fmt"
	"sync"
	"time"
)

// Recorder is a Sink that keeps every call as a short text line and tracks the
// latest score and freeze per player. Tests across the module use it to observe
// the core from the outside.
type Recorder struct {
	mu      sync.Mutex
	calls   []string
	scores  map[int]int
	freezes map[int]time.Duration
	winners []int
	hints   [][]int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		scores:  make(map[int]int),
		freezes: make(map[int]time.Duration),
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) ShowCountdown(remaining time.Duration, warn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("countdown %v %v", remaining.Round(time.Second), warn)
}

func (r *Recorder) SetScore(player, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[player] = score
	r.record("score %d %d", player, score)
}

func (r *Recorder) SetFreeze(player int, remaining time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freezes[player] = remaining
	r.record("freeze %d %v", player, remaining > 0)
}

func (r *Recorder) PlaceCard(card, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("place_card %d %d", card, slot)
}

func (r *Recorder) RemoveCard(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("remove_card %d", slot)
}

func (r *Recorder) PlaceToken(player, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("place_token %d %d", player, slot)
}

func (r *Recorder) RemoveToken(player, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("remove_token %d %d", player, slot)
}

func (r *Recorder) ClearAllMarkers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("clear_markers")
}

func (r *Recorder) RemoveMarkersAt(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("remove_markers %d", slot)
}

func (r *Recorder) ShowHint(cards []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints = append(r.hints, append([]int(nil), cards...))
	r.record("hint %v", cards)
}

func (r *Recorder) AnnounceWinners(players []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winners = append([]int(nil), players...)
	r.record("winners %v", players)
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Score returns the last score shown for a player.
func (r *Recorder) Score(player int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[player]
}

// Freeze returns the last freeze shown for a player.
func (r *Recorder) Freeze(player int) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freezes[player]
}

// Winners returns the announced winners, nil until the game ends.
func (r *Recorder) Winners() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.winners...)
}

// Hints returns every hint shown so far.
func (r *Recorder) Hints() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.hints...)
}
