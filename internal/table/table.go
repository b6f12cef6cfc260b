// Package table holds the shared game board: which card sits in which slot and
// which players have placed a marker on each slot.
//
// Table owns the one exclusive lock of the game. Single operations are exposed
// as locked methods on Table; multi-step critical sections (publishing a claim,
// draining the claim queue, dealing, reshuffling) run through Table.Do and use
// the unlocked Grid handed to the callback.
package table

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/display"
)

// NoCard marks an empty slot.
const NoCard = -1

var (
	ErrBadSlot      = errors.New("slot out of range")
	ErrSlotOccupied = errors.New("slot already holds a card")
	ErrSlotEmpty    = errors.New("slot is empty")
	ErrCardOnTable  = errors.New("card already on the table")
)

// Grid is the board state. It is not safe for concurrent use; reach it through
// Table.Do or Table.View.
type Grid struct {
	slotToCard []int
	cardToSlot map[int]int
	markers    []map[int]struct{} // slot -> player ids
	display    display.Sink
}

// Table guards a Grid with the game's exclusive lock.
type Table struct {
	mu   sync.Mutex
	grid *Grid
}

// New creates an empty table with the given number of slots.
func New(size int, sink display.Sink) *Table {
	if sink == nil {
		sink = display.Nop{}
	}
	g := &Grid{
		slotToCard: make([]int, size),
		cardToSlot: make(map[int]int),
		markers:    make([]map[int]struct{}, size),
		display:    sink,
	}
	for i := range g.slotToCard {
		g.slotToCard[i] = NoCard
		g.markers[i] = make(map[int]struct{})
	}
	return &Table{grid: g}
}

// Do runs fn with exclusive access to the grid. fn must not retain g.
func (t *Table) Do(fn func(g *Grid)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.grid)
}

// View is Do for read-only callers; it exists to make intent explicit.
func (t *Table) View(fn func(g *Grid)) {
	t.Do(fn)
}

// Size returns the number of slots. The size never changes so no lock is taken.
func (t *Table) Size() int {
	return len(t.grid.slotToCard)
}

// PlaceCard locks the table and places card in slot. See Grid.PlaceCard.
func (t *Table) PlaceCard(card, slot int) (err error) {
	t.Do(func(g *Grid) { err = g.PlaceCard(card, slot) })
	return err
}

// RemoveCard locks the table and clears slot. See Grid.RemoveCard.
func (t *Table) RemoveCard(slot int) (card int, affected []int, err error) {
	t.Do(func(g *Grid) { card, affected, err = g.RemoveCard(slot) })
	return card, affected, err
}

// PlaceToken locks the table and marks slot for player.
func (t *Table) PlaceToken(player, slot int) (ok bool) {
	t.Do(func(g *Grid) { ok = g.PlaceToken(player, slot) })
	return ok
}

// RemoveToken locks the table and unmarks slot for player.
func (t *Table) RemoveToken(player, slot int) (ok bool) {
	t.Do(func(g *Grid) { ok = g.RemoveToken(player, slot) })
	return ok
}

// CountCards returns the number of occupied slots.
func (t *Table) CountCards() (n int) {
	t.View(func(g *Grid) { n = g.CountCards() })
	return n
}

// CardAt returns the card in slot, if any.
func (t *Table) CardAt(slot int) (card int, ok bool) {
	t.View(func(g *Grid) { card, ok = g.CardAt(slot) })
	return card, ok
}

// SlotOf returns the slot holding card, if it is on the board.
func (t *Table) SlotOf(card int) (slot int, ok bool) {
	t.View(func(g *Grid) { slot, ok = g.SlotOf(card) })
	return slot, ok
}

// Cards returns the board cards from the top slot down.
func (t *Table) Cards() (out []int) {
	t.View(func(g *Grid) { out = g.Cards() })
	return out
}

// OccupiedSlots returns the slots holding a card, in order.
func (t *Table) OccupiedSlots() (out []int) {
	t.View(func(g *Grid) { out = g.OccupiedSlots() })
	return out
}

// MarkersAt returns the ids of the players marking slot.
func (t *Table) MarkersAt(slot int) (out []int) {
	t.View(func(g *Grid) { out = g.MarkersAt(slot) })
	return out
}

// Size returns the number of slots.
func (g *Grid) Size() int {
	return len(g.slotToCard)
}

func (g *Grid) validSlot(slot int) bool {
	return slot >= 0 && slot < len(g.slotToCard)
}

// PlaceCard puts a card into an empty slot.
func (g *Grid) PlaceCard(card, slot int) error {
	if !g.validSlot(slot) {
		return fmt.Errorf("place card %d: %w: %d", card, ErrBadSlot, slot)
	}
	if g.slotToCard[slot] != NoCard {
		return fmt.Errorf("place card %d: %w: %d", card, ErrSlotOccupied, slot)
	}
	if _, onTable := g.cardToSlot[card]; onTable {
		return fmt.Errorf("place card %d: %w", card, ErrCardOnTable)
	}

	g.slotToCard[slot] = card
	g.cardToSlot[card] = slot
	g.display.PlaceCard(card, slot)
	return nil
}

// RemoveCard empties a slot together with every marker placed on it. It returns
// the removed card and the ids of the players whose markers were dropped, so
// the caller can reconcile those players' marker lists.
func (g *Grid) RemoveCard(slot int) (int, []int, error) {
	if !g.validSlot(slot) {
		return NoCard, nil, fmt.Errorf("remove card: %w: %d", ErrBadSlot, slot)
	}
	card := g.slotToCard[slot]
	if card == NoCard {
		return NoCard, nil, fmt.Errorf("remove card: %w: %d", ErrSlotEmpty, slot)
	}

	affected := g.MarkersAt(slot)
	for _, player := range affected {
		g.display.RemoveToken(player, slot)
	}
	g.markers[slot] = make(map[int]struct{})

	g.slotToCard[slot] = NoCard
	delete(g.cardToSlot, card)
	g.display.RemoveCard(slot)
	return card, affected, nil
}

// PlaceToken puts a player's marker on an occupied slot. Returns false if the
// slot is empty, out of range or already marked by the player.
func (g *Grid) PlaceToken(player, slot int) bool {
	if !g.validSlot(slot) || g.slotToCard[slot] == NoCard {
		return false
	}
	if _, ok := g.markers[slot][player]; ok {
		return false
	}
	g.markers[slot][player] = struct{}{}
	g.display.PlaceToken(player, slot)
	return true
}

// RemoveToken takes a player's marker off a slot. Returns false if there was
// none.
func (g *Grid) RemoveToken(player, slot int) bool {
	if !g.validSlot(slot) {
		return false
	}
	if _, ok := g.markers[slot][player]; !ok {
		return false
	}
	delete(g.markers[slot], player)
	g.display.RemoveToken(player, slot)
	return true
}

// ClearTokens drops every marker on the board.
func (g *Grid) ClearTokens() {
	for slot := range g.markers {
		g.markers[slot] = make(map[int]struct{})
	}
	g.display.ClearAllMarkers()
}

// HasToken reports whether the player has a marker on the slot.
func (g *Grid) HasToken(player, slot int) bool {
	if !g.validSlot(slot) {
		return false
	}
	_, ok := g.markers[slot][player]
	return ok
}

// MarkersAt returns the ids of the players with a marker on the slot, sorted.
func (g *Grid) MarkersAt(slot int) []int {
	if !g.validSlot(slot) {
		return nil
	}
	players := make([]int, 0, len(g.markers[slot]))
	for p := range g.markers[slot] {
		players = append(players, p)
	}
	sort.Ints(players)
	return players
}

// CountCards returns the number of occupied slots.
func (g *Grid) CountCards() int {
	return len(g.cardToSlot)
}

// CardAt returns the card in a slot.
func (g *Grid) CardAt(slot int) (int, bool) {
	if !g.validSlot(slot) || g.slotToCard[slot] == NoCard {
		return NoCard, false
	}
	return g.slotToCard[slot], true
}

// SlotOf returns the slot holding a card.
func (g *Grid) SlotOf(card int) (int, bool) {
	slot, ok := g.cardToSlot[card]
	return slot, ok
}

// Cards returns the cards on the board from the top slot to the bottom one.
func (g *Grid) Cards() []int {
	out := make([]int, 0, len(g.cardToSlot))
	for _, c := range g.slotToCard {
		if c != NoCard {
			out = append(out, c)
		}
	}
	return out
}

// OccupiedSlots returns the slots holding a card, ascending.
func (g *Grid) OccupiedSlots() []int {
	out := make([]int, 0, len(g.cardToSlot))
	for slot, c := range g.slotToCard {
		if c != NoCard {
			out = append(out, slot)
		}
	}
	return out
}

// EmptySlots returns the empty slots, ascending.
func (g *Grid) EmptySlots() []int {
	out := make([]int, 0, len(g.slotToCard)-len(g.cardToSlot))
	for slot, c := range g.slotToCard {
		if c == NoCard {
			out = append(out, slot)
		}
	}
	return out
}

// Hints returns every valid set currently on the board.
func (g *Grid) Hints(size int, valid cards.Predicate) [][]int {
	return cards.FindSets(g.Cards(), size, valid, 0)
}
