package display

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/fatih/color"
)

var (
	cardColor   = color.New(color.FgCyan)
	scoreColor  = color.New(color.FgGreen, color.Bold)
	freezeColor = color.New(color.FgYellow)
	warnColor   = color.New(color.FgRed, color.Bold)
	hintColor   = color.New(color.FgMagenta)
	winnerColor = color.New(color.FgGreen, color.Bold, color.Underline)
	dimColor    = color.New(color.Faint)
)

// Terminal renders a game as a stream of colored lines. Countdown updates are
// collapsed to one line per second and freeze updates to their start and end.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	spec   cards.Spec
	names  []string
	tokens bool

	lastSecond int64
	frozen     map[int]bool
}

// NewTerminal creates a terminal sink. names maps player ids to display names;
// showTokens enables a line per marker placed or removed.
func NewTerminal(out io.Writer, spec cards.Spec, names []string, showTokens bool) *Terminal {
	return &Terminal{
		out:        out,
		spec:       spec,
		names:      names,
		tokens:     showTokens,
		lastSecond: -1,
		frozen:     make(map[int]bool),
	}
}

func (t *Terminal) name(player int) string {
	if player >= 0 && player < len(t.names) {
		return t.names[player]
	}
	return fmt.Sprintf("player %d", player)
}

// CardLabel renders a card as its id and feature digits, e.g. "17 (1-2-1-0)".
func CardLabel(spec cards.Spec, card int) string {
	features := spec.Features(card)
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = fmt.Sprint(f)
	}
	return fmt.Sprintf("%d (%s)", card, strings.Join(parts, "-"))
}

func (t *Terminal) ShowCountdown(remaining time.Duration, warn bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	secs := int64(math.Ceil(remaining.Seconds()))
	if secs == t.lastSecond {
		return
	}
	t.lastSecond = secs

	switch {
	case secs == 0:
		warnColor.Fprintln(t.out, "time's up")
	case warn:
		warnColor.Fprintf(t.out, "%ds left\n", secs)
	case secs%10 == 0:
		dimColor.Fprintf(t.out, "%ds left\n", secs)
	}
}

func (t *Terminal) SetScore(player, score int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	scoreColor.Fprintf(t.out, "%s found a set (score %d)\n", t.name(player), score)
}

func (t *Terminal) SetFreeze(player int, remaining time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if remaining > 0 {
		if !t.frozen[player] {
			t.frozen[player] = true
			freezeColor.Fprintf(t.out, "%s frozen for %s\n", t.name(player), remaining.Round(time.Second))
		}
		return
	}
	if t.frozen[player] {
		delete(t.frozen, player)
		dimColor.Fprintf(t.out, "%s can play again\n", t.name(player))
	}
}

func (t *Terminal) PlaceCard(card, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cardColor.Fprintf(t.out, "slot %2d <- %s\n", slot, CardLabel(t.spec, card))
}

func (t *Terminal) RemoveCard(slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dimColor.Fprintf(t.out, "slot %2d cleared\n", slot)
}

func (t *Terminal) PlaceToken(player, slot int) {
	if !t.tokens {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s marks slot %d\n", t.name(player), slot)
}

func (t *Terminal) RemoveToken(player, slot int) {
	if !t.tokens {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s unmarks slot %d\n", t.name(player), slot)
}

func (t *Terminal) ClearAllMarkers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	dimColor.Fprintln(t.out, "reshuffling")
}

// RemoveMarkersAt is implied by the RemoveCard line that always follows it.
func (t *Terminal) RemoveMarkersAt(int) {}

func (t *Terminal) ShowHint(set []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	labels := make([]string, len(set))
	for i, c := range set {
		labels[i] = CardLabel(t.spec, c)
	}
	hintColor.Fprintf(t.out, "hint: %s\n", strings.Join(labels, ", "))
}

func (t *Terminal) AnnounceWinners(players []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = t.name(p)
	}
	label := "Winner"
	if len(players) > 1 {
		label = "Winners"
	}
	winnerColor.Fprintf(t.out, "%s: %s\n", label, strings.Join(names, ", "))
}
