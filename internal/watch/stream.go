package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/setgame/internal/filter"
	"github.com/dyluth/setgame/pkg/events"
	"github.com/fatih/color"
)

// OutputFormat selects how streamed events are rendered.
type OutputFormat string

const (
	// OutputFormatDefault is human-readable output with timestamps and emojis
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is line-delimited JSON, one event per line
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// Subscriber is satisfied by events.Client.
type Subscriber interface {
	Subscribe(ctx context.Context) (*events.Subscription, error)
}

type formatter interface {
	Format(e *events.Event) error
}

// StreamActivity prints a game's events matching criteria to w until the
// winners are announced, ctx is cancelled or the subscription closes. The
// winners event ends the stream even when it is filtered out.
func StreamActivity(ctx context.Context, client Subscriber, gameID string, format OutputFormat, criteria filter.Criteria, w io.Writer) error {
	sub, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	var f formatter
	switch format {
	case OutputFormatJSON:
		f = &jsonFormatter{encoder: json.NewEncoder(w)}
	default:
		f = newDefaultFormatter(w)
		fmt.Fprintf(w, "Watching game %s (Ctrl+C to stop)\n", gameID)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)

		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if criteria.Matches(e) {
				if err := f.Format(e); err != nil {
					return fmt.Errorf("failed to write event: %w", err)
				}
			}
			if e.Type == events.EventWinners {
				return nil
			}
		}
	}
}

type jsonFormatter struct {
	encoder *json.Encoder
}

func (f *jsonFormatter) Format(e *events.Event) error {
	return f.encoder.Encode(e)
}

var (
	scoreStyle  = color.New(color.FgGreen, color.Bold)
	warnStyle   = color.New(color.FgRed)
	winnerStyle = color.New(color.FgGreen, color.Bold, color.Underline)
)

// defaultFormatter renders one line per interesting event. Countdown ticks and
// marker traffic are too chatty for a human and are filtered by shouldShow.
type defaultFormatter struct {
	writer     io.Writer
	lastSecond int64
	frozen     map[int]bool
}

func newDefaultFormatter(w io.Writer) *defaultFormatter {
	return &defaultFormatter{writer: w, lastSecond: -1, frozen: make(map[int]bool)}
}

func (f *defaultFormatter) Format(e *events.Event) error {
	if !f.shouldShow(e) {
		return nil
	}
	ts := time.UnixMilli(e.CreatedAtMs).Format("15:04:05")
	line := f.describe(e)

	var err error
	switch e.Type {
	case events.EventScore:
		_, err = scoreStyle.Fprintf(f.writer, "[%s] %s\n", ts, line)
	case events.EventWinners:
		_, err = winnerStyle.Fprintf(f.writer, "[%s] %s\n", ts, line)
	case events.EventCountdown:
		_, err = warnStyle.Fprintf(f.writer, "[%s] %s\n", ts, line)
	default:
		_, err = fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	}
	return err
}

// shouldShow drops marker traffic, repeated freeze updates and every countdown
// tick except one per second inside the warning window.
func (f *defaultFormatter) shouldShow(e *events.Event) bool {
	switch e.Type {
	case events.EventTokenPlaced, events.EventTokenRemoved, events.EventMarkersRemoved:
		return false
	case events.EventFreeze:
		if e.RemainingMs <= 0 {
			delete(f.frozen, e.Player)
			return false
		}
		if f.frozen[e.Player] {
			return false
		}
		f.frozen[e.Player] = true
		return true
	case events.EventCountdown:
		if !e.Warn && e.RemainingMs > 0 {
			return false
		}
		secs := (e.RemainingMs + 999) / 1000
		if secs == f.lastSecond {
			return false
		}
		f.lastSecond = secs
		return true
	}
	return true
}

func (f *defaultFormatter) describe(e *events.Event) string {
	switch e.Type {
	case events.EventCountdown:
		if e.RemainingMs == 0 {
			return "⏰ Time's up"
		}
		return fmt.Sprintf("⏳ %ds left", (e.RemainingMs+999)/1000)
	case events.EventScore:
		return fmt.Sprintf("🎯 Set found: player=%d, score=%d", e.Player, e.Score)
	case events.EventFreeze:
		return fmt.Sprintf("🧊 Frozen: player=%d for %s", e.Player, time.Duration(e.RemainingMs)*time.Millisecond)
	case events.EventCardPlaced:
		return fmt.Sprintf("🃏 Card dealt: card=%d, slot=%d", e.Card, e.Slot)
	case events.EventCardRemoved:
		return fmt.Sprintf("🗑️  Card removed: slot=%d", e.Slot)
	case events.EventMarkersCleared:
		return "🔀 Reshuffling"
	case events.EventHint:
		return fmt.Sprintf("💡 Hint: %s", joinInts(e.Cards))
	case events.EventWinners:
		label := "Winner"
		if len(e.Players) > 1 {
			label = "Winners"
		}
		return fmt.Sprintf("🏆 %s: players %s", label, joinInts(e.Players))
	}
	return string(e.Type)
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
