// Package printer renders CLI output: colored status lines, rich errors for
// cobra and the end-of-game scoreboard.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	gold   = color.New(color.FgYellow, color.Bold)
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects normal and error output. Returns a func restoring the
// previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() { stdout, stderr = prevOut, prevErr }
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(stdout, "✓ %s", msg)
	} else {
		green.Fprint(stdout, msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(stdout, "⚠️  %s", msg)
	} else {
		yellow.Fprint(stdout, msg)
	}
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext creates a formatted error with context details
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintf(stderr, "\n")
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(stderr, "  %s: %s\n", key, context[key])
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return &ReportedError{Title: title}
}

// ReportedError is returned by Error and ErrorWithContext once the details are
// on stderr. Its message is the title only.
type ReportedError struct {
	Title string
}

func (e *ReportedError) Error() string { return e.Title }

// IsReported reports whether err was already printed by this package.
func IsReported(err error) bool {
	var r *ReportedError
	return errors.As(err, &r)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Scoreboard prints the final scores, best first, marking the winners.
// names and scores are indexed by player id.
func Scoreboard(names []string, scores []int, winners []int) {
	isWinner := make(map[int]bool, len(winners))
	for _, w := range winners {
		isWinner[w] = true
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	width := len("Player")
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}

	fmt.Fprintf(stdout, "\n%-*s  %5s\n", width, "Player", "Sets")
	for _, id := range order {
		name := fmt.Sprintf("player %d", id)
		if id < len(names) {
			name = names[id]
		}
		line := fmt.Sprintf("%-*s  %5d", width, name, scores[id])
		if isWinner[id] {
			gold.Fprintf(stdout, "%s  🏆\n", line)
		} else {
			fmt.Fprintln(stdout, line)
		}
	}
}
