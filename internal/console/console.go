// Package console turns text lines into key presses for human players.
//
// Each line is "<player> <slot>" where player is a seat id or name, or a lone
// "<slot>" when exactly one human is seated. "quit" ends the game.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Game is what the console drives.
type Game interface {
	SlotPressed(player, slot int) bool
	Terminate()
}

// Console reads commands from in and reports rejected input to out.
type Console struct {
	game    Game
	names   []string
	humans  []int
	scanner *bufio.Scanner
	out     io.Writer
	log     zerolog.Logger
}

// New creates a console. names maps player ids to names; humans lists the ids
// that may be driven from the console.
func New(game Game, names []string, humans []int, in io.Reader, out io.Writer, log zerolog.Logger) *Console {
	return &Console{
		game:    game,
		names:   names,
		humans:  humans,
		scanner: bufio.NewScanner(in),
		out:     out,
		log:     log.With().Str("component", "console").Logger(),
	}
}

// Run processes lines until in is exhausted or a quit command is read. It
// returns the scanner error, if any.
func (c *Console) Run() error {
	for c.scanner.Scan() {
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "q" {
			c.log.Info().Msg("quit requested")
			c.game.Terminate()
			return nil
		}

		player, slot, err := c.parse(line)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		if !c.game.SlotPressed(player, slot) {
			c.log.Debug().Int("player", player).Int("slot", slot).Msg("key press ignored")
		}
	}
	if err := c.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (c *Console) parse(line string) (player, slot int, err error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
		if len(c.humans) != 1 {
			return 0, 0, fmt.Errorf("usage: <player> <slot>")
		}
		player = c.humans[0]
	case 2:
		player, err = c.lookup(fields[0])
		if err != nil {
			return 0, 0, err
		}
	default:
		return 0, 0, fmt.Errorf("usage: <player> <slot>")
	}

	slot, err = strconv.Atoi(fields[len(fields)-1])
	if err != nil || slot < 0 {
		return 0, 0, fmt.Errorf("invalid slot %q", fields[len(fields)-1])
	}
	return player, slot, nil
}

func (c *Console) lookup(token string) (int, error) {
	id, err := strconv.Atoi(token)
	if err != nil {
		id = -1
		for i, name := range c.names {
			if strings.EqualFold(name, token) {
				id = i
				break
			}
		}
	}
	for _, h := range c.humans {
		if h == id {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown human player %q", token)
}
