package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/setgame/internal/arbiter"
	"github.com/dyluth/setgame/internal/console"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/game"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/dyluth/setgame/internal/watch"
	"github.com/dyluth/setgame/pkg/events"
	"github.com/spf13/cobra"
)

var (
	playSeed       int64
	playStrategy   string
	playHints      bool
	playShowTokens bool
	playStatusAddr string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Play a game with the players configured in setgame.yml.

Human players type one command per line on stdin:
  <slot>            mark or unmark a slot (single human)
  <player> <slot>   mark or unmark a slot for a player id or name
  quit              end the game early

The game ends when no set is left among the deck and the board, or on Ctrl+C.

Examples:
  # Four computer players, watch them race
  setgame play

  # Reproducible game with smarter bots
  setgame play --seed 42 --strategy seeker

  # Expose /healthz and /status while playing
  setgame play --status-addr :8080`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "Random seed (0 seeds from the clock)")
	playCmd.Flags().StringVar(&playStrategy, "strategy", "", "Override computer.strategy (random or seeker)")
	playCmd.Flags().BoolVar(&playHints, "hints", false, "Show every set on the board when the round is nearly over")
	playCmd.Flags().BoolVar(&playShowTokens, "show-tokens", false, "Print a line for every marker placed or removed")
	playCmd.Flags().StringVar(&playStatusAddr, "status-addr", "", "Serve /healthz and /status on this address")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if playStrategy != "" {
		cfg.Computer.Strategy = playStrategy
	}
	if playHints {
		cfg.Hints = true
	}
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid configuration", err.Error(), []string{"Valid strategies: random, seeker"})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	sinks := display.Multi{
		display.NewTerminal(out, cfg.CardSpec(), cfg.Players.Names, playShowTokens),
		display.NewLogger(log),
	}

	var client *events.Client
	if cfg.Events.RedisURL != "" {
		client, err = connectEvents(ctx, cfg.Events.RedisURL, cfg.Events.GameID)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.ResetScores(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to reset scoreboard")
		}
		publisher := display.NewRedis(client, 1024, log)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := publisher.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("events not fully flushed")
			}
		}()
		sinks = append(sinks, publisher)
	}

	g, err := game.New(cfg, game.Options{Display: sinks, Logger: log, Seed: playSeed})
	if err != nil {
		return fmt.Errorf("failed to set up game: %w", err)
	}

	if playStatusAddr != "" {
		var pinger arbiter.Pinger
		if client != nil {
			pinger = client
		}
		status := arbiter.NewStatusServer(g.Arbiter, pinger)
		if err := status.Start(playStatusAddr); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			status.Shutdown(shutdownCtx)
		}()
	}

	if humans := g.Humans(); len(humans) > 0 {
		printer.Step("Seats: %s\n", seatList(g.Names(), cfg.Players.Human))
		in := console.New(g, g.Names(), humans, cmd.InOrStdin(), cmd.ErrOrStderr(), log)
		// Stdin reads cannot be interrupted; the goroutine ends with the process.
		go func() {
			if err := in.Run(); err != nil {
				log.Error().Err(err).Msg("console stopped")
			}
		}()
	}

	if client != nil {
		printer.Info("Publishing events for game %s\n", g.ID)
	}

	winners, err := g.Run(ctx)
	if err != nil {
		return fmt.Errorf("game failed: %w", err)
	}

	printer.Scoreboard(g.Names(), g.Arbiter.Scores(), winners)
	return nil
}

// connectEvents opens and verifies the Redis connection for the event stream.
func connectEvents(ctx context.Context, url, gameID string) (*events.Client, error) {
	client, err := events.NewClientFromURL(url, gameID)
	if err != nil {
		return nil, printer.Error("invalid Redis URL", err.Error(), []string{"Use the form redis://host:6379/0"})
	}

	if err := watch.WaitForRedis(ctx, client, 5*time.Second); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", url),
			map[string]string{"Error": err.Error()},
			[]string{
				"Start Redis:\n  docker run -p 6379:6379 redis:7",
				"Or disable events by clearing events.redis_url",
			},
		)
	}
	return client, nil
}

func seatList(names []string, humans int) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		kind := "bot"
		if i < humans {
			kind = "you"
		}
		s += fmt.Sprintf("%d=%s (%s)", i, n, kind)
	}
	return s
}
