package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/setgame/internal/filter"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/dyluth/setgame/internal/watch"
	"github.com/dyluth/setgame/pkg/events"
	"github.com/spf13/cobra"
)

var (
	watchRedisURL     string
	watchGameID       string
	watchOutputFormat string
	watchType         string
	watchPlayer       int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a running game",
	Long: `Follow a game published to Redis by 'setgame play'.

Streams dealt cards, scores, freezes, hints and the final winners as they occur.
The Redis URL and game id default to the events section of setgame.yml and the
SETGAME_REDIS_URL / SETGAME_GAME_ID environment variables.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the game configured in setgame.yml
  setgame watch

  # Watch a named game on another server
  setgame watch --redis-url redis://arcade:6379/0 --game-id friday

  # Only the scores of player 2
  setgame watch --type 'score' --player 2

  # Export events as JSON
  setgame watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", "", "Redis server the game publishes to")
	watchCmd.Flags().StringVar(&watchGameID, "game-id", "", "Game to follow")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchType, "type", "", "Only show event types matching this glob (e.g. 'card_*')")
	watchCmd.Flags().IntVar(&watchPlayer, "player", events.None, "Only show events of this player id")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	outputFormat, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	criteria := filter.Criteria{TypeGlob: watchType, Player: watchPlayer}
	if err := criteria.Validate(); err != nil {
		return printer.Error(
			"invalid event filter",
			fmt.Sprintf("Bad --type pattern %q: %v", watchType, err),
			[]string{"Use a glob such as 'card_*' or 'score'"},
		)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	redisURL := firstNonEmpty(watchRedisURL, cfg.Events.RedisURL)
	gameID := firstNonEmpty(watchGameID, cfg.Events.GameID, "setgame")
	if redisURL == "" {
		return printer.Error(
			"no Redis server configured",
			"The game's event stream lives in Redis, but no server was given.",
			[]string{
				"Pass one explicitly:\n  setgame watch --redis-url redis://localhost:6379/0",
				"Set events.redis_url in setgame.yml or SETGAME_REDIS_URL",
			},
		)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connectEvents(ctx, redisURL, gameID)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if err := watch.StreamActivity(ctx, client, gameID, outputFormat, criteria, out); err != nil {
		return fmt.Errorf("failed to stream game events: %w", err)
	}

	if outputFormat == watch.OutputFormatDefault && !criteria.HasFilters() && ctx.Err() == nil {
		scores, err := client.Scores(ctx)
		if err != nil {
			return fmt.Errorf("failed to read scoreboard: %w", err)
		}
		board := make([]int, 0, len(scores))
		for _, s := range scores {
			for len(board) <= s.Player {
				board = append(board, 0)
			}
			board[s.Player] = s.Score
		}
		printer.Scoreboard(nil, board, nil)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
