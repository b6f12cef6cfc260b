package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
	prettyLogs bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "setgame",
	Short: "setgame - real-time multiplayer Set in the terminal",
	Long: `setgame plays the card game Set in real time. Every player races to
mark three cards that form a set; one arbiter checks claims in the order they
arrive, scores points, freezes players who guess wrong and reshuffles the
board when the round timer runs out.

Humans type slot numbers on stdin; computer players press at a fixed pace.
Every visible change can be published to Redis and followed with 'setgame watch'.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil && !printer.IsReported(err) {
		printer.Error("Error", err.Error(), nil)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to the game configuration")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable logs even when stderr is not a terminal")
}

// newLogger writes JSON logs to w, or console output when w is a terminal or
// --pretty is set. The level comes from SETGAME_LOG_LEVEL via the global level.
func newLogger(w io.Writer) zerolog.Logger {
	if prettyLogs || isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// loadConfig reads --config. A missing default file falls back to the built-in
// defaults; a missing file named explicitly is an error.
func loadConfig(cmd *cobra.Command) (*config.SetgameConfig, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}

	explicit := cmd.Flag("config") != nil && cmd.Flag("config").Changed
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.Parse(nil)
	}

	return nil, printer.ErrorWithContext(
		"invalid configuration",
		err.Error(),
		map[string]string{"Config": configPath},
		[]string{
			"Fix the file and try again",
			"Create a fresh one:\n  setgame init --force",
		},
	)
}
