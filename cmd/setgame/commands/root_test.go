package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/setgame/internal/config"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// execute runs the real root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "setgame",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()

	assert.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Help should be displayed")
	assert.Contains(t, output, "setgame", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, err := execute(t, "--unknown-flag", "value")
	assert.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag", "Error should mention unknown flag")
}

// TestRootCommand_RejectsSubcommandFlags tests that flags meant for
// subcommands (like --seed) are rejected when passed to the root command
func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	_, err := execute(t, "--seed", "4")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag: --seed")
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"play", "watch", "init"} {
		assert.Contains(t, out, name)
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-10-17")
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-10-17)", rootCmd.Version)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully initialized setgame")
	assert.FileExists(t, filepath.Join(dir, config.DefaultFile))

	_, err = execute(t, "init", "--dir", dir)
	require.Error(t, err, "second init without --force must fail")
	assert.Contains(t, err.Error(), "project already initialized")

	out, err = execute(t, "init", "--dir", dir, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Removing existing setgame.yml")
	forceInit = false
}

func TestPlayCommand_ComputerGame(t *testing.T) {
	t.Setenv(config.EnvRedisURL, "")
	path := writeConfig(t, `version: "1.0"
deck:
  size: 27
players:
  computer: 3
  names: [ann, bob, cy]
timing:
  turn_timeout: 20s
  turn_timeout_warning: 1s
  point_freeze: 1ms
  penalty_freeze: 2ms
  tick: 5ms
  warning_tick: 1ms
computer:
  strategy: seeker
  key_press_interval: 1ms
`)

	out, err := execute(t, "play", "--config", path, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "slot ", "cards are dealt to the terminal")
	assert.Regexp(t, `Winners?: `, out)
	assert.Contains(t, out, "found a set")
}

func TestPlayCommand_InvalidStrategy(t *testing.T) {
	path := writeConfig(t, `version: "1.0"`)
	_, err := execute(t, "play", "--config", path, "--strategy", "psychic")
	playStrategy = ""
	require.Error(t, err)
	assert.Equal(t, "invalid configuration", err.Error())
}

func TestPlayCommand_MissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "play", "--config", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Equal(t, "invalid configuration", err.Error())
}

func TestWatchCommand_Errors(t *testing.T) {
	t.Setenv(config.EnvRedisURL, "")
	path := writeConfig(t, `version: "1.0"`)

	_, err := execute(t, "watch", "--config", path, "--output", "xml")
	require.Error(t, err)
	assert.Equal(t, "invalid output format", err.Error())

	_, err = execute(t, "watch", "--config", path, "--output", "default", "--type", "card_[")
	require.Error(t, err)
	assert.Equal(t, "invalid event filter", err.Error())

	_, err = execute(t, "watch", "--config", path, "--output", "default", "--type", "")
	require.Error(t, err)
	assert.Equal(t, "no Redis server configured", err.Error())
}
