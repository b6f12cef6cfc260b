package commands

import (
	"fmt"

	"github.com/dyluth/setgame/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter setgame.yml",
	Long: `Write a starter configuration into the target directory.

Creates:
  • setgame.yml - Game configuration (board, deck, players, timing, events)
  • .env        - Environment defaults loaded at startup

Use --force to reinitialize an existing directory (WARNING: destroys existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (replaces existing setgame.yml and .env)")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to initialize")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(initDir, forceInit, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
