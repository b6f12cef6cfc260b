package main

import (
	"os"

	"github.com/dyluth/setgame/cmd/setgame/commands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is fine; real environment variables win over it.
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("SETGAME_LOG_LEVEL", "warn")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	commands.SetVersionInfo(version, commit, date)

	// Errors are printed directly by the printer package with color formatting
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
