package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up by the CLI.
const DefaultFile = "setgame.yml"

// Environment overrides applied by Load.
const (
	EnvRedisURL = "SETGAME_REDIS_URL"
	EnvGameID   = "SETGAME_GAME_ID"
)

//go:embed schema.json
var schemaJSON string

// SetgameConfig represents the top-level setgame.yml configuration
type SetgameConfig struct {
	Version  string         `yaml:"version"`
	Table    TableConfig    `yaml:"table"`
	Deck     DeckConfig     `yaml:"deck"`
	Players  PlayersConfig  `yaml:"players"`
	Timing   TimingConfig   `yaml:"timing"`
	Hints    bool           `yaml:"hints"`
	Computer ComputerConfig `yaml:"computer"`
	Events   EventsConfig   `yaml:"events"`
}

// TableConfig sizes the board.
type TableConfig struct {
	Size int `yaml:"size"`
}

// DeckConfig describes the card space. Size 0 means the full deck.
type DeckConfig struct {
	FeatureSize  int `yaml:"feature_size"`
	FeatureCount int `yaml:"feature_count"`
	Size         int `yaml:"size"`
}

// PlayersConfig specifies how many humans and computer players take part.
// Humans get the lower ids.
type PlayersConfig struct {
	Human    int      `yaml:"human"`
	Computer int      `yaml:"computer"`
	Names    []string `yaml:"names,omitempty"`
}

// TimingConfig holds every duration the game uses.
type TimingConfig struct {
	TurnTimeout        time.Duration `yaml:"turn_timeout"`
	TurnTimeoutWarning time.Duration `yaml:"turn_timeout_warning"`
	PointFreeze        time.Duration `yaml:"point_freeze"`
	PenaltyFreeze      time.Duration `yaml:"penalty_freeze"`
	Tick               time.Duration `yaml:"tick"`
	WarningTick        time.Duration `yaml:"warning_tick"`
	HintThreshold      time.Duration `yaml:"hint_threshold"`
}

// ComputerConfig tunes the automated players.
type ComputerConfig struct {
	Strategy         string        `yaml:"strategy"`
	KeyPressInterval time.Duration `yaml:"key_press_interval"`
}

// EventsConfig points the game at a Redis server for the event stream.
// An empty RedisURL disables publishing.
type EventsConfig struct {
	RedisURL string `yaml:"redis_url,omitempty"`
	GameID   string `yaml:"game_id,omitempty"`
}

var strategies = []string{"random", "seeker"}

// Default returns the configuration used when a key is missing from the file.
func Default() *SetgameConfig {
	return &SetgameConfig{
		Version: "1.0",
		Table:   TableConfig{Size: 12},
		Deck:    DeckConfig{FeatureSize: 3, FeatureCount: 4},
		Players: PlayersConfig{Computer: 4},
		Timing: TimingConfig{
			TurnTimeout:        60 * time.Second,
			TurnTimeoutWarning: 5 * time.Second,
			PointFreeze:        time.Second,
			PenaltyFreeze:      3 * time.Second,
			Tick:               800 * time.Millisecond,
			WarningTick:        10 * time.Millisecond,
			HintThreshold:      15 * time.Second,
		},
		Computer: ComputerConfig{
			Strategy:         "random",
			KeyPressInterval: 50 * time.Millisecond,
		},
	}
}

// CardSpec returns the card space described by the deck section.
func (c *SetgameConfig) CardSpec() cards.Spec {
	return cards.Spec{FeatureSize: c.Deck.FeatureSize, FeatureCount: c.Deck.FeatureCount}
}

// ClaimSize is the number of cards in a set.
func (c *SetgameConfig) ClaimSize() int {
	return c.Deck.FeatureSize
}

// TotalPlayers returns humans plus computer players.
func (c *SetgameConfig) TotalPlayers() int {
	return c.Players.Human + c.Players.Computer
}

// Validate performs strict validation on the configuration and fills in the
// derived defaults (deck size, player names, game id).
func (c *SetgameConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Table.Size < 1 {
		return fmt.Errorf("table.size must be >= 1, got %d", c.Table.Size)
	}

	spec := c.CardSpec()
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("deck: %w", err)
	}
	full := spec.DeckSize()
	if c.Deck.Size == 0 {
		c.Deck.Size = full
	}
	if c.Deck.Size < 0 || c.Deck.Size > full {
		return fmt.Errorf("deck.size must be between 1 and %d, got %d", full, c.Deck.Size)
	}
	if c.Table.Size < c.ClaimSize() {
		return fmt.Errorf("table.size (%d) must hold at least one set of %d cards", c.Table.Size, c.ClaimSize())
	}

	if c.Players.Human < 0 || c.Players.Computer < 0 {
		return fmt.Errorf("players.human and players.computer must be >= 0")
	}
	total := c.TotalPlayers()
	if total == 0 {
		return fmt.Errorf("no players defined")
	}
	if len(c.Players.Names) > total {
		return fmt.Errorf("players.names lists %d names for %d players", len(c.Players.Names), total)
	}
	seen := make(map[string]int)
	for i, name := range c.Players.Names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("players.names[%d] is empty", i)
		}
		if j, ok := seen[name]; ok {
			return fmt.Errorf("duplicate player name '%s' (players %d and %d)", name, j, i)
		}
		seen[name] = i
	}
	for i := len(c.Players.Names); i < total; i++ {
		c.Players.Names = append(c.Players.Names, defaultName(i, c.Players.Human))
	}

	if err := c.Timing.validate(); err != nil {
		return err
	}

	strategy := strings.ToLower(strings.TrimSpace(c.Computer.Strategy))
	if strategy == "" {
		strategy = "random"
	}
	if !contains(strategies, strategy) {
		return fmt.Errorf("invalid computer.strategy '%s': must be one of %s", c.Computer.Strategy, strings.Join(strategies, ", "))
	}
	c.Computer.Strategy = strategy
	if c.Computer.KeyPressInterval <= 0 {
		return fmt.Errorf("computer.key_press_interval must be > 0, got %s", c.Computer.KeyPressInterval)
	}

	if c.Events.RedisURL != "" && c.Events.GameID == "" {
		c.Events.GameID = "setgame"
	}

	return nil
}

func (t *TimingConfig) validate() error {
	if t.TurnTimeout <= 0 {
		return fmt.Errorf("timing.turn_timeout must be > 0, got %s", t.TurnTimeout)
	}
	if t.TurnTimeoutWarning < 0 || t.TurnTimeoutWarning >= t.TurnTimeout {
		return fmt.Errorf("timing.turn_timeout_warning must be >= 0 and below turn_timeout, got %s", t.TurnTimeoutWarning)
	}
	if t.PointFreeze < 0 || t.PenaltyFreeze < 0 {
		return fmt.Errorf("timing.point_freeze and timing.penalty_freeze must be >= 0")
	}
	if t.Tick <= 0 || t.WarningTick <= 0 {
		return fmt.Errorf("timing.tick and timing.warning_tick must be > 0")
	}
	if t.HintThreshold < 0 {
		return fmt.Errorf("timing.hint_threshold must be >= 0, got %s", t.HintThreshold)
	}
	return nil
}

func defaultName(i, humans int) string {
	if i < humans {
		return fmt.Sprintf("human-%d", i+1)
	}
	return fmt.Sprintf("bot-%d", i-humans+1)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("setgame.schema.json", schemaJSON)
})

// CheckSchema validates raw YAML against the embedded JSON schema. It catches
// unknown keys and wrongly typed values before they are silently ignored.
func CheckSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return validateSchema(doc)
}

func validateSchema(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round-trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}
	return schema.Validate(value)
}

// Parse decodes and validates a configuration document. Missing keys keep
// their Default values.
func Parse(data []byte) (*SetgameConfig, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Load reads and validates a setgame.yml file.
func Load(path string) (*SetgameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func applyEnv(c *SetgameConfig) {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Events.RedisURL = v
	}
	if v := os.Getenv(EnvGameID); v != "" {
		c.Events.GameID = v
	}
}
