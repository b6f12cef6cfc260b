package game

import (
	"context"
	"testing"
	"time"

	"github.com/dyluth/setgame/internal/arbiter"
	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/display"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(t *testing.T, humans, computers int) *config.SetgameConfig {
	t.Helper()
	c := config.Default()
	c.Deck.Size = 27
	c.Players = config.PlayersConfig{Human: humans, Computer: computers}
	c.Timing = config.TimingConfig{
		TurnTimeout:        20 * time.Second,
		TurnTimeoutWarning: time.Second,
		PointFreeze:        time.Millisecond,
		PenaltyFreeze:      2 * time.Millisecond,
		Tick:               5 * time.Millisecond,
		WarningTick:        time.Millisecond,
		HintThreshold:      time.Second,
	}
	c.Computer = config.ComputerConfig{Strategy: "seeker", KeyPressInterval: time.Millisecond}
	require.NoError(t, c.Validate())
	return c
}

func TestConfigMapping(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())

	a := ArbiterConfig(c)
	assert.Equal(t, arbiter.Config{
		TableSize:          12,
		ClaimSize:          3,
		DeckSize:           81,
		TurnTimeout:        60 * time.Second,
		TurnTimeoutWarning: 5 * time.Second,
		Tick:               800 * time.Millisecond,
		WarningTick:        10 * time.Millisecond,
		HintThreshold:      15 * time.Second,
	}, a)

	p := PlayerConfig(c)
	assert.Equal(t, 3, p.ClaimSize)
	assert.Equal(t, time.Second, p.PointFreeze)
	assert.Equal(t, 3*time.Second, p.PenaltyFreeze)
}

func TestNew_RequiresValidatedConfig(t *testing.T) {
	_, err := New(config.Default(), Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration not validated")
}

func TestNew_Seats(t *testing.T) {
	c := fastConfig(t, 2, 3)
	c.Events.GameID = "friday"
	g, err := New(c, Options{Logger: zerolog.Nop(), Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, "friday", g.ID)
	assert.Equal(t, []int{0, 1}, g.Humans())
	assert.Equal(t, []string{"human-1", "human-2", "bot-1", "bot-2", "bot-3"}, g.Names())
	assert.Len(t, g.bots, 3)

	players := g.Arbiter.Players()
	require.Len(t, players, 5)
	for i, p := range players {
		assert.Equal(t, i, p.ID)
		assert.Equal(t, i < 2, p.Human)
	}
}

func TestNew_GeneratesGameID(t *testing.T) {
	g, err := New(fastConfig(t, 0, 1), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Len(t, g.ID, 36)
}

func TestRun_BotsFinishTheGame(t *testing.T) {
	rec := display.NewRecorder()
	g, err := New(fastConfig(t, 0, 3), Options{Display: rec, Logger: zerolog.Nop(), Seed: 42})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	winners, err := g.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, winners)
	assert.Equal(t, winners, rec.Winners())
	assert.Equal(t, arbiter.StateTerminated, g.Arbiter.State())

	total := 0
	for _, s := range g.Arbiter.Scores() {
		total += s
	}
	assert.Positive(t, total, "seekers should score on a 27 card deck")
	assert.LessOrEqual(t, total*3, 27)
}

func TestRun_HumansAndTerminate(t *testing.T) {
	g, err := New(fastConfig(t, 1, 0), Options{Logger: zerolog.Nop(), Seed: 3})
	require.NoError(t, err)

	done := make(chan []int)
	go func() {
		winners, err := g.Run(context.Background())
		assert.NoError(t, err)
		done <- winners
	}()

	require.Eventually(t, func() bool { return g.Arbiter.State() == arbiter.StateCountingDown }, 2*time.Second, time.Millisecond)
	assert.False(t, g.SlotPressed(5, 0), "unknown player")
	g.Terminate()

	select {
	case winners := <-done:
		assert.Equal(t, []int{0}, winners)
	case <-time.After(5 * time.Second):
		t.Fatal("game did not terminate")
	}
}
