package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-game")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.Equal(t, "test-game", client.GameID())
	})

	t.Run("rejects empty game ID", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.ErrorContains(t, err, "game ID cannot be empty")
	})

	t.Run("from URL", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewClientFromURL("redis://"+mr.Addr()+"/0", "g1")
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects a bad URL", func(t *testing.T) {
		_, err := NewClientFromURL("http://nope", "g1")
		assert.ErrorContains(t, err, "failed to parse redis URL")
	})
}

func TestPing(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx))

	mr.Close()
	assert.Error(t, client.Ping(ctx))
}

func TestPublishSubscribe(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	placed := New("test-game", EventCardPlaced)
	placed.Card = 7
	placed.Slot = 3
	require.NoError(t, client.Publish(ctx, placed))

	winners := New("test-game", EventWinners)
	winners.Players = []int{0, 2}
	require.NoError(t, client.Publish(ctx, winners))

	for _, want := range []*Event{placed, winners} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Type, got.Type)
			assert.Equal(t, want.Card, got.Card)
			assert.Equal(t, want.Slot, got.Slot)
			assert.Equal(t, want.Players, got.Players)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestPublish_RejectsInvalidEvent(t *testing.T) {
	client, _ := setupTestClient(t)

	e := New("test-game", EventTokenPlaced)
	e.Slot = 2
	err := client.Publish(context.Background(), e)
	assert.ErrorContains(t, err, "invalid event")
}

func TestSubscribe_BadPayload(t *testing.T) {
	client, mr := setupTestClient(t)

	sub, err := client.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(EventsChannel("test-game"), "not json")

	select {
	case err := <-sub.Errors():
		assert.ErrorContains(t, err, "failed to unmarshal game event")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for error")
	}
}

func TestSubscription_Close(t *testing.T) {
	client, _ := setupTestClient(t)

	sub, err := client.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close is idempotent")

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestScores(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	for _, s := range []struct{ player, score int }{{2, 1}, {0, 3}, {2, 2}} {
		e := New("test-game", EventScore)
		e.Player = s.player
		e.Score = s.score
		require.NoError(t, client.Publish(ctx, e))
	}

	scores, err := client.Scores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlayerScore{{Player: 0, Score: 3}, {Player: 2, Score: 2}}, scores)

	require.NoError(t, client.ResetScores(ctx))
	scores, err = client.Scores(ctx)
	require.NoError(t, err)
	assert.Empty(t, scores)
}
