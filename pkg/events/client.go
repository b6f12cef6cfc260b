package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client publishes and consumes the events of one game.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb    *redis.Client
	gameID string
}

// NewClient creates a client for the given game. Returns an error if gameID
// is empty.
func NewClient(redisOpts *redis.Options, gameID string) (*Client, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game ID cannot be empty")
	}

	return &Client{
		rdb:    redis.NewClient(redisOpts),
		gameID: gameID,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client.
func NewClientFromURL(url, gameID string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewClient(opts, gameID)
}

// GameID returns the game the client is scoped to.
func (c *Client) GameID() string {
	return c.gameID
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Publish validates an event and publishes it on the game's channel. Score
// events also update the scoreboard hash.
func (c *Client) Publish(ctx context.Context, e *Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if e.Type == EventScore {
		if err := c.rdb.HSet(ctx, ScoresKey(c.gameID), strconv.Itoa(e.Player), e.Score).Err(); err != nil {
			return fmt.Errorf("failed to update scoreboard: %w", err)
		}
	}

	if err := c.rdb.Publish(ctx, EventsChannel(c.gameID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PlayerScore is one scoreboard entry.
type PlayerScore struct {
	Player int `json:"player"`
	Score  int `json:"score"`
}

// Scores returns the scoreboard sorted by player id. Players that never
// scored are absent.
func (c *Client) Scores(ctx context.Context) ([]PlayerScore, error) {
	raw, err := c.rdb.HGetAll(ctx, ScoresKey(c.gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scoreboard: %w", err)
	}

	scores := make([]PlayerScore, 0, len(raw))
	for field, value := range raw {
		player, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid scoreboard player %q: %w", field, err)
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid score for player %d: %w", player, err)
		}
		scores = append(scores, PlayerScore{Player: player, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Player < scores[j].Player })
	return scores, nil
}

// ResetScores clears the scoreboard, at the start of a game.
func (c *Client) ResetScores(ctx context.Context) error {
	if err := c.rdb.Del(ctx, ScoresKey(c.gameID)).Err(); err != nil {
		return fmt.Errorf("failed to reset scoreboard: %w", err)
	}
	return nil
}

// Subscription is an active subscription to a game's events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of game events.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe subscribes to the game's events. Context cancellation also stops
// the subscription.
//
// Events are delivered on a buffered channel (size 64). Redis Pub/Sub is
// at-most-once: a subscriber that falls too far behind loses events.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel(c.gameID))

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to game events: %w", err)
	}

	eventsChan := make(chan *Event, 64)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal game event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
