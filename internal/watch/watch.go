package watch

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by events.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForRedis polls the event server until it answers or timeout elapses.
// Polls every 200ms.
func WaitForRedis(ctx context.Context, client Pinger, timeout time.Duration) error {
	lastErr := client.Ping(ctx)
	if lastErr == nil {
		return nil
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timeoutCh:
			return fmt.Errorf("timeout waiting for Redis after %v: %w", timeout, lastErr)

		case <-ticker.C:
			lastErr = client.Ping(ctx)
			if lastErr == nil {
				return nil
			}
		}
	}
}
