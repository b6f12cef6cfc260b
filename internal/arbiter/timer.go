package arbiter

import "time"

// roundTimer is the round countdown. It is owned by the arbiter goroutine.
type roundTimer struct {
	timeout       time.Duration
	warning       time.Duration
	tick          time.Duration
	warningTick   time.Duration
	hints         bool
	hintThreshold time.Duration

	deadline  time.Time
	hintShown bool
}

func newRoundTimer(cfg Config) *roundTimer {
	return &roundTimer{
		timeout:       cfg.TurnTimeout,
		warning:       cfg.TurnTimeoutWarning,
		tick:          cfg.Tick,
		warningTick:   cfg.WarningTick,
		hints:         cfg.Hints,
		hintThreshold: cfg.HintThreshold,
	}
}

// reset starts a fresh countdown.
func (t *roundTimer) reset(now time.Time) {
	t.deadline = now.Add(t.timeout)
	t.hintShown = false
}

func (t *roundTimer) remaining(now time.Time) time.Duration {
	if d := t.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (t *roundTimer) expired(now time.Time) bool {
	return !now.Before(t.deadline)
}

// countdown returns what the display should show: the time left and whether
// it is inside the warning window. An expired round shows zero without a
// warning.
func (t *roundTimer) countdown(now time.Time) (time.Duration, bool) {
	rem := t.remaining(now)
	if rem == 0 {
		return 0, false
	}
	return rem, rem <= t.warning
}

// quantum is how long the arbiter may sleep before it must refresh the
// countdown. Coarse above the warning threshold, fine below it, never past the
// deadline.
func (t *roundTimer) quantum(now time.Time) time.Duration {
	rem := t.remaining(now)
	q := t.warningTick
	if rem > t.warning {
		q = t.tick
		// Wake up in time to show the first warning tick.
		if until := rem - t.warning; until < q {
			q = until
		}
	}
	if rem < q {
		q = rem
	}
	if q < time.Millisecond {
		q = time.Millisecond
	}
	return q
}

// hintDue reports whether hints should be shown now. It is true at most once
// per round.
func (t *roundTimer) hintDue(now time.Time) bool {
	return t.hints && !t.hintShown && t.remaining(now) < t.hintThreshold
}
