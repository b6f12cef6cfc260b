package bot

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/claims"
	"github.com/dyluth/setgame/internal/player"
	"github.com/dyluth/setgame/internal/table"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresser struct {
	mu      sync.Mutex
	pressed []int
	marked  []int
}

func (f *fakePresser) KeyPressed(slot int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, slot)
	return true
}

func (f *fakePresser) Markers(*table.Grid) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.marked...)
}

func (f *fakePresser) presses() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pressed...)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"random", StrategyRandom, false},
		{" Seeker ", StrategySeeker, false},
		{"genius", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBrain(t *testing.T) {
	b, err := NewBrain(StrategyRandom, 3, cards.Classic.IsValidSet)
	require.NoError(t, err)
	assert.IsType(t, RandomBrain{}, b)

	b, err = NewBrain(StrategySeeker, 3, cards.Classic.IsValidSet)
	require.NoError(t, err)
	assert.IsType(t, &SeekerBrain{}, b)

	_, err = NewBrain("nope", 3, cards.Classic.IsValidSet)
	assert.Error(t, err)
}

func TestRandomBrain_OnlyOccupiedSlots(t *testing.T) {
	tbl := table.New(12, nil)
	require.NoError(t, tbl.PlaceCard(5, 2))
	require.NoError(t, tbl.PlaceCard(6, 9))
	rng := rand.New(rand.NewSource(1))

	tbl.View(func(g *table.Grid) {
		for i := 0; i < 50; i++ {
			assert.Contains(t, []int{2, 9}, RandomBrain{}.NextSlot(g, nil, rng))
		}
	})

	empty := table.New(12, nil)
	empty.View(func(g *table.Grid) {
		assert.Equal(t, -1, RandomBrain{}.NextSlot(g, nil, rng))
	})
}

func TestSeekerBrain(t *testing.T) {
	tbl := table.New(12, nil)
	// Cards 0, 1 and 2 form the only set; 4 is a distractor.
	for slot, c := range []int{4, 0, 1, 2} {
		require.NoError(t, tbl.PlaceCard(c, slot))
	}
	rng := rand.New(rand.NewSource(1))
	brain := &SeekerBrain{ClaimSize: 3, Valid: cards.Classic.IsValidSet}

	tbl.View(func(g *table.Grid) {
		assert.Equal(t, 0, brain.NextSlot(g, []int{4}, rng), "unmarks the distractor first")
		assert.Equal(t, 1, brain.NextSlot(g, nil, rng))
		assert.Equal(t, 2, brain.NextSlot(g, []int{0}, rng))
		assert.Equal(t, 3, brain.NextSlot(g, []int{0, 1}, rng))
		assert.Equal(t, -1, brain.NextSlot(g, []int{0, 1, 2}, rng))
	})

	// Once the target leaves the board the brain falls back to random presses.
	_, _, err := tbl.RemoveCard(1)
	require.NoError(t, err)
	tbl.View(func(g *table.Grid) {
		slot := brain.NextSlot(g, nil, rng)
		assert.Contains(t, []int{0, 2, 3}, slot)
	})
}

func TestBot_RunStopsOnQuit(t *testing.T) {
	tbl := table.New(12, nil)
	require.NoError(t, tbl.PlaceCard(3, 3))
	fp := &fakePresser{}
	b := New(fp, tbl, RandomBrain{}, time.Millisecond, rand.New(rand.NewSource(7)), zerolog.Nop())

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.Run(quit)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(fp.presses()) >= 5 }, 2*time.Second, time.Millisecond)
	close(quit)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
	}

	for _, slot := range fp.presses() {
		assert.Equal(t, 3, slot)
	}
	pressed, accepted := b.Stats()
	assert.Equal(t, pressed, accepted)
}

// A seeker bot driving a real player ends up claiming the set on the board.
func TestBot_SeekerClaimsSet(t *testing.T) {
	tbl := table.New(12, nil)
	for slot, c := range []int{4, 0, 8, 1, 2} {
		require.NoError(t, tbl.PlaceCard(c, slot))
	}
	queue := claims.NewQueue()

	deps := player.Deps{
		Table:  tbl,
		Queue:  queue,
		Logger: zerolog.Nop(),
		Input: func(p *player.Player) player.InputSource {
			brain := &SeekerBrain{ClaimSize: 3, Valid: cards.Classic.IsValidSet}
			return New(p, tbl, brain, 2*time.Millisecond, rand.New(rand.NewSource(3)), zerolog.Nop())
		},
	}
	p := player.New(0, "bot-0", false, player.Config{ClaimSize: 3}, deps)
	p.Start()
	defer func() {
		p.Terminate()
		<-p.Done()
	}()
	p.Release()

	require.Eventually(t, func() bool { return queue.Len() == 1 }, 2*time.Second, time.Millisecond)
	claim := queue.Pending()[0]
	assert.True(t, cards.Classic.IsValidSet(claim.Cards), "claimed %v", claim.Cards)
}
