package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   func() *Event
		wantErr string
	}{
		{
			name:  "countdown needs nothing else",
			event: func() *Event { return New("g", EventCountdown) },
		},
		{
			name: "score with player",
			event: func() *Event {
				e := New("g", EventScore)
				e.Player = 1
				return e
			},
		},
		{
			name:    "score without player",
			event:   func() *Event { return New("g", EventScore) },
			wantErr: "requires a player",
		},
		{
			name: "card placed without card",
			event: func() *Event {
				e := New("g", EventCardPlaced)
				e.Slot = 0
				return e
			},
			wantErr: "requires a slot and a card",
		},
		{
			name:    "markers removed without slot",
			event:   func() *Event { return New("g", EventMarkersRemoved) },
			wantErr: "requires a slot",
		},
		{
			name:    "hint without cards",
			event:   func() *Event { return New("g", EventHint) },
			wantErr: "requires cards",
		},
		{
			name:    "unknown type",
			event:   func() *Event { return New("g", "explosion") },
			wantErr: "unknown event type",
		},
		{
			name:    "empty game",
			event:   func() *Event { return New("", EventCountdown) },
			wantErr: "game ID cannot be empty",
		},
		{
			name: "bad id",
			event: func() *Event {
				e := New("g", EventCountdown)
				e.ID = "x"
				return e
			},
			wantErr: "not a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event().Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSchemaKeys(t *testing.T) {
	assert.Equal(t, "setgame:g1:events", EventsChannel("g1"))
	assert.Equal(t, "setgame:g1:scores", ScoresKey("g1"))
}
