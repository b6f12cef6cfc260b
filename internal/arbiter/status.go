package arbiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dyluth/setgame/internal/player"
	"github.com/dyluth/setgame/internal/table"
)

// Snapshot is a point-in-time view of a running game.
type Snapshot struct {
	State      State          `json:"state"`
	Round      int            `json:"round"`
	DeckSize   int            `json:"deck_size"`
	BoardCards int            `json:"board_cards"`
	Players    []PlayerStatus `json:"players"`
}

// PlayerStatus is one player's entry in a Snapshot.
type PlayerStatus struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Human    bool         `json:"human"`
	Score    int          `json:"score"`
	State    player.State `json:"state"`
	FreezeMS int64        `json:"freeze_ms,omitempty"`
}

// Snapshot returns the current game state. Safe from any goroutine.
func (a *Arbiter) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{State: a.state, Round: a.round}
	a.mu.Unlock()

	a.table.View(func(g *table.Grid) {
		s.DeckSize = len(a.deck)
		s.BoardCards = g.CountCards()
	})

	for _, p := range a.players {
		s.Players = append(s.Players, PlayerStatus{
			ID:       p.ID,
			Name:     p.Name,
			Human:    p.Human,
			Score:    p.Score(),
			State:    p.State(),
			FreezeMS: p.FreezeRemaining().Milliseconds(),
		})
	}
	return s
}

// Pinger checks a backing service, such as the event bus.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusServer serves /healthz and /status for a running game.
type StatusServer struct {
	arbiter *Arbiter
	events  Pinger
	server  *http.Server
}

// NewStatusServer creates a status server. events may be nil when the game
// publishes no events.
func NewStatusServer(a *Arbiter, events Pinger) *StatusServer {
	return &StatusServer{arbiter: a, events: events}
}

// Start serves on addr in the background.
func (s *StatusServer) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthCheckHandler)
	mux.HandleFunc("/status", s.statusHandler)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.arbiter.log.Error().Err(err).Str("addr", addr).Msg("status server stopped")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the JSON body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	State  State  `json:"state"`
	Events string `json:"events,omitempty"`
	Error  string `json:"error,omitempty"`
}

// healthCheckHandler returns 200 while the game runs and the event bus, if
// any, answers. A finished game or an unreachable bus gives 503.
func (s *StatusServer) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{Status: "healthy", State: s.arbiter.State()}
	code := http.StatusOK

	if s.events != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.events.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.Events = "disconnected"
			response.Error = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			response.Events = "connected"
		}
	}
	if response.State == StateTerminated {
		response.Status = "finished"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, response)
}

func (s *StatusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.arbiter.Snapshot())
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.arbiter.log.Warn().Err(err).Msg("failed to write status response")
	}
}
