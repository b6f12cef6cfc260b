package arbiter

import (
	"time"

	"github.com/dyluth/setgame/internal/claims"
	"github.com/dyluth/setgame/internal/table"
)

// drainClaims resolves queued claims in arrival order. Stale claims are
// dropped and their owner released, invalid ones are penalized, and the first
// valid claim is scored and ends the pass: its cards leave the board, so the
// rest of the queue is looked at again on the next wake-up. Requires the table
// lock. Reports whether a claim was scored.
func (a *Arbiter) drainClaims(g *table.Grid) bool {
	pending := a.queue.Pending()
	if len(pending) == 0 {
		return false
	}

	var resolved []*claims.Claim
	defer func() { a.queue.Remove(resolved) }()

	for i, c := range pending {
		owner := a.players[c.Player]

		if len(c.Cards) < a.cfg.ClaimSize {
			resolved = append(resolved, c)
			owner.Release()
			a.logEvent("claim_stale", map[string]interface{}{
				"claim_id": c.ID,
				"player":   c.Player,
				"cards":    c.Cards,
			})
			continue
		}

		if !a.valid(c.Cards) {
			resolved = append(resolved, c)
			for _, card := range c.Cards {
				if slot, ok := g.SlotOf(card); ok {
					g.RemoveToken(c.Player, slot)
				}
			}
			owner.StripMarkers(g)
			owner.Penalty()
			a.logEvent("claim_penalized", map[string]interface{}{
				"claim_id": c.ID,
				"player":   c.Player,
				"cards":    c.Cards,
			})
			continue
		}

		resolved = append(resolved, c)
		a.scoreClaim(g, c, pending[i+1:])
		return true
	}
	return false
}

// scoreClaim removes the claim's cards from the board, from every player's
// markers and from every other queued claim, then awards the point. waiting
// holds the claims still queued behind c; their owners keep waiting for a
// verdict even when the endgame releases everyone else.
func (a *Arbiter) scoreClaim(g *table.Grid, c *claims.Claim, waiting []*claims.Claim) {
	for _, card := range c.Cards {
		for _, p := range a.players {
			p.DropCard(g, card)
		}
		a.queue.StripCard(card, c)

		slot, ok := g.SlotOf(card)
		if !ok {
			continue
		}
		a.display.RemoveMarkersAt(slot)
		if _, _, err := g.RemoveCard(slot); err != nil {
			a.log.Error().Err(err).Int("card", card).Int("slot", slot).Msg("failed to remove scored card")
		}
	}

	owner := a.players[c.Player]
	owner.Point()

	endgame := len(a.deck)+g.CountCards() < a.cfg.TableSize
	if endgame {
		awaiting := make(map[int]bool, len(waiting))
		for _, w := range waiting {
			awaiting[w.Player] = true
		}
		for _, p := range a.players {
			if !awaiting[p.ID] {
				p.Release()
			}
		}
		a.resetDeadline = true
	}

	a.logEvent("claim_scored", map[string]interface{}{
		"claim_id":  c.ID,
		"player":    c.Player,
		"cards":     c.Cards,
		"score":     owner.Score(),
		"waited":    time.Since(c.SubmittedAt).String(),
		"endgame":   endgame,
		"deck_left": len(a.deck),
	})
}
