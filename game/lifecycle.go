package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
)

// sweepDestroyed removes every entity flagged for destruction.
// Flags are collected first; the world is only modified after the query ends.
func (g *Game) sweepDestroyed() {
	g.doomed = g.doomed[:0]

	query := g.destroyFilter.Query()
	for query.Next() {
		if query.Get().Pending {
			g.doomed = append(g.doomed, query.Entity())
		}
	}

	for _, e := range g.doomed {
		if g.itemMap.Has(e) {
			g.itemCount--
		}
		if g.idMap.Has(e) {
			delete(g.byID, g.idMap.Get(e).ID)
		}
		if g.stockMap.Has(e) {
			slog.Info("home removed", "home", g.ledger.Name(e), "tick", g.tick)
		}
		g.world.RemoveEntity(e)
	}
}

// flagDestroy marks a live entity for removal at the next sweep.
func (g *Game) flagDestroy(e ecs.Entity) bool {
	if !g.world.Alive(e) || !g.destroyMap.Has(e) {
		return false
	}
	g.destroyMap.Get(e).Pending = true
	return true
}
