package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// maxScatterAttempts bounds rejection sampling per requested item.
const maxScatterAttempts = 64

// itemStore resolves pickups against item entities.
type itemStore struct {
	world   *ecs.World
	items   *ecs.Map[components.Item]
	destroy *ecs.Map[components.Destroy]
	consume bool
}

// Claim hands out the item on e. Items already flagged for destruction,
// empty items and dead entities cannot be claimed. With consume set the
// item is flagged so later claimants in the same tick find nothing.
func (s *itemStore) Claim(e ecs.Entity) (components.Item, bool) {
	if !s.world.Alive(e) || !s.items.Has(e) {
		return components.Item{}, false
	}
	item := s.items.Get(e)
	if item.Amount <= 0 {
		return components.Item{}, false
	}
	if s.destroy.Has(e) {
		d := s.destroy.Get(e)
		if d.Pending {
			return components.Item{}, false
		}
		if s.consume {
			d.Pending = true
		}
	}
	return *item, true
}

// scatterItems places the configured item count in noise-shaped patches.
// Candidate spots are drawn uniformly over the extent and kept where the
// normalized simplex noise clears the threshold.
func (g *Game) scatterItems() error {
	ic := &g.config().Items
	if ic.Count <= 0 {
		return nil
	}
	kind, ok := components.ParseItemKind(ic.Kind)
	if !ok {
		return fmt.Errorf("unknown item kind %q", ic.Kind)
	}

	noise := opensimplex.NewNormalized(g.seed)
	rng := components.NewRngFromSeed(g.seed, 0)

	placed := 0
	for attempt := 0; attempt < ic.Count*maxScatterAttempts && placed < ic.Count; attempt++ {
		p := r2.Vec{
			X: rng.Range(-ic.Extent, ic.Extent),
			Y: rng.Range(-ic.Extent, ic.Extent),
		}
		if noise.Eval2(p.X*ic.NoiseScale, p.Y*ic.NoiseScale) < ic.NoiseThreshold {
			continue
		}
		amount := roundAmount(rng.Range(ic.Amount.Min(), ic.Amount.Max()))
		g.SpawnItem(p, components.Item{Kind: kind, Amount: amount}, ic.Layer)
		placed++
	}

	if placed < ic.Count {
		slog.Warn("item scatter fell short", "placed", placed, "requested", ic.Count, "threshold", ic.NoiseThreshold)
	}
	return nil
}

// SpawnItem creates a collectable item entity.
func (g *Game) SpawnItem(p r2.Vec, item components.Item, layer int) ecs.Entity {
	pos := components.Position{X: p.X, Y: p.Y}
	l := components.Layer{Layer: layer}
	destroy := components.Destroy{}
	e := g.itemMapper.NewEntity(&pos, &l, &item, &destroy)
	g.itemCount++
	return e
}
