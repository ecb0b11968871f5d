package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/systems"
)

// AgentSpec is the full parameter set of one agent at spawn.
type AgentSpec struct {
	Pos       r2.Vec
	Mover     components.Mover
	Sight     components.Sight
	Layer     int
	HomeIndex int
}

// spawnHomes creates every configured home and its agents.
// Each home draws its agents' parameters from its own PCG stream.
func (g *Game) spawnHomes() error {
	cfg := g.config()
	for i := range cfg.Homes {
		hc := &cfg.Homes[i]
		h := g.spawnHome(hc)

		rng := components.NewRngFromSeed(g.seed, uint64(i+1))
		for j := 0; j < hc.Spawn.Amount; j++ {
			spec := sampleAgent(&rng, h.Pos, &hc.Spawn)
			spec.HomeIndex = i
			if _, err := g.SpawnAgent(spec); err != nil {
				return fmt.Errorf("spawning agent %d of home %q: %w", j, hc.Name, err)
			}
		}
		slog.Debug("home spawned", "home", hc.Name, "agents", hc.Spawn.Amount)
	}
	return nil
}

// spawnHome creates one home entity and registers it with the ledger.
func (g *Game) spawnHome(hc *config.HomeConfig) homeInfo {
	pos := components.Position{X: hc.X, Y: hc.Y}
	layer := components.Layer{Layer: hc.Layer}
	stock := components.Stockpile{Food: hc.StartingFood}
	destroy := components.Destroy{}

	e := g.homeMapper.NewEntity(&pos, &layer, &stock, &destroy)
	h := homeInfo{Entity: e, Name: hc.Name, Pos: pos.XY()}
	g.ledger.register(h)
	return h
}

// sampleAgent draws spawn parameters from the configured ranges.
func sampleAgent(rng *components.Rng, home r2.Vec, s *config.SpawnConfig) AgentSpec {
	pos := r2.Vec{
		X: home.X + rng.Range(-s.Constraints[0], s.Constraints[0]),
		Y: home.Y + rng.Range(-s.Constraints[1], s.Constraints[1]),
	}

	minPeriod := rng.Range(s.MinJitterPeriod.Min(), s.MinJitterPeriod.Max())
	maxPeriod := rng.Range(s.MaxJitterPeriod.Min(), s.MaxJitterPeriod.Max())
	if minPeriod > maxPeriod {
		minPeriod, maxPeriod = maxPeriod, minPeriod
	}

	m := components.Mover{
		Speed:           rng.Range(s.Speed.Min(), s.Speed.Max()),
		TurnRate:        rng.Range(s.TurnRate.Min(), s.TurnRate.Max()),
		LeashRadius:     rng.Range(s.LeashRadius.Min(), s.LeashRadius.Max()),
		HomePull:        rng.Range(s.HomePull.Min(), s.HomePull.Max()),
		JitterStrength:  rng.Range(s.JitterStrength.Min(), s.JitterStrength.Max()),
		MinJitterPeriod: minPeriod,
		MaxJitterPeriod: maxPeriod,
		Strategy:        components.StrategyFrontier,
	}
	if rng.Float64() < s.OrbitFraction {
		m.Strategy = components.StrategyOrbit
	}

	return AgentSpec{
		Pos:   pos,
		Mover: m,
		Sight: components.Sight{
			Range: rng.Range(s.SightRange.Min(), s.SightRange.Max()),
			Mask:  s.TargetLayer,
		},
		Layer: s.Layer,
	}
}

// SpawnAgent creates an agent bound to the home at spec.HomeIndex.
// The agent receives the next stable id, which seeds its RNG stream.
func (g *Game) SpawnAgent(spec AgentSpec) (ecs.Entity, error) {
	if spec.HomeIndex < 0 || spec.HomeIndex >= len(g.ledger.homes) {
		return ecs.Entity{}, fmt.Errorf("home index %d out of range", spec.HomeIndex)
	}
	h := g.ledger.homes[spec.HomeIndex]

	id := g.nextID
	g.nextID++

	pos := components.Position{X: spec.Pos.X, Y: spec.Pos.Y}
	aid := components.AgentID{ID: id}
	mover := spec.Mover
	wander := components.Wander{}
	rng := components.NewRng(id)
	steer := components.Steering{}
	home := components.Home{Entity: h.Entity, Pos: h.Pos}

	e := g.agentMapper.NewEntity(&pos, &aid, &mover, &wander, &rng, &steer, &home)

	bucket := components.ThinkBucket{Bucket: systems.BucketOf(spec.Pos, g.scheduler.K())}
	sight := spec.Sight
	target := components.Target{}
	carry := components.Carrying{}
	wp := components.Waypoint{}
	layer := components.Layer{Layer: spec.Layer}
	destroy := components.Destroy{}
	g.agentExtras.Add(e, &bucket, &sight, &target, &carry, &wp, &layer, &destroy)

	g.byID[id] = e
	return e, nil
}
