package game

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/hive/systems"
	"github.com/pthm-cable/hive/telemetry"
)

// gatherAgents refreshes the dense per-tick agent views in id order.
func (g *Game) gatherAgents() {
	g.agents = g.agents[:0]

	query := g.agentFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, id, mover, wander, rng, steer, home := query.Get()
		g.agents = append(g.agents, agentView{
			entity: e,
			id:     id.ID,
			bucket: g.bucketMap.Get(e).Bucket,
			sight:  *g.sightMap.Get(e),
			pos:    pos,
			mover:  mover,
			wander: wander,
			rng:    rng,
			steer:  steer,
			home:   home,
			target: g.targetMap.Get(e),
			carry:  g.carryMap.Get(e),
			wp:     g.wpMap.Get(e),
		})
	}

	slices.SortFunc(g.agents, func(a, b agentView) int {
		return cmp.Compare(a.id, b.id)
	})
}

// rebuildIndex clears the spatial index and reinserts every positioned
// entity in parallel, then seals each shard.
func (g *Game) rebuildIndex() {
	g.positioned = g.positioned[:0]
	query := g.posFilter.Query()
	for query.Next() {
		pos := query.Get()
		g.positioned = append(g.positioned, indexEntry{
			entity: query.Entity(),
			cell:   systems.CellOf(pos.XY()),
		})
	}

	g.index.Clear()
	g.pool.run(len(g.positioned), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			g.index.Insert(g.positioned[i].cell, g.positioned[i].entity)
		}
	})
	g.pool.run(g.index.Shards(), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			g.index.SealShard(i)
		}
	})
}

// updateDetection assigns targets to idle agents.
func (g *Game) updateDetection() {
	g.pool.run(len(g.agents), func(start, end int, s *workerScratch) {
		for i := start; i < end; i++ {
			a := &g.agents[i]
			if g.detector.Detect(a.pos.XY(), a.sight, a.target, a.carry) {
				s.counts.Detections++
			}
		}
	})
}

// updateThink runs the wander decision process for the active bucket.
func (g *Game) updateThink(dt float64) {
	bucket, thinkDt := g.scheduler.Advance(dt)
	g.pool.run(len(g.agents), func(start, end int, s *workerScratch) {
		for i := start; i < end; i++ {
			a := &g.agents[i]
			if a.bucket != bucket {
				continue
			}
			g.thinker.Think(a.wander, a.rng, a.mover, a.pos.XY(), a.home.Pos, thinkDt, a.steer)
			s.counts.Thinks++
		}
	})
}

// refreshTargets updates the last known position of pursued targets.
func (g *Game) refreshTargets() {
	g.pool.run(len(g.agents), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			a := &g.agents[i]
			if a.carry.Enabled {
				continue
			}
			g.detector.RefreshTarget(a.target)
		}
	})
}

// updateSteering composes overrides with the wander contribution and
// integrates positions.
func (g *Game) updateSteering(dt float64) {
	g.pool.run(len(g.agents), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			a := &g.agents[i]
			wasActive := a.wp.Active
			over := g.composer.Step(a.pos, a.steer, a.mover, a.home, a.target, a.carry, a.wp, dt)
			a.reached = over == systems.OverrideWaypoint && wasActive && !a.wp.Active
		}
	})
}

// updateTasks evaluates arrivals in parallel, then commits pickups and
// deliveries serially in agent order so contested items go to the lowest id.
func (g *Game) updateTasks() {
	g.pool.run(len(g.agents), func(start, end int, _ *workerScratch) {
		for i := start; i < end; i++ {
			a := &g.agents[i]
			a.intent = g.tasks.Evaluate(a.pos.XY(), a.home, a.target, a.carry)
		}
	})

	var counts telemetry.Counters
	for i := range g.agents {
		a := &g.agents[i]
		if a.reached {
			g.emit(telemetry.NewWaypointEvent(g.tick, a.id, a.pos.X, a.pos.Y))
			a.reached = false
		}

		switch a.intent {
		case systems.IntentPickup:
			item, ok := g.tasks.Pickup(a.target, a.carry, g.items)
			if ok {
				counts.Pickups++
				g.emit(telemetry.NewPickupEvent(g.tick, a.id, item, a.pos.X, a.pos.Y))
			} else {
				counts.EmptyVisits++
				g.emit(telemetry.NewEmptyVisitEvent(g.tick, a.id, a.pos.X, a.pos.Y))
			}
		case systems.IntentDeliver:
			kind := a.carry.Kind
			amount, ok := g.tasks.Deliver(a.home, a.carry, g.ledger)
			if ok {
				counts.Deliveries++
				counts.Delivered += amount
				g.emit(telemetry.NewDeliverEvent(g.tick, a.id, g.ledger.Name(a.home.Entity), kind, amount, a.pos.X, a.pos.Y))
			} else {
				counts.DroppedDeliveries++
				g.emit(telemetry.NewDroppedEvent(g.tick, a.id, kind, amount, a.pos.X, a.pos.Y))
			}
		}
		a.intent = systems.IntentNone
	}
	g.collector.Record(counts)
}
