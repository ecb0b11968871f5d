package game

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// AgentState is a read-only snapshot of one agent.
type AgentState struct {
	ID       uint32
	Pos      components.Position
	Home     string
	Strategy components.Strategy
	Bucket   uint8
	Task     components.Task
	Target   components.Target
	Carrying components.Carrying
	Waypoint components.Waypoint
	Dir      r2.Vec
	SpeedMul float64
}

// Inspect returns the current state of the agent with the given id.
// Call between ticks only.
func (g *Game) Inspect(agentID uint32) (AgentState, bool) {
	e, ok := g.byID[agentID]
	if !ok || !g.world.Alive(e) {
		return AgentState{}, false
	}

	pos, _, mover, _, _, steer, home := g.agentMapper.Get(e)
	target := g.targetMap.Get(e)
	carry := g.carryMap.Get(e)

	return AgentState{
		ID:       agentID,
		Pos:      *pos,
		Home:     g.ledger.Name(home.Entity),
		Strategy: mover.Strategy,
		Bucket:   g.bucketMap.Get(e).Bucket,
		Task:     components.TaskOf(target, carry),
		Target:   *target,
		Carrying: *carry,
		Waypoint: *g.wpMap.Get(e),
		Dir:      steer.Dir,
		SpeedMul: steer.SpeedMul,
	}, true
}

// AgentIDs returns the ids of every live agent in ascending order.
func (g *Game) AgentIDs() []uint32 {
	return slices.Sorted(maps.Keys(g.byID))
}
