package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"
)

// command is a deferred world mutation applied at the start of a tick.
type command func(g *Game)

// enqueue buffers a command. Safe to call from any goroutine.
func (g *Game) enqueue(c command) {
	g.cmdMu.Lock()
	g.commands = append(g.commands, c)
	g.cmdMu.Unlock()
}

// applyCommands runs buffered commands in submission order.
func (g *Game) applyCommands() {
	g.cmdMu.Lock()
	cmds := g.commands
	g.commands = nil
	g.cmdMu.Unlock()

	for _, c := range cmds {
		c(g)
	}
}

// SetWaypoint orders an agent to move to pos. The order overrides wander
// until the agent arrives, but yields to pursuing or carrying.
func (g *Game) SetWaypoint(agentID uint32, pos r2.Vec) {
	g.enqueue(func(g *Game) {
		e, ok := g.byID[agentID]
		if !ok || !g.world.Alive(e) {
			slog.Debug("waypoint for unknown agent", "agent", agentID)
			return
		}
		wp := g.wpMap.Get(e)
		wp.Active = true
		wp.Pos = pos
	})
}

// ClearWaypoint cancels an agent's manual move order.
func (g *Game) ClearWaypoint(agentID uint32) {
	g.enqueue(func(g *Game) {
		if e, ok := g.byID[agentID]; ok && g.world.Alive(e) {
			g.wpMap.Get(e).Active = false
		}
	})
}

// DestroyHome flags a home for removal. Agents keep their back-reference;
// their later deliveries are dropped.
func (g *Game) DestroyHome(name string) {
	g.enqueue(func(g *Game) {
		h, ok := g.ledger.lookup(name)
		if !ok || !g.flagDestroy(h.Entity) {
			slog.Warn("destroy of unknown home", "home", name)
		}
	})
}

// DestroyAgent flags an agent for removal.
func (g *Game) DestroyAgent(agentID uint32) {
	g.enqueue(func(g *Game) {
		if e, ok := g.byID[agentID]; ok {
			g.flagDestroy(e)
		}
	})
}
