// Package components defines ECS components for the simulation.
package components

import (
	"strings"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// AgentID is the stable spawn-order identifier of an agent.
// It seeds the agent's RNG stream and never changes.
type AgentID struct {
	ID uint32
}

// Strategy selects which wander decision process drives an agent.
type Strategy uint8

const (
	StrategyFrontier Strategy = iota // Exponential decision events around a drifting ring
	StrategyOrbit                    // Tangential orbit with radial correction
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyFrontier:
		return "frontier"
	case StrategyOrbit:
		return "orbit"
	default:
		return "unknown"
	}
}

// Mover holds movement parameters fixed at spawn.
type Mover struct {
	Speed           float64 // World units per second at speedMul 1
	TurnRate        float64 // Heading smoothing rate (1/s)
	LeashRadius     float64 // Mean preferred distance from home
	HomePull        float64 // Strength of the ring bias
	JitterStrength  float64 // Magnitude of the low-frequency jitter vector
	MinJitterPeriod float64
	MaxJitterPeriod float64
	Strategy        Strategy
}

// Wander is the mutable state of the wander decision process.
// Dir is a unit vector, or zero until the first think tick initializes it.
type Wander struct {
	Dir             r2.Vec
	JitterVec       r2.Vec
	JitterTimer     float64
	DecisionTimer   float64
	SpeedMul        float64 // 0 = pause, 1 = normal, >1 = sprint
	PreferredRadius float64 // Drifting ring radius around home
	Homesick        float64 // Current ring bias weight
	HomesickTimer   float64
}

// Initialized reports whether the wander state has been lazily set up.
func (w *Wander) Initialized() bool {
	return w.Dir != (r2.Vec{})
}

// Steering is the wander contribution persisted between think ticks.
type Steering struct {
	Dir      r2.Vec
	SpeedMul float64
}

// Home is a read-only back-reference to the agent's home base.
type Home struct {
	Entity ecs.Entity
	Pos    r2.Vec
}

// ThinkBucket is the fixed round-robin partition of an agent.
type ThinkBucket struct {
	Bucket uint8
}

// Sight holds detection range and the single target layer.
type Sight struct {
	Range float64
	Mask  int
}

// Layer is the detection layer of an entity.
type Layer struct {
	Layer int
}

// Target is the agent's optional detected target.
type Target struct {
	Enabled bool
	Entity  ecs.Entity
	Pos     r2.Vec // Last known position
}

// Clear disables the target.
func (t *Target) Clear() {
	*t = Target{}
}

// ItemKind identifies a collectable resource.
type ItemKind uint8

const (
	ItemFood ItemKind = iota
)

// String returns the item kind name.
func (k ItemKind) String() string {
	switch k {
	case ItemFood:
		return "food"
	default:
		return "unknown"
	}
}

// ParseItemKind maps a config name to an item kind.
func ParseItemKind(s string) (ItemKind, bool) {
	switch strings.ToLower(s) {
	case "food", "":
		return ItemFood, true
	default:
		return 0, false
	}
}

// Carrying is the agent's optional payload.
type Carrying struct {
	Enabled bool
	Kind    ItemKind
	Amount  int
}

// Clear zeroes and disables the payload.
func (c *Carrying) Clear() {
	*c = Carrying{}
}

// Waypoint is a manual move order that overrides wander until reached.
type Waypoint struct {
	Active bool
	Pos    r2.Vec
}

// Item marks an entity as pickup-able.
type Item struct {
	Kind   ItemKind
	Amount int
}

// Stockpile holds a home's resources. Deliveries only ever write Pending.
type Stockpile struct {
	Food    int
	Pending int
}

// Destroy is the deferred removal flag swept between passes.
type Destroy struct {
	Pending bool
}

// Task is the carry task state derived from Target and Carrying.
type Task uint8

const (
	TaskIdle Task = iota
	TaskPursuing
	TaskCarrying
)

// String returns the task name.
func (t Task) String() string {
	switch t {
	case TaskIdle:
		return "idle"
	case TaskPursuing:
		return "pursuing"
	case TaskCarrying:
		return "carrying"
	default:
		return "unknown"
	}
}

// TaskOf derives the task state. Carrying wins over a stale target.
func TaskOf(target *Target, carry *Carrying) Task {
	if carry != nil && carry.Enabled {
		return TaskCarrying
	}
	if target != nil && target.Enabled {
		return TaskPursuing
	}
	return TaskIdle
}
