package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// Override identifies which task, if any, replaced the wander contribution.
type Override uint8

const (
	OverrideNone Override = iota
	OverrideHome
	OverrideTarget
	OverrideWaypoint
)

// String returns the override name.
func (o Override) String() string {
	switch o {
	case OverrideNone:
		return "none"
	case OverrideHome:
		return "home"
	case OverrideTarget:
		return "target"
	case OverrideWaypoint:
		return "waypoint"
	default:
		return "unknown"
	}
}

// SteeringComposer merges wander and task contributions and integrates motion.
type SteeringComposer struct {
	WaypointEpsilon float64
}

// NewSteeringComposer returns a composer with the given waypoint arrival distance.
func NewSteeringComposer(waypointEpsilon float64) *SteeringComposer {
	return &SteeringComposer{WaypointEpsilon: waypointEpsilon}
}

// SelectOverride picks the active override point. Carrying beats a target,
// a target beats a manual waypoint.
func SelectOverride(home *components.Home, target *components.Target, carry *components.Carrying, wp *components.Waypoint) (Override, r2.Vec) {
	switch {
	case carry != nil && carry.Enabled:
		return OverrideHome, home.Pos
	case target != nil && target.Enabled:
		return OverrideTarget, target.Pos
	case wp != nil && wp.Active:
		return OverrideWaypoint, wp.Pos
	}
	return OverrideNone, r2.Vec{}
}

// Step moves one agent for dt and returns the override that drove it.
// Only X and Y of pos are written.
func (s *SteeringComposer) Step(pos *components.Position, steer *components.Steering, m *components.Mover, home *components.Home, target *components.Target, carry *components.Carrying, wp *components.Waypoint, dt float64) Override {
	xy := pos.XY()
	over, point := SelectOverride(home, target, carry, wp)

	if over == OverrideNone {
		step := m.Speed * math.Max(0, steer.SpeedMul) * dt
		pos.SetXY(r2.Add(xy, r2.Scale(step, steer.Dir)))
		return over
	}

	toPoint := r2.Sub(point, xy)
	dist := r2.Norm(toPoint)
	dir := normalizeSafe(toPoint, r2.Vec{})
	steer.SpeedMul = math.Max(steer.SpeedMul, 1)
	step := m.Speed * steer.SpeedMul * dt
	if step > dist {
		step = dist
	}
	xy = r2.Add(xy, r2.Scale(step, dir))
	pos.SetXY(xy)

	if over == OverrideWaypoint && r2.Norm(r2.Sub(point, xy)) <= s.WaypointEpsilon {
		wp.Active = false
	}
	return over
}
