package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

func TestSelectOverridePriority(t *testing.T) {
	home := components.Home{Pos: r2.Vec{X: 1}}
	target := components.Target{Enabled: true, Pos: r2.Vec{X: 2}}
	carry := components.Carrying{Enabled: true, Amount: 1}
	wp := components.Waypoint{Active: true, Pos: r2.Vec{X: 3}}

	tests := []struct {
		name   string
		target components.Target
		carry  components.Carrying
		wp     components.Waypoint
		want   Override
		point  r2.Vec
	}{
		{"all", target, carry, wp, OverrideHome, home.Pos},
		{"target and waypoint", target, components.Carrying{}, wp, OverrideTarget, target.Pos},
		{"waypoint", components.Target{}, components.Carrying{}, wp, OverrideWaypoint, wp.Pos},
		{"none", components.Target{}, components.Carrying{}, components.Waypoint{}, OverrideNone, r2.Vec{}},
	}
	for _, tt := range tests {
		got, point := SelectOverride(&home, &tt.target, &tt.carry, &tt.wp)
		if got != tt.want || point != tt.point {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tt.name, got, point, tt.want, tt.point)
		}
	}
}

func TestStepWanderIntegratesXYOnly(t *testing.T) {
	s := NewSteeringComposer(0.01)
	pos := components.Position{X: 1, Y: 1, Z: 42}
	steer := components.Steering{Dir: r2.Vec{Y: 1}, SpeedMul: 1.5}
	m := components.Mover{Speed: 2}

	over := s.Step(&pos, &steer, &m, &components.Home{}, &components.Target{}, &components.Carrying{}, &components.Waypoint{}, 0.5)
	if over != OverrideNone {
		t.Errorf("override = %s, want none", over)
	}
	if pos.X != 1 || math.Abs(pos.Y-2.5) > 1e-12 || pos.Z != 42 {
		t.Errorf("pos = %+v, want (1, 2.5, 42)", pos)
	}

	steer.SpeedMul = -1
	s.Step(&pos, &steer, &m, &components.Home{}, &components.Target{}, &components.Carrying{}, &components.Waypoint{}, 0.5)
	if math.Abs(pos.Y-2.5) > 1e-12 {
		t.Errorf("negative speedMul moved agent to %+v", pos)
	}
}

func TestStepOverrideForcesSpeedAndClamps(t *testing.T) {
	s := NewSteeringComposer(0.01)
	pos := components.Position{}
	// Paused wander must not stall a pursuit.
	steer := components.Steering{Dir: r2.Vec{X: -1}, SpeedMul: 0}
	m := components.Mover{Speed: 1}
	target := components.Target{Enabled: true, Pos: r2.Vec{X: 3, Y: 4}}

	s.Step(&pos, &steer, &m, &components.Home{}, &target, &components.Carrying{}, &components.Waypoint{}, 1)
	if d := r2.Norm(r2.Sub(target.Pos, pos.XY())); math.Abs(d-4) > 1e-9 {
		t.Errorf("distance after one step = %f, want 4", d)
	}
	if steer.SpeedMul != 1 {
		t.Errorf("speedMul after override = %f, want 1", steer.SpeedMul)
	}

	for i := 0; i < 10; i++ {
		s.Step(&pos, &steer, &m, &components.Home{}, &target, &components.Carrying{}, &components.Waypoint{}, 1)
	}
	if r2.Norm(r2.Sub(pos.XY(), target.Pos)) > 1e-9 {
		t.Errorf("agent at %v did not land on target %v", pos.XY(), target.Pos)
	}
	if steer.Dir != (r2.Vec{X: -1}) {
		t.Error("override modified the persisted wander contribution")
	}
}

func TestStepOverrideKeepsSprint(t *testing.T) {
	s := NewSteeringComposer(0.01)
	pos := components.Position{}
	steer := components.Steering{SpeedMul: 1.8}
	m := components.Mover{Speed: 1}
	home := components.Home{Pos: r2.Vec{X: 10}}
	carry := components.Carrying{Enabled: true, Amount: 1}

	s.Step(&pos, &steer, &m, &home, &components.Target{}, &carry, &components.Waypoint{}, 1)
	if steer.SpeedMul != 1.8 {
		t.Errorf("speedMul = %f, want sprint 1.8 kept", steer.SpeedMul)
	}
	if math.Abs(pos.X-1.8) > 1e-9 {
		t.Errorf("pos.X = %f, want 1.8", pos.X)
	}
}

func TestStepWaypointDeactivates(t *testing.T) {
	s := NewSteeringComposer(0.01)
	pos := components.Position{}
	steer := components.Steering{Dir: unitX, SpeedMul: 1}
	m := components.Mover{Speed: 2}
	wp := components.Waypoint{Active: true, Pos: r2.Vec{Y: 1}}

	for i := 0; i < 10 && wp.Active; i++ {
		if over := s.Step(&pos, &steer, &m, &components.Home{}, &components.Target{}, &components.Carrying{}, &wp, 0.1); over != OverrideWaypoint {
			t.Fatalf("step %d: override = %s, want waypoint", i, over)
		}
	}
	if wp.Active {
		t.Fatalf("waypoint still active at %v", pos.XY())
	}
	if r2.Norm(r2.Sub(pos.XY(), wp.Pos)) > 0.01 {
		t.Errorf("waypoint cleared at %v, too far from %v", pos.XY(), wp.Pos)
	}
}
