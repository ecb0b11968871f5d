package game

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/telemetry"
)

// testConfig loads the defaults and scales them down for tests.
func testConfig(t *testing.T, agentsPerHome, items int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Items.Count = items
	for i := range cfg.Homes {
		cfg.Homes[i].Spawn.Amount = agentsPerHome
	}
	return cfg
}

// singleHomeConfig has one empty home at the origin and no scattered items.
func singleHomeConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t, 0, 0)
	cfg.Homes = []config.HomeConfig{{Name: "home", Layer: 3}}
	return cfg
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(func() {
		if err := g.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return g
}

func testSpec(x, y float64) AgentSpec {
	return AgentSpec{
		Pos: r2.Vec{X: x, Y: y},
		Mover: components.Mover{
			Speed:           2,
			TurnRate:        6,
			LeashRadius:     10,
			HomePull:        2,
			JitterStrength:  0.2,
			MinJitterPeriod: 0.5,
			MaxJitterPeriod: 1,
		},
		Sight: components.Sight{Range: 5, Mask: 2},
	}
}

func mustSpawn(t *testing.T, g *Game, spec AgentSpec) {
	t.Helper()
	if _, err := g.SpawnAgent(spec); err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}
}

func TestDeterministicAcrossRunsAndWorkers(t *testing.T) {
	run := func(workers int) ([]uint64, map[string]int) {
		g := newTestGame(t, Options{Seed: 7, Config: testConfig(t, 150, 120), Workers: workers})
		digests := make([]uint64, 0, 300)
		for i := 0; i < 300; i++ {
			g.Step()
			digests = append(digests, g.Digest())
		}
		return digests, g.HomeTotals()
	}

	a, totalsA := run(1)
	b, totalsB := run(4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest diverged at tick %d: %x vs %x", i+1, a[i], b[i])
		}
	}
	for name, food := range totalsA {
		if totalsB[name] != food {
			t.Errorf("home %s food = %d vs %d", name, food, totalsB[name])
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	g1 := newTestGame(t, Options{Seed: 1, Config: testConfig(t, 50, 0)})
	g2 := newTestGame(t, Options{Seed: 2, Config: testConfig(t, 50, 0)})
	g1.Step()
	g2.Step()
	if g1.Digest() == g2.Digest() {
		t.Error("different seeds produced identical positions")
	}
}

func TestTaskCycleCreditsHome(t *testing.T) {
	g := newTestGame(t, Options{Config: singleHomeConfig(t)})
	mustSpawn(t, g, testSpec(0, 0))
	g.SpawnItem(r2.Vec{X: 3, Y: 0}, components.Item{Kind: components.ItemFood, Amount: 4}, 2)

	g.Step()
	st, _ := g.Inspect(0)
	if st.Task != components.TaskPursuing {
		t.Fatalf("task after first tick = %v, want pursuing", st.Task)
	}

	sawCarrying := false
	for i := 0; i < 600 && g.HomeTotals()["home"] == 0; i++ {
		g.Step()
		if st, _ := g.Inspect(0); st.Task == components.TaskCarrying {
			sawCarrying = true
			if g.ItemCount() != 0 {
				t.Fatalf("consumed item still present: %d", g.ItemCount())
			}
		}
	}

	if !sawCarrying {
		t.Error("agent never carried the item")
	}
	if got := g.HomeTotals()["home"]; got != 4 {
		t.Fatalf("home food = %d, want 4", got)
	}
	st, _ = g.Inspect(0)
	if st.Task != components.TaskIdle || st.Carrying.Enabled {
		t.Errorf("agent not idle after delivery: %+v", st)
	}
	c := g.collector.Counts()
	if c.Pickups != 1 || c.Deliveries != 1 || c.Delivered != 4 {
		t.Errorf("counters = %+v", c)
	}
}

func TestContestedItemGoesToLowestID(t *testing.T) {
	g := newTestGame(t, Options{Config: singleHomeConfig(t)})
	mustSpawn(t, g, testSpec(1, 0))
	mustSpawn(t, g, testSpec(1, 0))
	g.SpawnItem(r2.Vec{X: 1, Y: 0}, components.Item{Kind: components.ItemFood, Amount: 2}, 2)

	g.Step()

	first, _ := g.Inspect(0)
	second, _ := g.Inspect(1)
	if first.Task != components.TaskCarrying || first.Carrying.Amount != 2 {
		t.Errorf("agent 0 = %+v, want carrying 2", first)
	}
	if second.Task != components.TaskIdle {
		t.Errorf("agent 1 task = %v, want idle", second.Task)
	}
	c := g.collector.Counts()
	if c.Pickups != 1 || c.EmptyVisits != 1 {
		t.Errorf("pickups=%d empty=%d, want 1 and 1", c.Pickups, c.EmptyVisits)
	}
	if g.ItemCount() != 0 {
		t.Errorf("item not swept: %d left", g.ItemCount())
	}
}

func TestDestroyedHomeDropsPayload(t *testing.T) {
	g := newTestGame(t, Options{Config: singleHomeConfig(t)})
	e, err := g.SpawnAgent(testSpec(0.5, 0))
	if err != nil {
		t.Fatal(err)
	}
	*g.carryMap.Get(e) = components.Carrying{Enabled: true, Kind: components.ItemFood, Amount: 3}

	g.DestroyHome("home")
	for i := 0; i < 60; i++ {
		g.Step()
	}

	st, _ := g.Inspect(0)
	if st.Carrying.Enabled {
		t.Fatal("payload not dropped")
	}
	if got := g.HomeTotals()["home"]; got != 0 {
		t.Errorf("destroyed home credited %d", got)
	}
	if c := g.collector.Counts(); c.DroppedDeliveries != 1 || c.Deliveries != 0 {
		t.Errorf("counters = %+v", c)
	}
}

func TestWaypointCommand(t *testing.T) {
	events := filepath.Join(t.TempDir(), "events.jsonl.zst")
	g, err := NewGameWithOptions(Options{Config: singleHomeConfig(t), EventsPath: events})
	if err != nil {
		t.Fatal(err)
	}
	mustSpawn(t, g, testSpec(0, 0))

	g.SetWaypoint(0, r2.Vec{X: 2, Y: 0})
	g.Step()
	if st, _ := g.Inspect(0); !st.Waypoint.Active {
		t.Fatal("waypoint not applied")
	}
	for i := 0; i < 90; i++ {
		g.Step()
	}
	if st, _ := g.Inspect(0); st.Waypoint.Active {
		t.Fatal("waypoint still active after arrival")
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := telemetry.ReadEventLog(events)
	if err != nil {
		t.Fatal(err)
	}
	var reached *telemetry.Event
	for i := range got {
		if got[i].Type == telemetry.EventWaypoint {
			reached = &got[i]
		}
	}
	if reached == nil {
		t.Fatal("no waypoint event logged")
	}
	if math.Hypot(reached.X-2, reached.Y) > 0.01 {
		t.Errorf("waypoint reached at (%v, %v), want (2, 0)", reached.X, reached.Y)
	}
}

func TestDestroyAgent(t *testing.T) {
	g := newTestGame(t, Options{Config: singleHomeConfig(t)})
	mustSpawn(t, g, testSpec(0, 0))
	mustSpawn(t, g, testSpec(1, 1))

	g.DestroyAgent(1)
	g.Step()

	if g.AgentCount() != 1 {
		t.Errorf("agent count = %d, want 1", g.AgentCount())
	}
	if _, ok := g.Inspect(1); ok {
		t.Error("destroyed agent still inspectable")
	}
	if ids := g.AgentIDs(); len(ids) != 1 || ids[0] != 0 {
		t.Errorf("ids = %v, want [0]", ids)
	}
	g.Step()
}

func TestSpawnAgentRejectsUnknownHome(t *testing.T) {
	g := newTestGame(t, Options{Config: singleHomeConfig(t)})
	spec := testSpec(0, 0)
	spec.HomeIndex = 3
	if _, err := g.SpawnAgent(spec); err == nil {
		t.Error("expected error for missing home")
	}
}

func TestStatsWindowsReachSinks(t *testing.T) {
	dir := t.TempDir()
	var windows []telemetry.WindowStats
	g := newTestGame(t, Options{
		Seed:           3,
		Config:         testConfig(t, 40, 60),
		StatsWindowSec: 0.5,
		OutputDir:      dir,
		IndexPath:      filepath.Join(dir, "run.db"),
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	ticks := int(2 * g.collector.WindowTicks())
	for i := 0; i < ticks; i++ {
		g.Step()
	}

	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	w := windows[1]
	if w.Agents != 80 || w.Idle+w.Pursuing+w.Carrying != w.Agents {
		t.Errorf("population = %d (%d/%d/%d)", w.Agents, w.Idle, w.Pursuing, w.Carrying)
	}
	if w.Thinks == 0 {
		t.Error("no thinks recorded")
	}
	if w.Digest == "" {
		t.Error("missing digest")
	}
}
