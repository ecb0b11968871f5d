// Package game wires the simulation passes into a fixed-order tick loop.
package game

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/systems"
	"github.com/pthm-cable/hive/telemetry"
)

// agentView caches component pointers for one agent during a tick.
// Pointers are refreshed every tick after structural changes are applied.
type agentView struct {
	entity ecs.Entity
	id     uint32
	bucket uint8
	sight  components.Sight

	pos    *components.Position
	mover  *components.Mover
	wander *components.Wander
	rng    *components.Rng
	steer  *components.Steering
	home   *components.Home
	target *components.Target
	carry  *components.Carrying
	wp     *components.Waypoint

	intent  systems.CarryIntent
	reached bool // manual waypoint reached this tick
}

// indexEntry is one positioned entity queued for the spatial index.
type indexEntry struct {
	entity ecs.Entity
	cell   systems.Cell
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	seed  int64
	world *ecs.World

	// Agents are created with the first mapper and completed with the second.
	agentMapper *ecs.Map7[
		components.Position,
		components.AgentID,
		components.Mover,
		components.Wander,
		components.Rng,
		components.Steering,
		components.Home,
	]
	agentExtras *ecs.Map7[
		components.ThinkBucket,
		components.Sight,
		components.Target,
		components.Carrying,
		components.Waypoint,
		components.Layer,
		components.Destroy,
	]
	agentFilter *ecs.Filter7[
		components.Position,
		components.AgentID,
		components.Mover,
		components.Wander,
		components.Rng,
		components.Steering,
		components.Home,
	]
	itemMapper *ecs.Map4[components.Position, components.Layer, components.Item, components.Destroy]
	homeMapper *ecs.Map4[components.Position, components.Layer, components.Stockpile, components.Destroy]

	posFilter     *ecs.Filter1[components.Position]
	destroyFilter *ecs.Filter1[components.Destroy]

	// Individual component mappers for lookups
	posMap     *ecs.Map[components.Position]
	layerMap   *ecs.Map[components.Layer]
	idMap      *ecs.Map[components.AgentID]
	bucketMap  *ecs.Map[components.ThinkBucket]
	sightMap   *ecs.Map[components.Sight]
	targetMap  *ecs.Map[components.Target]
	carryMap   *ecs.Map[components.Carrying]
	wpMap      *ecs.Map[components.Waypoint]
	itemMap    *ecs.Map[components.Item]
	destroyMap *ecs.Map[components.Destroy]
	stockMap   *ecs.Map[components.Stockpile]

	// Passes
	index     *systems.SpatialIndex
	detector  *systems.Detector
	scheduler *systems.ThinkScheduler
	thinker   *systems.Thinker
	composer  *systems.SteeringComposer
	tasks     *systems.CarryTaskMachine
	ledger    *HomeLedger
	items     *itemStore
	pool      *parallelState

	// Per-tick scratch
	agents     []agentView
	positioned []indexEntry
	doomed     []ecs.Entity

	// Command buffer, applied at the start of each tick
	cmdMu    sync.Mutex
	commands []command

	// State
	tick      int32
	nextID    uint32
	byID      map[uint32]ecs.Entity
	itemCount int
	digest    uint64

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	events           *telemetry.EventLog
	runIndex         *telemetry.RunIndex
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// NewGameWithOptions creates a simulation, spawns homes, agents and items,
// and opens the configured telemetry sinks.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Sim.Seed
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:   cfg,
		seed:  seed,
		world: world,
		agentMapper: ecs.NewMap7[
			components.Position,
			components.AgentID,
			components.Mover,
			components.Wander,
			components.Rng,
			components.Steering,
			components.Home,
		](world),
		agentExtras: ecs.NewMap7[
			components.ThinkBucket,
			components.Sight,
			components.Target,
			components.Carrying,
			components.Waypoint,
			components.Layer,
			components.Destroy,
		](world),
		agentFilter: ecs.NewFilter7[
			components.Position,
			components.AgentID,
			components.Mover,
			components.Wander,
			components.Rng,
			components.Steering,
			components.Home,
		](world),
		itemMapper:    ecs.NewMap4[components.Position, components.Layer, components.Item, components.Destroy](world),
		homeMapper:    ecs.NewMap4[components.Position, components.Layer, components.Stockpile, components.Destroy](world),
		posFilter:     ecs.NewFilter1[components.Position](world),
		destroyFilter: ecs.NewFilter1[components.Destroy](world),
		posMap:        ecs.NewMap[components.Position](world),
		layerMap:      ecs.NewMap[components.Layer](world),
		idMap:         ecs.NewMap[components.AgentID](world),
		bucketMap:     ecs.NewMap[components.ThinkBucket](world),
		sightMap:      ecs.NewMap[components.Sight](world),
		targetMap:     ecs.NewMap[components.Target](world),
		carryMap:      ecs.NewMap[components.Carrying](world),
		wpMap:         ecs.NewMap[components.Waypoint](world),
		itemMap:       ecs.NewMap[components.Item](world),
		destroyMap:    ecs.NewMap[components.Destroy](world),
		stockMap:      ecs.NewMap[components.Stockpile](world),
		byID:          make(map[uint32]ecs.Entity),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	g.index = systems.NewSpatialIndex()
	g.detector = &systems.Detector{World: world, Index: g.index, Pos: g.posMap, Layers: g.layerMap}
	g.scheduler = systems.NewThinkScheduler(cfg.Think.Buckets)
	g.scheduler.Accumulate = cfg.Think.AccumulateDT
	g.thinker = thinkerFromConfig(cfg)
	g.composer = systems.NewSteeringComposer(cfg.Task.WaypointEpsilon)
	g.tasks = systems.NewCarryTaskMachine(cfg.Task.PickupEpsilon, cfg.Task.DeliverEpsilon)
	g.ledger = newHomeLedger(world, g.stockMap, g.destroyMap)
	g.items = &itemStore{
		world:   world,
		items:   g.itemMap,
		destroy: g.destroyMap,
		consume: cfg.Items.ConsumeOnPickup,
	}
	g.pool = newParallelState(opts.Workers)

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Sim.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	if err := g.openSinks(opts); err != nil {
		g.Close()
		return nil, err
	}

	if err := g.spawnHomes(); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.scatterItems(); err != nil {
		g.Close()
		return nil, err
	}

	g.runIndex.RecordMeta("seed", strconv.FormatInt(seed, 10))
	g.runIndex.RecordMeta("dt", strconv.FormatFloat(cfg.Sim.DT, 'g', -1, 64))
	g.runIndex.RecordMeta("agents", strconv.Itoa(len(g.byID)))
	g.runIndex.RecordMeta("items", strconv.Itoa(g.itemCount))

	return g, nil
}

// openSinks opens the optional CSV, event log and run index outputs.
func (g *Game) openSinks(opts Options) error {
	var err error
	if g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return err
	}
	if err := g.outputManager.WriteConfig(g.cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}
	if g.events, err = telemetry.OpenEventLog(opts.EventsPath); err != nil {
		return err
	}
	if g.runIndex, err = telemetry.OpenRunIndex(opts.IndexPath); err != nil {
		return err
	}
	return nil
}

// config returns the configuration this game was built with.
func (g *Game) config() *config.Config {
	return g.cfg
}

// Step runs a single tick with the configured dt.
func (g *Game) Step() {
	g.StepDT(g.cfg.Sim.DT)
}

// StepDT runs a single tick. Passes run in a fixed order and each one
// completes before the next starts.
func (g *Game) StepDT(dt float64) {
	perf := g.perfCollector
	perf.StartTick()

	perf.StartPhase(telemetry.PhaseCommands)
	g.applyCommands()
	g.gatherAgents()

	perf.StartPhase(telemetry.PhaseIndex)
	g.rebuildIndex()

	perf.StartPhase(telemetry.PhaseDetection)
	g.updateDetection()

	perf.StartPhase(telemetry.PhaseThink)
	g.updateThink(dt)

	perf.StartPhase(telemetry.PhaseTargets)
	g.refreshTargets()

	perf.StartPhase(telemetry.PhaseSteering)
	g.updateSteering(dt)

	perf.StartPhase(telemetry.PhaseTasks)
	g.updateTasks()
	g.digest = g.positionDigest()

	perf.StartPhase(telemetry.PhaseHomes)
	g.ledger.Fold()

	perf.StartPhase(telemetry.PhaseCleanup)
	g.sweepDestroyed()

	g.tick++

	perf.StartPhase(telemetry.PhaseTelemetry)
	g.collector.Record(g.pool.drainCounts())
	g.flushTelemetry()

	perf.EndTick()
}

// positionDigest hashes every agent position in id order.
func (g *Game) positionDigest() uint64 {
	h := fnv.New64a()
	var buf [16]byte
	for i := range g.agents {
		p := g.agents[i].pos
		putFloat(buf[0:8], p.X)
		putFloat(buf[8:16], p.Y)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Close stops the worker pool and flushes every telemetry sink.
func (g *Game) Close() error {
	g.pool.stopWorkers()
	return errors.Join(
		g.events.Close(),
		g.runIndex.Close(),
		g.outputManager.Close(),
	)
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Seed returns the seed the world was generated from.
func (g *Game) Seed() int64 {
	return g.seed
}

// Digest returns the position digest of the last completed tick.
func (g *Game) Digest() uint64 {
	return g.digest
}

// AgentCount returns the number of live agents.
func (g *Game) AgentCount() int {
	return len(g.byID)
}

// ItemCount returns the number of items not yet swept.
func (g *Game) ItemCount() int {
	return g.itemCount
}

// HomeTotals returns the folded food total per home.
func (g *Game) HomeTotals() map[string]int {
	return g.ledger.Totals()
}
