package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/telemetry"
)

// emit appends an event to the event log, if one is open.
func (g *Game) emit(ev telemetry.Event) {
	if err := g.events.Write(ev); err != nil {
		slog.Error("failed to write event", "type", ev.Type, "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	sample, perHome := g.sampleWorld()
	stats := g.collector.Flush(g.tick, sample)
	perfStats := g.perfCollector.Stats()
	homes := g.ledger.Rows(stats.WindowEndTick, perHome)

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logWorldState(homes)
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := g.outputManager.WriteHomes(homes); err != nil {
		slog.Error("failed to write homes", "error", err)
	}

	g.runIndex.RecordWindow(stats)
	for _, h := range homes {
		g.runIndex.RecordHome(h)
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		g.runIndex.RecordBookmark(bm)
	}

	if err := g.events.Flush(); err != nil {
		slog.Error("failed to flush events", "error", err)
	}
}

// sampleWorld measures the population at a window boundary.
// Ring error is only sampled for idle frontier agents, since overrides
// pull agents off their ring on purpose.
func (g *Game) sampleWorld() (telemetry.Sample, map[ecs.Entity]int) {
	s := telemetry.Sample{
		ItemsRemaining: g.itemCount,
		HomeFood:       g.ledger.TotalFood(),
		IndexCells:     g.index.CellCount(),
		Digest:         fmt.Sprintf("%016x", g.digest),
	}
	perHome := make(map[ecs.Entity]int, len(g.ledger.homes))

	query := g.agentFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, mover, wander, _, steer, home := query.Get()
		s.Agents++
		perHome[home.Entity]++

		switch components.TaskOf(g.targetMap.Get(e), g.carryMap.Get(e)) {
		case components.TaskIdle:
			s.Idle++
			if mover.Strategy == components.StrategyFrontier && wander.Initialized() {
				dist := r2.Norm(r2.Sub(pos.XY(), home.Pos))
				s.RingErrors = append(s.RingErrors, math.Abs(dist-wander.PreferredRadius))
			}
		case components.TaskPursuing:
			s.Pursuing++
		case components.TaskCarrying:
			s.Carrying++
		}
		s.SpeedMuls = append(s.SpeedMuls, steer.SpeedMul)
	}
	return s, perHome
}
