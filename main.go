package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	eventsPath := flag.String("events", "", "Write pickup/delivery events to this zstd JSONL file")
	indexPath := flag.String("index-db", "", "Write window and home totals to this SQLite file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Worker goroutines per pass (0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Sim.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.NewGameWithOptions(game.Options{
		Seed:           rngSeed,
		Workers:        *workers,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		EventsPath:     *eventsPath,
		IndexPath:      *indexPath,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"agents", g.AgentCount(),
		"items", g.ItemCount(),
		"max_ticks", *maxTicks,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	for ctx.Err() == nil && (*maxTicks <= 0 || int(g.Tick()) < *maxTicks) {
		g.Step()
	}

	slog.Info("simulation stopped",
		"tick", g.Tick(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"digest", g.Digest(),
		"homes", g.HomeTotals(),
	)

	if err := g.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
		os.Exit(1)
	}
}
