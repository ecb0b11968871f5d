package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/game"
	"github.com/pthm-cable/hive/telemetry"
)

// Fitness component weights.
const (
	weightRingErr   = 1.0
	weightDelivered = 4.0

	warmupWindows = 2 // skip first N windows while agents settle onto their rings
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params        *ParamVector
	configPath    string
	maxTicks      int32
	seeds         []int64
	agentsPerHome int
	statsWindow   float64

	mu          sync.Mutex
	lastRingErr float64
	lastRate    float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, configPath string, maxTicks int32, seeds []int64, agentsPerHome int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:        params,
		configPath:    configPath,
		maxTicks:      maxTicks,
		seeds:         seeds,
		agentsPerHome: agentsPerHome,
		statsWindow:   5.0,
	}
}

// Last returns the ring error and delivery rate from the most recent evaluation.
func (fe *FitnessEvaluator) Last() (ringErr, rate float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRingErr, fe.lastRate
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	ringErr float64 // mean window median ring error, relative to leash
	rate    float64 // delivered amount per agent per sim-minute
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	ringErrs := make([]float64, len(results))
	rates := make([]float64, len(results))
	for i, r := range results {
		ringErrs[i] = r.ringErr
		rates[i] = r.rate
	}
	ringErr := stat.Mean(ringErrs, nil)
	rate := stat.Mean(rates, nil)

	fe.mu.Lock()
	fe.lastRingErr = ringErr
	fe.lastRate = rate
	fe.mu.Unlock()

	return computeFitness(ringErr, rate)
}

// computeFitness trades ring keeping against foraging throughput.
func computeFitness(ringErr, rate float64) float64 {
	if math.IsNaN(ringErr) || math.IsNaN(rate) {
		return math.Inf(1)
	}
	return weightRingErr*ringErr - weightDelivered*rate
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) seedResult {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return seedResult{ringErr: math.NaN(), rate: math.NaN()}
	}
	fe.params.ApplyToConfig(cfg, x)
	if fe.agentsPerHome > 0 {
		for i := range cfg.Homes {
			cfg.Homes[i].Spawn.Amount = fe.agentsPerHome
		}
	}

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Config:         cfg,
		Workers:        1,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return seedResult{ringErr: math.NaN(), rate: math.NaN()}
	}
	defer g.Close()

	for g.Tick() < fe.maxTicks {
		g.Step()
	}

	return summarize(windows, meanLeash(cfg))
}

// summarize reduces window stats to the two fitness terms.
func summarize(windows []telemetry.WindowStats, leash float64) seedResult {
	if len(windows) <= warmupWindows {
		return seedResult{ringErr: math.NaN(), rate: math.NaN()}
	}
	valid := windows[warmupWindows:]

	medians := make([]float64, 0, len(valid))
	delivered := make([]float64, 0, len(valid))
	var agents, minutes float64
	for _, w := range valid {
		medians = append(medians, w.RingErrP50)
		delivered = append(delivered, float64(w.Delivered))
		agents = float64(w.Agents)
		minutes += windowMinutes(w)
	}

	r := seedResult{ringErr: stat.Mean(medians, nil)}
	if leash > 0 {
		r.ringErr /= leash
	}
	if agents > 0 && minutes > 0 {
		r.rate = floats.Sum(delivered) / agents / minutes
	}
	return r
}

// windowMinutes returns the simulated length of a window.
func windowMinutes(w telemetry.WindowStats) float64 {
	if w.WindowEndTick <= 0 {
		return 0
	}
	dt := w.SimTimeSec / float64(w.WindowEndTick)
	return float64(w.WindowEndTick-w.WindowStartTick) * dt / 60
}

// meanLeash returns the mean configured leash radius across homes.
func meanLeash(cfg *config.Config) float64 {
	if len(cfg.Homes) == 0 {
		return 0
	}
	mids := make([]float64, len(cfg.Homes))
	for i, h := range cfg.Homes {
		mids[i] = (h.Spawn.LeashRadius.Min() + h.Spawn.LeashRadius.Max()) / 2
	}
	return stat.Mean(mids, nil)
}
