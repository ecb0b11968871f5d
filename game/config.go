package game

import (
	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/systems"
	"github.com/pthm-cable/hive/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Seed           int64
	Config         *config.Config // nil = config.Cfg()
	Workers        int            // 0 = GOMAXPROCS
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // CSV logs and config snapshot; empty disables
	EventsPath     string  // zstd JSONL event log; empty disables
	IndexPath      string  // SQLite run index; empty disables
	StatsCallback  func(telemetry.WindowStats)
}

// thinkerFromConfig builds the wander tuning from the loaded config.
func thinkerFromConfig(cfg *config.Config) *systems.Thinker {
	f := &cfg.Frontier
	return &systems.Thinker{
		Frontier: systems.FrontierTuning{
			DecisionRate:        f.DecisionRate,
			PauseProb:           f.PauseProb,
			PauseMin:            f.Pause.Min(),
			PauseMax:            f.Pause.Max(),
			SmallTurnProb:       f.SmallTurnProb,
			SmallTurnMinDeg:     f.SmallTurnDeg.Min(),
			SmallTurnMaxDeg:     f.SmallTurnDeg.Max(),
			LargeTurnProb:       f.LargeTurnProb,
			LargeTurnMinDeg:     f.LargeTurnDeg.Min(),
			LargeTurnMaxDeg:     f.LargeTurnDeg.Max(),
			SprintProb:          f.SprintProb,
			SprintMulMin:        f.SprintMul.Min(),
			SprintMulMax:        f.SprintMul.Max(),
			SprintDurMin:        f.SprintDuration.Min(),
			SprintDurMax:        f.SprintDuration.Max(),
			HomesickMin:         f.Homesick.Min(),
			HomesickMax:         f.Homesick.Max(),
			HomesickResampleMin: f.HomesickResample.Min(),
			HomesickResampleMax: f.HomesickResample.Max(),
			RadiusReversion:     f.RadiusReversion,
			RadiusSigma:         f.RadiusSigma,
			InitRadiusMin:       f.InitialRadiusSpan.Min(),
			InitRadiusMax:       f.InitialRadiusSpan.Max(),
		},
		Orbit: systems.OrbitTuning{
			TangentialWeight: cfg.Orbit.TangentialWeight,
			RadialWeight:     cfg.Orbit.RadialWeight,
			JitterStrength:   cfg.Orbit.JitterStrength,
		},
		Fallbacks: systems.Fallbacks{
			MinLeash:         cfg.Task.MinLeash,
			FallbackTurnRate: cfg.Task.FallbackTurnRate,
		},
	}
}
