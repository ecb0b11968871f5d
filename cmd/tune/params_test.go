package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/hive/config"
	"github.com/pthm-cable/hive/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestApplyToConfigScalesHomes(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	base := cfg.Homes[0].Spawn

	pv := NewParamVector()
	v := pv.DefaultVector()
	v[0] = 2   // home_pull_scale
	v[1] = 0.5 // leash_scale
	v[4] = 99  // homesick_max, clamped
	pv.ApplyToConfig(cfg, v)

	got := cfg.Homes[0].Spawn
	if got.HomePull[0] != base.HomePull[0]*2 || got.HomePull[1] != base.HomePull[1]*2 {
		t.Errorf("home pull = %v, want %v doubled", got.HomePull, base.HomePull)
	}
	if got.LeashRadius[1] != base.LeashRadius[1]*0.5 {
		t.Errorf("leash = %v, want %v halved", got.LeashRadius, base.LeashRadius)
	}
	if cfg.Frontier.Homesick[1] != pv.Specs[4].Max {
		t.Errorf("homesick max = %v, want clamp to %v", cfg.Frontier.Homesick[1], pv.Specs[4].Max)
	}
}

func TestSummarizeSkipsWarmup(t *testing.T) {
	var windows []telemetry.WindowStats
	for i := 1; i <= 5; i++ {
		windows = append(windows, telemetry.WindowStats{
			WindowStartTick: int32((i - 1) * 600),
			WindowEndTick:   int32(i * 600),
			SimTimeSec:      float64(i * 10),
			Agents:          10,
			Delivered:       20,
			RingErrP50:      float64(i),
		})
	}

	r := summarize(windows, 2)
	// Windows 3..5 have medians 3, 4, 5 -> mean 4, relative to leash 2.
	if math.Abs(r.ringErr-2) > 1e-9 {
		t.Errorf("ring err = %v, want 2", r.ringErr)
	}
	// 60 delivered by 10 agents over half a minute.
	if math.Abs(r.rate-12) > 1e-9 {
		t.Errorf("rate = %v, want 12", r.rate)
	}

	if r := summarize(windows[:2], 2); !math.IsNaN(r.ringErr) {
		t.Error("expected NaN for runs shorter than the warmup")
	}
}

func TestComputeFitnessOrdering(t *testing.T) {
	if computeFitness(0.1, 1) >= computeFitness(0.5, 1) {
		t.Error("lower ring error should be fitter")
	}
	if computeFitness(0.1, 2) >= computeFitness(0.1, 1) {
		t.Error("more deliveries should be fitter")
	}
	if !math.IsInf(computeFitness(math.NaN(), 0), 1) {
		t.Error("NaN terms should be unfit")
	}
}
