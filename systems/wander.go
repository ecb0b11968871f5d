package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// FrontierTuning parameterizes the exponential-decision wander strategy.
type FrontierTuning struct {
	DecisionRate float64 // Poisson decision events per second

	PauseProb          float64
	PauseMin, PauseMax float64

	SmallTurnProb                    float64
	SmallTurnMinDeg, SmallTurnMaxDeg float64
	LargeTurnProb                    float64
	LargeTurnMinDeg, LargeTurnMaxDeg float64

	SprintProb                 float64
	SprintMulMin, SprintMulMax float64
	SprintDurMin, SprintDurMax float64

	HomesickMin, HomesickMax                 float64
	HomesickResampleMin, HomesickResampleMax float64

	RadiusReversion              float64
	RadiusSigma                  float64
	InitRadiusMin, InitRadiusMax float64
}

// DefaultFrontierTuning returns the stock frontier constants.
func DefaultFrontierTuning() FrontierTuning {
	return FrontierTuning{
		DecisionRate:        1.2,
		PauseProb:           0.08,
		PauseMin:            0.25,
		PauseMax:            0.6,
		SmallTurnProb:       0.45,
		SmallTurnMinDeg:     6,
		SmallTurnMaxDeg:     20,
		LargeTurnProb:       0.22,
		LargeTurnMinDeg:     60,
		LargeTurnMaxDeg:     140,
		SprintProb:          0.06,
		SprintMulMin:        1.25,
		SprintMulMax:        1.6,
		SprintDurMin:        0.35,
		SprintDurMax:        0.8,
		HomesickMin:         0.10,
		HomesickMax:         0.55,
		HomesickResampleMin: 3,
		HomesickResampleMax: 7,
		RadiusReversion:     0.5,
		RadiusSigma:         0.9,
		InitRadiusMin:       0.8,
		InitRadiusMax:       1.2,
	}
}

// Fallbacks guards wander against malformed spawn parameters.
type Fallbacks struct {
	MinLeash         float64
	FallbackTurnRate float64
}

// DefaultFallbacks returns the stock fallback constants.
func DefaultFallbacks() Fallbacks {
	return Fallbacks{MinLeash: 6, FallbackTurnRate: 6}
}

// turnRate returns m.TurnRate, or the fallback when it is not positive.
func (f Fallbacks) turnRate(m *components.Mover) float64 {
	if m.TurnRate > 0 && !math.IsNaN(m.TurnRate) {
		return m.TurnRate
	}
	return f.FallbackTurnRate
}

// Thinker runs the wander decision process for one agent per call.
// It holds only tuning, so one Thinker is shared across workers.
type Thinker struct {
	Frontier  FrontierTuning
	Orbit     OrbitTuning
	Fallbacks Fallbacks
}

// NewThinker returns a Thinker with the stock tuning.
func NewThinker() *Thinker {
	return &Thinker{
		Frontier:  DefaultFrontierTuning(),
		Orbit:     DefaultOrbitTuning(),
		Fallbacks: DefaultFallbacks(),
	}
}

// Think advances one agent's wander state by dt and writes its steering contribution.
func (t *Thinker) Think(w *components.Wander, rng *components.Rng, m *components.Mover, pos, home r2.Vec, dt float64, out *components.Steering) {
	if !w.Initialized() {
		t.initWander(w, rng, m)
	}
	switch m.Strategy {
	case components.StrategyOrbit:
		t.thinkOrbit(w, rng, m, pos, home, dt, out)
	default:
		t.thinkFrontier(w, rng, m, pos, home, dt, out)
	}
}

func (t *Thinker) initWander(w *components.Wander, rng *components.Rng, m *components.Mover) {
	ft := &t.Frontier
	w.Dir = rng.Direction()
	w.JitterVec = r2.Scale(m.JitterStrength, rng.Direction())
	w.JitterTimer = rng.Range(m.MinJitterPeriod, m.MaxJitterPeriod)
	w.PreferredRadius = t.leash(m) * rng.Range(ft.InitRadiusMin, ft.InitRadiusMax)
	w.SpeedMul = 1
	w.Homesick = rng.Range(ft.HomesickMin, ft.HomesickMax)
	w.HomesickTimer = rng.Range(ft.HomesickResampleMin, ft.HomesickResampleMax)
	w.DecisionTimer = rng.Exp(ft.DecisionRate)
}

// leash returns the leash radius, or the fallback when it is not positive.
func (t *Thinker) leash(m *components.Mover) float64 {
	if m.LeashRadius > 0 && !math.IsNaN(m.LeashRadius) {
		return m.LeashRadius
	}
	return t.Fallbacks.MinLeash
}

func (t *Thinker) thinkFrontier(w *components.Wander, rng *components.Rng, m *components.Mover, pos, home r2.Vec, dt float64, out *components.Steering) {
	ft := &t.Frontier

	w.JitterTimer -= dt
	if w.JitterTimer <= 0 {
		w.JitterVec = r2.Scale(m.JitterStrength, rng.Direction())
		w.JitterTimer = rng.Range(m.MinJitterPeriod, m.MaxJitterPeriod)
	}

	leash := t.leash(m)
	noise := rng.Range(-1, 1) * ft.RadiusSigma
	w.PreferredRadius += ft.RadiusReversion*(leash-w.PreferredRadius)*dt + noise*math.Sqrt(math.Max(dt, 0))
	if w.PreferredRadius < 0 {
		w.PreferredRadius = 0
	}

	w.HomesickTimer -= dt
	if w.HomesickTimer <= 0 {
		w.Homesick = rng.Range(ft.HomesickMin, ft.HomesickMax)
		w.HomesickTimer = rng.Range(ft.HomesickResampleMin, ft.HomesickResampleMax)
	}

	w.DecisionTimer -= dt
	if w.DecisionTimer <= 0 {
		t.decide(w, rng)
	}

	fromHome := r2.Sub(pos, home)
	dist := r2.Norm(fromHome)
	outward := normalizeSafe(fromHome, r2.Vec{})
	radiusErr := dist - w.PreferredRadius
	ringBias := r2.Scale(-radiusErr*m.HomePull*w.Homesick, outward)

	desired := normalizeSafe(r2.Add(r2.Add(w.Dir, w.JitterVec), ringBias), w.Dir)
	turnLerp := 1 - math.Exp(-t.Fallbacks.turnRate(m)*dt)
	w.Dir = normalizeSafe(lerp(w.Dir, desired, turnLerp), desired)

	out.Dir = w.Dir
	out.SpeedMul = w.SpeedMul
}

// decide rolls one decision event and schedules the next.
func (t *Thinker) decide(w *components.Wander, rng *components.Rng) {
	ft := &t.Frontier

	if rng.Float64() < ft.PauseProb {
		w.SpeedMul = 0
		w.DecisionTimer = rng.Range(ft.PauseMin, ft.PauseMax)
		return
	}

	w.SpeedMul = 1
	roll := rng.Float64()
	switch {
	case roll < ft.SmallTurnProb:
		w.Dir = rotateDeg(w.Dir, rng.Sign()*rng.Range(ft.SmallTurnMinDeg, ft.SmallTurnMaxDeg))
	case roll < ft.SmallTurnProb+ft.LargeTurnProb:
		w.Dir = rotateDeg(w.Dir, rng.Sign()*rng.Range(ft.LargeTurnMinDeg, ft.LargeTurnMaxDeg))
	}

	if rng.Float64() < ft.SprintProb {
		w.SpeedMul = rng.Range(ft.SprintMulMin, ft.SprintMulMax)
		w.DecisionTimer = rng.Range(ft.SprintDurMin, ft.SprintDurMax)
		return
	}
	w.DecisionTimer = rng.Exp(ft.DecisionRate)
}
