package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// OrbitTuning parameterizes the ring-orbit wander strategy.
type OrbitTuning struct {
	TangentialWeight float64
	RadialWeight     float64
	JitterStrength   float64
}

// DefaultOrbitTuning returns the stock orbit weights.
func DefaultOrbitTuning() OrbitTuning {
	return OrbitTuning{TangentialWeight: 0.72, RadialWeight: 0.26, JitterStrength: 0.12}
}

// thinkOrbit keeps the agent circling its home on the leash ring.
// The tangential term continues the current sense of rotation and the radial
// term pulls back onto the ring. Smoothing uses a/(1+a) instead of an exponential.
func (t *Thinker) thinkOrbit(w *components.Wander, rng *components.Rng, m *components.Mover, pos, home r2.Vec, dt float64, out *components.Steering) {
	ot := &t.Orbit

	jitter := r2.Scale(ot.JitterStrength, rng.Direction())

	outward := normalizeSafe(r2.Sub(pos, home), normalizeSafe(w.Dir, unitX))
	leash := math.Max(m.LeashRadius, t.Fallbacks.MinLeash)
	onRing := r2.Add(home, r2.Scale(leash, outward))
	radial := normalizeSafe(r2.Sub(onRing, pos), outward)

	along := r2.Dot(w.Dir, outward)
	tangential := normalizeSafe(r2.Sub(w.Dir, r2.Scale(along, outward)), perp(outward))

	base := r2.Add(r2.Scale(ot.TangentialWeight, tangential), r2.Scale(ot.RadialWeight, radial))
	desired := normalizeSafe(r2.Add(base, jitter), normalizeSafe(base, outward))

	a := math.Max(t.Fallbacks.turnRate(m)*dt, 0)
	w.Dir = normalizeSafe(lerp(w.Dir, desired, a/(1+a)), desired)
	w.SpeedMul = 1

	out.Dir = w.Dir
	out.SpeedMul = 1
}
