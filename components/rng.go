package components

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rng is an agent's private random stream. It is seeded once from the
// agent's stable id and evolves only through the agent's own draws.
type Rng struct {
	Src rand.PCG
}

// NewRng returns the stream for the given stable id.
func NewRng(id uint32) Rng {
	x := uint64(id) + 1
	return Rng{Src: *rand.NewPCG(x, splitmix64(x))}
}

// NewRngFromSeed returns a stream for non-agent consumers such as spawners.
func NewRngFromSeed(seed int64, stream uint64) Rng {
	return Rng{Src: *rand.NewPCG(uint64(seed), splitmix64(stream+0x632be59bd9b4e019))}
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Uint64 returns the next raw draw.
func (r *Rng) Uint64() uint64 {
	return r.Src.Uint64()
}

// Float64 returns a uniform value in [0, 1).
func (r *Rng) Float64() float64 {
	return float64(r.Src.Uint64()>>11) / (1 << 53)
}

// Range returns a uniform value in [lo, hi).
func (r *Rng) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Bool returns a fair coin flip.
func (r *Rng) Bool() bool {
	return r.Src.Uint64()>>63 == 1
}

// Sign returns +1 or -1 with equal probability.
func (r *Rng) Sign() float64 {
	if r.Bool() {
		return 1
	}
	return -1
}

// Direction returns a uniformly distributed unit vector.
func (r *Rng) Direction() r2.Vec {
	a := 2 * math.Pi * r.Float64()
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}

// Exp returns an exponential inter-arrival time with the given rate,
// computed as -ln(u)/rate with u clamped away from zero.
func (r *Rng) Exp(rate float64) float64 {
	u := math.Max(1e-6, r.Float64())
	return -math.Log(u) / math.Max(1e-5, rate)
}
