package systems

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ThinkScheduler spreads think work over K round-robin buckets.
// Frame f activates bucket f mod K. The active bucket thinks with the tick dt
// unless Accumulate is set, in which case it receives the time summed since
// its last think.
type ThinkScheduler struct {
	Accumulate bool

	k       int
	frame   uint64
	elapsed []float64
}

// NewThinkScheduler creates a scheduler with k buckets (minimum 1).
func NewThinkScheduler(k int) *ThinkScheduler {
	if k < 1 {
		k = 1
	}
	if k > 256 {
		k = 256
	}
	return &ThinkScheduler{k: k, elapsed: make([]float64, k)}
}

// K returns the bucket count.
func (s *ThinkScheduler) K() int { return s.k }

// Frame returns the number of frames advanced so far.
func (s *ThinkScheduler) Frame() uint64 { return s.frame }

// Active returns the bucket for the current frame without advancing.
func (s *ThinkScheduler) Active() uint8 {
	return uint8(s.frame % uint64(s.k))
}

// Advance returns the active bucket and its think step, then moves to the
// next frame.
func (s *ThinkScheduler) Advance(dt float64) (uint8, float64) {
	active := s.Active()
	s.frame++
	if !s.Accumulate {
		return active, dt
	}

	for i := range s.elapsed {
		s.elapsed[i] += dt
	}
	thinkDt := s.elapsed[active]
	s.elapsed[active] = 0
	return active, thinkDt
}

// BucketOf assigns a bucket from a spawn position. The hash is stable across
// runs so a seeded simulation assigns the same buckets every time.
func BucketOf(pos r2.Vec, k int) uint8 {
	if k <= 1 {
		return 0
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(pos.X))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(pos.Y))
	h := fnv.New32a()
	h.Write(buf[:])
	return uint8(h.Sum32() % uint32(k))
}
