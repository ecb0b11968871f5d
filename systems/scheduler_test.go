package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestBucketOfStable(t *testing.T) {
	p := r2.Vec{X: 12.25, Y: -3.5}
	b := BucketOf(p, 6)
	for i := 0; i < 10; i++ {
		if got := BucketOf(p, 6); got != b {
			t.Fatalf("BucketOf not stable: %d != %d", got, b)
		}
	}
	if BucketOf(p, 1) != 0 || BucketOf(p, 0) != 0 {
		t.Error("single bucket must always be 0")
	}
}

func TestBucketAmortization(t *testing.T) {
	const k = 6
	const agents = 600
	buckets := make([]uint8, agents)
	seen := make(map[uint8]int)
	for i := range buckets {
		buckets[i] = BucketOf(r2.Vec{X: float64(i) * 0.37, Y: float64(i%17) * 1.13}, k)
		if int(buckets[i]) >= k {
			t.Fatalf("bucket %d out of range", buckets[i])
		}
		seen[buckets[i]]++
	}
	if len(seen) != k {
		t.Errorf("only %d of %d buckets used", len(seen), k)
	}

	s := NewThinkScheduler(k)
	const dt = 1.0 / 60
	for round := 0; round < 3; round++ {
		thinks := make([]int, agents)
		for tick := 0; tick < k; tick++ {
			active, thinkDt := s.Advance(dt)
			if thinkDt != dt {
				t.Errorf("round %d tick %d: thinkDt = %f, want tick dt %f", round, tick, thinkDt, dt)
			}
			for i, b := range buckets {
				if b == active {
					thinks[i]++
				}
			}
		}
		for i, n := range thinks {
			if n != 1 {
				t.Fatalf("round %d: agent %d thought %d times over %d ticks", round, i, n, k)
			}
		}
	}
	if s.Frame() != 3*k {
		t.Errorf("Frame = %d, want %d", s.Frame(), 3*k)
	}
}

func TestSchedulerAccumulate(t *testing.T) {
	const k = 6
	const dt = 1.0 / 60
	s := NewThinkScheduler(k)
	s.Accumulate = true
	for tick := 0; tick < 3*k; tick++ {
		active, thinkDt := s.Advance(dt)
		want := k * dt
		if tick < k {
			// First round: bucket b has seen b+1 ticks.
			want = float64(active+1) * dt
		}
		if math.Abs(thinkDt-want) > 1e-12 {
			t.Errorf("tick %d bucket %d: thinkDt = %f, want %f", tick, active, thinkDt, want)
		}
	}
}

func TestSchedulerClampsK(t *testing.T) {
	if NewThinkScheduler(0).K() != 1 {
		t.Error("K=0 not clamped to 1")
	}
	s := NewThinkScheduler(1)
	for i := 0; i < 5; i++ {
		if active, dt := s.Advance(0.5); active != 0 || dt != 0.5 {
			t.Errorf("K=1 advance = (%d, %f)", active, dt)
		}
	}
}
