package telemetry

// Counters are per-pass event tallies. Workers fill their own copy and the
// game folds them into the Collector after the pass.
type Counters struct {
	Detections        int
	Thinks            int
	Pickups           int
	EmptyVisits       int
	Deliveries        int
	Delivered         int
	DroppedDeliveries int
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	c.Detections += o.Detections
	c.Thinks += o.Thinks
	c.Pickups += o.Pickups
	c.EmptyVisits += o.EmptyVisits
	c.Deliveries += o.Deliveries
	c.Delivered += o.Delivered
	c.DroppedDeliveries += o.DroppedDeliveries
}

// Sample is the world state measured at the end of a window.
type Sample struct {
	Agents, Idle, Pursuing, Carrying int

	RingErrors []float64 // |dist(home) - preferredRadius| per frontier agent
	SpeedMuls  []float64

	ItemsRemaining int
	HomeFood       int
	IndexCells     int
	Digest         string
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32
	counts          Counters
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(1)
	if dt > 0 {
		ticksPerWindow = int32(windowDurationSec/dt + 0.5)
	}
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record folds a pass's counters into the current window.
func (c *Collector) Record(o Counters) {
	c.counts.Add(o)
}

// Counts returns the counters accumulated so far in the current window.
func (c *Collector) Counts() Counters {
	return c.counts
}

// WindowTicks returns the window length in ticks.
func (c *Collector) WindowTicks() int32 {
	return c.windowDurationTicks
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, s Sample) WindowStats {
	mean, std, p10, p50, p90 := ComputeDistStats(s.RingErrors)
	speedMean, _, _, _, _ := ComputeDistStats(s.SpeedMuls)

	stats := WindowStats{
		WindowStartTick:   c.windowStartTick,
		WindowEndTick:     currentTick,
		SimTimeSec:        float64(currentTick) * c.dt,
		Agents:            s.Agents,
		Idle:              s.Idle,
		Pursuing:          s.Pursuing,
		Carrying:          s.Carrying,
		Detections:        c.counts.Detections,
		Thinks:            c.counts.Thinks,
		Pickups:           c.counts.Pickups,
		EmptyVisits:       c.counts.EmptyVisits,
		Deliveries:        c.counts.Deliveries,
		Delivered:         c.counts.Delivered,
		DroppedDeliveries: c.counts.DroppedDeliveries,
		RingErrMean:       mean,
		RingErrStd:        std,
		RingErrP10:        p10,
		RingErrP50:        p50,
		RingErrP90:        p90,
		SpeedMulMean:      speedMean,
		ItemsRemaining:    s.ItemsRemaining,
		HomeFood:          s.HomeFood,
		IndexCells:        s.IndexCells,
		Digest:            s.Digest,
	}

	c.windowStartTick = currentTick
	c.counts = Counters{}
	return stats
}
