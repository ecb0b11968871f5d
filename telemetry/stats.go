package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population and task mix at window end
	Agents   int `csv:"agents"`
	Idle     int `csv:"idle"`
	Pursuing int `csv:"pursuing"`
	Carrying int `csv:"carrying"`

	// Events during window
	Detections        int `csv:"detections"`
	Thinks            int `csv:"thinks"`
	Pickups           int `csv:"pickups"`
	EmptyVisits       int `csv:"empty_visits"`
	Deliveries        int `csv:"deliveries"`
	Delivered         int `csv:"delivered"`
	DroppedDeliveries int `csv:"dropped_deliveries"`

	// Ring following (sampled at window end, frontier agents only)
	RingErrMean float64 `csv:"ring_err_mean"`
	RingErrStd  float64 `csv:"ring_err_std"`
	RingErrP10  float64 `csv:"ring_err_p10"`
	RingErrP50  float64 `csv:"ring_err_p50"`
	RingErrP90  float64 `csv:"ring_err_p90"`

	SpeedMulMean float64 `csv:"speed_mul_mean"`

	// World state
	ItemsRemaining int `csv:"items_remaining"`
	HomeFood       int `csv:"home_food"`
	IndexCells     int `csv:"index_cells"`

	// Position digest of the last tick in the window
	Digest string `csv:"digest"`
}

// ComputeDistStats returns mean, standard deviation and the 10/50/90th
// percentiles of values. Returns zeros for an empty slice.
func ComputeDistStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std = stat.PopMeanStdDev(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("idle", s.Idle),
		slog.Int("pursuing", s.Pursuing),
		slog.Int("carrying", s.Carrying),
		slog.Int("detections", s.Detections),
		slog.Int("thinks", s.Thinks),
		slog.Int("pickups", s.Pickups),
		slog.Int("empty_visits", s.EmptyVisits),
		slog.Int("deliveries", s.Deliveries),
		slog.Int("delivered", s.Delivered),
		slog.Int("dropped_deliveries", s.DroppedDeliveries),
		slog.Float64("ring_err_mean", s.RingErrMean),
		slog.Float64("ring_err_p90", s.RingErrP90),
		slog.Float64("speed_mul_mean", s.SpeedMulMean),
		slog.Int("items_remaining", s.ItemsRemaining),
		slog.Int("home_food", s.HomeFood),
		slog.Int("index_cells", s.IndexCells),
		slog.String("digest", s.Digest),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"idle", s.Idle,
		"pursuing", s.Pursuing,
		"carrying", s.Carrying,
		"detections", s.Detections,
		"pickups", s.Pickups,
		"empty_visits", s.EmptyVisits,
		"deliveries", s.Deliveries,
		"delivered", s.Delivered,
		"ring_err_mean", s.RingErrMean,
		"ring_err_p50", s.RingErrP50,
		"ring_err_p90", s.RingErrP90,
		"items_remaining", s.ItemsRemaining,
		"home_food", s.HomeFood,
	)
}
