package main

import (
	"github.com/pthm-cable/hive/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of wander parameters.
// Scales multiply the configured per-home spawn ranges.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "home_pull_scale", Path: "homes[].spawn.home_pull", Min: 0.25, Max: 3.0, Default: 1.0},
			{Name: "leash_scale", Path: "homes[].spawn.leash_radius", Min: 0.5, Max: 2.0, Default: 1.0},
			{Name: "decision_rate", Path: "frontier.decision_rate", Min: 0.3, Max: 3.0, Default: 1.2},
			{Name: "radius_reversion", Path: "frontier.radius_reversion", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "homesick_max", Path: "frontier.homesick[1]", Min: 0.2, Max: 1.2, Default: 0.55},
			{Name: "orbit_fraction", Path: "homes[].spawn.orbit_fraction", Min: 0, Max: 1, Default: 0.25},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	for i := range cfg.Homes {
		s := &cfg.Homes[i].Spawn
		s.HomePull = config.Range{s.HomePull[0] * c[0], s.HomePull[1] * c[0]}
		s.LeashRadius = config.Range{s.LeashRadius[0] * c[1], s.LeashRadius[1] * c[1]}
		s.OrbitFraction = c[5]
	}
	cfg.Frontier.DecisionRate = c[2]
	cfg.Frontier.RadiusReversion = c[3]
	cfg.Frontier.Homesick[1] = max(c[4], cfg.Frontier.Homesick[0])
}
