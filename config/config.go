// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Think     ThinkConfig     `yaml:"think"`
	Frontier  FrontierConfig  `yaml:"frontier"`
	Orbit     OrbitConfig     `yaml:"orbit"`
	Task      TaskConfig      `yaml:"task"`
	Items     ItemsConfig     `yaml:"items"`
	Homes     []HomeConfig    `yaml:"homes"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Range is an inclusive [min, max] sampling interval.
type Range [2]float64

// Min returns the lower bound.
func (r Range) Min() float64 { return r[0] }

// Max returns the upper bound.
func (r Range) Max() float64 { return r[1] }

// SimConfig holds tick clock settings.
type SimConfig struct {
	DT   float64 `yaml:"dt"`   // Seconds per tick
	Seed int64   `yaml:"seed"` // Base seed for spawners and item scatter (0 = CLI decides)
}

// ThinkConfig holds decision amortization settings.
type ThinkConfig struct {
	Buckets      int  `yaml:"buckets"`       // Round-robin think buckets (K)
	AccumulateDT bool `yaml:"accumulate_dt"` // Think with the time since the bucket last ran instead of the tick dt
}

// FrontierConfig tunes the exponential-decision wander strategy.
type FrontierConfig struct {
	DecisionRate      float64 `yaml:"decision_rate"`       // Poisson decisions per second
	PauseProb         float64 `yaml:"pause_prob"`          // Chance a decision is a pause
	Pause             Range   `yaml:"pause"`               // Pause duration (s)
	SmallTurnProb     float64 `yaml:"small_turn_prob"`     // Chance of a small veer
	SmallTurnDeg      Range   `yaml:"small_turn_deg"`      // Small veer angle (deg)
	LargeTurnProb     float64 `yaml:"large_turn_prob"`     // Chance of a big reorientation
	LargeTurnDeg      Range   `yaml:"large_turn_deg"`      // Big turn angle (deg)
	SprintProb        float64 `yaml:"sprint_prob"`         // Chance of a brief sprint
	SprintMul         Range   `yaml:"sprint_mul"`          // Sprint speed multiplier
	SprintDuration    Range   `yaml:"sprint_duration"`     // Sprint duration (s)
	Homesick          Range   `yaml:"homesick"`            // Home bias weight
	HomesickResample  Range   `yaml:"homesick_resample"`   // Home bias resample interval (s)
	RadiusReversion   float64 `yaml:"radius_reversion"`    // Mean reversion speed of preferred radius
	RadiusSigma       float64 `yaml:"radius_sigma"`        // Random walk strength of preferred radius
	InitialRadiusSpan Range   `yaml:"initial_radius_span"` // Initial preferred radius as fraction of leash
}

// OrbitConfig tunes the ring-orbit wander strategy.
type OrbitConfig struct {
	TangentialWeight float64 `yaml:"tangential_weight"`
	RadialWeight     float64 `yaml:"radial_weight"`
	JitterStrength   float64 `yaml:"jitter_strength"`
}

// TaskConfig holds carry task arrival thresholds.
type TaskConfig struct {
	PickupEpsilon    float64 `yaml:"pickup_epsilon"`    // Distance at which a target counts as reached
	DeliverEpsilon   float64 `yaml:"deliver_epsilon"`   // Distance at which home counts as reached
	WaypointEpsilon  float64 `yaml:"waypoint_epsilon"`  // Distance at which a manual waypoint is cleared
	MinLeash         float64 `yaml:"min_leash"`         // Fallback leash radius for malformed params
	FallbackTurnRate float64 `yaml:"fallback_turn_rate"` // Fallback turn rate for malformed params
}

// ItemsConfig holds collectable item scatter parameters.
type ItemsConfig struct {
	Count           int     `yaml:"count"`             // Items to place at startup
	Layer           int     `yaml:"layer"`             // Detection layer of items
	Kind            string  `yaml:"kind"`              // Item kind name
	Amount          Range   `yaml:"amount"`            // Amount per item (rounded)
	Extent          float64 `yaml:"extent"`            // Half-size of the square scatter area around origin
	NoiseScale      float64 `yaml:"noise_scale"`       // Patch frequency
	NoiseThreshold  float64 `yaml:"noise_threshold"`   // Minimum normalized noise to accept a spot
	ConsumeOnPickup bool    `yaml:"consume_on_pickup"` // Flag items for destruction when collected
}

// HomeConfig defines a home base and the agents it spawns.
type HomeConfig struct {
	Name         string      `yaml:"name"`
	X            float64     `yaml:"x"`
	Y            float64     `yaml:"y"`
	Layer        int         `yaml:"layer"`
	StartingFood int         `yaml:"starting_food"`
	Spawn        SpawnConfig `yaml:"spawn"`
}

// SpawnConfig holds per-home agent spawn ranges.
type SpawnConfig struct {
	Amount          int     `yaml:"amount"`
	Constraints     Range   `yaml:"constraints"` // Half-extent (x, y) of the spawn box around home
	Speed           Range   `yaml:"speed"`
	TurnRate        Range   `yaml:"turn_rate"`
	LeashRadius     Range   `yaml:"leash_radius"`
	HomePull        Range   `yaml:"home_pull"`
	JitterStrength  Range   `yaml:"jitter_strength"`
	MinJitterPeriod Range   `yaml:"min_jitter_period"`
	MaxJitterPeriod Range   `yaml:"max_jitter_period"`
	SightRange      Range   `yaml:"sight_range"`
	Layer           int     `yaml:"layer"`          // Detection layer of the agents themselves
	TargetLayer     int     `yaml:"target_layer"`   // Single layer the agents look for
	OrbitFraction   float64 `yaml:"orbit_fraction"` // Share of agents using the orbit strategy
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TotalAgents int            // Sum of spawn amounts across homes
	HomeIndex   map[string]int // name -> index for home lookup
	TicksPerSec float64        // 1 / Sim.DT
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if err := Validate(defaultsYAML); err != nil {
		return nil, fmt.Errorf("validating embedded defaults: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Validate(data); err != nil {
			return nil, fmt.Errorf("validating %s: %w", path, err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Sim.DT <= 0 {
		c.Sim.DT = 1.0 / 60.0
	}
	if c.Think.Buckets < 1 {
		c.Think.Buckets = 1
	}
	c.Derived.TicksPerSec = 1 / c.Sim.DT

	c.Derived.TotalAgents = 0
	c.Derived.HomeIndex = make(map[string]int, len(c.Homes))
	for i := range c.Homes {
		home := &c.Homes[i]
		if home.Name == "" {
			home.Name = fmt.Sprintf("home-%d", i)
		}
		// Swapped bounds are a common authoring slip; sample from the sorted interval.
		sp := &home.Spawn
		for _, r := range []*Range{
			&sp.Speed, &sp.TurnRate, &sp.LeashRadius, &sp.HomePull,
			&sp.JitterStrength, &sp.MinJitterPeriod, &sp.MaxJitterPeriod, &sp.SightRange,
		} {
			if r[0] > r[1] {
				r[0], r[1] = r[1], r[0]
			}
		}
		c.Derived.HomeIndex[home.Name] = i
		c.Derived.TotalAgents += sp.Amount
	}

	c.Items.Kind = strings.ToLower(c.Items.Kind)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
