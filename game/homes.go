package game

import (
	"maps"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
	"github.com/pthm-cable/hive/telemetry"
)

// homeInfo describes one spawned home.
type homeInfo struct {
	Entity ecs.Entity
	Name   string
	Pos    r2.Vec
}

// HomeLedger accumulates deliveries into home stockpiles.
// Deliveries land in Pending; Fold moves them into Food once per tick.
type HomeLedger struct {
	world   *ecs.World
	stock   *ecs.Map[components.Stockpile]
	destroy *ecs.Map[components.Destroy]
	homes   []homeInfo
	totals  map[string]int // last folded Food per home, kept after destruction
}

func newHomeLedger(world *ecs.World, stock *ecs.Map[components.Stockpile], destroy *ecs.Map[components.Destroy]) *HomeLedger {
	return &HomeLedger{
		world:   world,
		stock:   stock,
		destroy: destroy,
		totals:  make(map[string]int),
	}
}

// register adds a spawned home to the ledger.
func (l *HomeLedger) register(h homeInfo) {
	l.homes = append(l.homes, h)
	l.totals[h.Name] = l.stock.Get(h.Entity).Food
}

// live reports whether a home can still receive deliveries.
func (l *HomeLedger) live(home ecs.Entity) bool {
	if !l.world.Alive(home) || !l.stock.Has(home) {
		return false
	}
	return !l.destroy.Has(home) || !l.destroy.Get(home).Pending
}

// AddPending credits amount to the home's pending stock.
// Returns false if the home is gone or flagged for destruction.
func (l *HomeLedger) AddPending(home ecs.Entity, amount int) bool {
	if !l.live(home) {
		return false
	}
	l.stock.Get(home).Pending += amount
	return true
}

// Fold moves pending stock into each live home's total.
func (l *HomeLedger) Fold() {
	for _, h := range l.homes {
		if !l.world.Alive(h.Entity) {
			continue
		}
		s := l.stock.Get(h.Entity)
		s.Food += s.Pending
		s.Pending = 0
		l.totals[h.Name] = s.Food
	}
}

// Name returns the configured name of a home entity.
func (l *HomeLedger) Name(home ecs.Entity) string {
	for _, h := range l.homes {
		if h.Entity == home {
			return h.Name
		}
	}
	return ""
}

// lookup returns the home registered under name.
func (l *HomeLedger) lookup(name string) (homeInfo, bool) {
	for _, h := range l.homes {
		if h.Name == name {
			return h, true
		}
	}
	return homeInfo{}, false
}

// Totals returns a copy of the folded food per home.
func (l *HomeLedger) Totals() map[string]int {
	return maps.Clone(l.totals)
}

// TotalFood sums folded food across homes.
func (l *HomeLedger) TotalFood() int {
	var sum int
	for _, v := range l.totals {
		sum += v
	}
	return sum
}

// Rows returns per-home totals for a window in spawn order.
func (l *HomeLedger) Rows(windowEnd int32, agents map[ecs.Entity]int) []telemetry.HomeTotal {
	rows := make([]telemetry.HomeTotal, 0, len(l.homes))
	for _, h := range l.homes {
		rows = append(rows, telemetry.HomeTotal{
			WindowEnd: windowEnd,
			Home:      h.Name,
			Food:      l.totals[h.Name],
			Agents:    agents[h.Entity],
		})
	}
	return rows
}
