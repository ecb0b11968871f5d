package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// LayerMatches reports whether an entity on layer is visible to a sight mask.
// A mask is a single layer index; out-of-range values never match.
func LayerMatches(layer, mask int) bool {
	if layer < 0 || layer > 31 || mask < 0 || mask > 31 {
		return false
	}
	return (uint32(1)<<uint(layer))&(uint32(1)<<uint(mask)) != 0
}

// Detector finds the first matching entity around an agent.
// It only reads the world and the sealed index, so one Detector may be
// shared by all workers of a parallel pass.
type Detector struct {
	World  *ecs.World
	Index  *SpatialIndex
	Pos    *ecs.Map[components.Position]
	Layers *ecs.Map[components.Layer]
}

// Scan walks the (2r+1)^2 cell window around pos, rows outer and columns
// inner, and returns the first candidate within range on the masked layer.
func (d *Detector) Scan(pos r2.Vec, sight components.Sight) (ecs.Entity, r2.Vec, bool) {
	if sight.Range <= 0 {
		return ecs.Entity{}, r2.Vec{}, false
	}
	r := int32(math.Ceil(sight.Range / CellSize))
	rangeSq := sight.Range * sight.Range
	base := CellOf(pos)

	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			for _, e := range d.Index.Query(Cell{X: base.X + dx, Y: base.Y + dy}) {
				if !d.World.Alive(e) {
					continue
				}
				if !d.Pos.Has(e) || !d.Layers.Has(e) {
					continue
				}
				cand := d.Pos.Get(e).XY()
				if distanceSq(cand, pos) > rangeSq {
					continue
				}
				if !LayerMatches(d.Layers.Get(e).Layer, sight.Mask) {
					continue
				}
				return e, cand, true
			}
		}
	}
	return ecs.Entity{}, r2.Vec{}, false
}

// Detect assigns a target to an idle agent. Agents that already pursue or
// carry are skipped. Reports whether a new target was acquired.
func (d *Detector) Detect(pos r2.Vec, sight components.Sight, target *components.Target, carry *components.Carrying) bool {
	if target.Enabled || carry.Enabled {
		return false
	}
	e, p, ok := d.Scan(pos, sight)
	if !ok {
		return false
	}
	target.Enabled = true
	target.Entity = e
	target.Pos = p
	return true
}

// RefreshTarget updates the last-known position of a live target.
// A target that has died keeps its last position.
func (d *Detector) RefreshTarget(target *components.Target) {
	if !target.Enabled || !d.World.Alive(target.Entity) {
		return
	}
	if d.Pos.Has(target.Entity) {
		target.Pos = d.Pos.Get(target.Entity).XY()
	}
}
