// Package systems provides the per-tick simulation passes.
package systems

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// CellSize is the fixed edge length of a spatial cell in world units.
const CellSize = 1.0

// Cell is the integer key of a unit spatial bucket.
type Cell struct {
	X, Y int32
}

// CellOf returns the cell containing p: (floor(x), floor(y)).
func CellOf(p r2.Vec) Cell {
	return Cell{X: int32(math.Floor(p.X / CellSize)), Y: int32(math.Floor(p.Y / CellSize))}
}

// spatialShards is the number of independently locked partitions.
const spatialShards = 64

type spatialShard struct {
	mu    sync.Mutex
	cells map[Cell][]ecs.Entity
}

// SpatialIndex is an unbounded uniform grid mapping cells to the entities inside them.
// It is rebuilt from scratch every tick: Clear, concurrent Insert, Seal, then read-only Query.
type SpatialIndex struct {
	shards [spatialShards]spatialShard
}

// NewSpatialIndex creates an empty index.
func NewSpatialIndex() *SpatialIndex {
	idx := &SpatialIndex{}
	for i := range idx.shards {
		idx.shards[i].cells = make(map[Cell][]ecs.Entity, 256)
	}
	return idx
}

func shardOf(c Cell) int {
	h := uint32(c.X)*0x9e3779b1 ^ uint32(c.Y)*0x85ebca77
	h ^= h >> 15
	return int(h % spatialShards)
}

// Clear removes all entities from the index.
// Cell lists keep their capacity for reuse; cells left empty by the previous
// rebuild are dropped so the key set tracks the occupied area.
func (idx *SpatialIndex) Clear() {
	for i := range idx.shards {
		s := &idx.shards[i]
		for k, v := range s.cells {
			if len(v) == 0 {
				delete(s.cells, k)
				continue
			}
			s.cells[k] = v[:0]
		}
	}
}

// Insert adds an entity to a cell. Safe for concurrent use.
// No ordering is guaranteed within a cell until Seal is called.
func (idx *SpatialIndex) Insert(c Cell, e ecs.Entity) {
	s := &idx.shards[shardOf(c)]
	s.mu.Lock()
	s.cells[c] = append(s.cells[c], e)
	s.mu.Unlock()
}

// Shards returns the number of partitions, for callers that seal in parallel.
func (idx *SpatialIndex) Shards() int {
	return spatialShards
}

// SealShard orders every cell list of one partition by entity id.
func (idx *SpatialIndex) SealShard(i int) {
	for _, v := range idx.shards[i].cells {
		if len(v) > 1 {
			slices.SortFunc(v, compareEntity)
		}
	}
}

// Seal orders every cell list by entity id so that reads are reproducible.
func (idx *SpatialIndex) Seal() {
	for i := range idx.shards {
		idx.SealShard(i)
	}
}

func compareEntity(a, b ecs.Entity) int {
	return cmp.Compare(a.ID(), b.ID())
}

// Query returns the entities in a cell, or nil if it is empty.
// Must not run concurrently with Insert or Clear.
func (idx *SpatialIndex) Query(c Cell) []ecs.Entity {
	return idx.shards[shardOf(c)].cells[c]
}

// Len returns the number of indexed entities.
func (idx *SpatialIndex) Len() int {
	n := 0
	for i := range idx.shards {
		for _, v := range idx.shards[i].cells {
			n += len(v)
		}
	}
	return n
}

// CellCount returns the number of occupied cells.
func (idx *SpatialIndex) CellCount() int {
	n := 0
	for i := range idx.shards {
		for _, v := range idx.shards[i].cells {
			if len(v) > 0 {
				n++
			}
		}
	}
	return n
}
