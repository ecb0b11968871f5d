package systems

import (
	"sync"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

func TestCellOfFloors(t *testing.T) {
	tests := []struct {
		p    r2.Vec
		want Cell
	}{
		{r2.Vec{X: 0, Y: 0}, Cell{0, 0}},
		{r2.Vec{X: 0.99, Y: 0.01}, Cell{0, 0}},
		{r2.Vec{X: -0.01, Y: 0}, Cell{-1, 0}},
		{r2.Vec{X: -1, Y: -1}, Cell{-1, -1}},
		{r2.Vec{X: 3.5, Y: -2.5}, Cell{3, -3}},
	}
	for _, tt := range tests {
		if got := CellOf(tt.p); got != tt.want {
			t.Errorf("CellOf(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func newPositioned(w *ecs.World, pts ...r2.Vec) []ecs.Entity {
	mapper := ecs.NewMap2[components.Position, components.Layer](w)
	out := make([]ecs.Entity, len(pts))
	for i, p := range pts {
		pos := components.Position{X: p.X, Y: p.Y}
		out[i] = mapper.NewEntity(&pos, &components.Layer{})
	}
	return out
}

func TestSpatialIndexConcurrentInsert(t *testing.T) {
	w := ecs.NewWorld()
	pts := make([]r2.Vec, 500)
	for i := range pts {
		pts[i] = r2.Vec{X: float64(i%10) + 0.5, Y: float64(i/100) + 0.5}
	}
	ents := newPositioned(w, pts...)

	idx := NewSpatialIndex()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < len(ents); i += 8 {
				idx.Insert(CellOf(pts[i]), ents[i])
			}
		}(g)
	}
	wg.Wait()
	idx.Seal()

	if idx.Len() != len(ents) {
		t.Fatalf("Len = %d, want %d", idx.Len(), len(ents))
	}
	if idx.CellCount() != 50 {
		t.Errorf("CellCount = %d, want 50", idx.CellCount())
	}
	cell := idx.Query(Cell{3, 2})
	if len(cell) != 10 {
		t.Fatalf("cell (3,2) holds %d entities, want 10", len(cell))
	}
	for i := 1; i < len(cell); i++ {
		if cell[i-1].ID() >= cell[i].ID() {
			t.Errorf("sealed cell not ordered by id at %d", i)
		}
	}
}

func TestSpatialIndexRebuildDropsStale(t *testing.T) {
	w := ecs.NewWorld()
	a := r2.Vec{X: 0.5, Y: 0.5}
	b := r2.Vec{X: 5.5, Y: 5.5}
	ents := newPositioned(w, a)

	idx := NewSpatialIndex()
	idx.Insert(CellOf(a), ents[0])
	idx.Seal()

	// Entity moved from a to b.
	idx.Clear()
	idx.Insert(CellOf(b), ents[0])
	idx.Seal()

	if got := idx.Query(CellOf(a)); len(got) != 0 {
		t.Errorf("old cell still holds %d entries after rebuild", len(got))
	}
	if got := idx.Query(CellOf(b)); len(got) != 1 || got[0] != ents[0] {
		t.Errorf("new cell = %v, want [%v]", got, ents[0])
	}

	// A second rebuild with nothing inserted leaves the index empty.
	idx.Clear()
	idx.Clear()
	if idx.Len() != 0 || idx.CellCount() != 0 {
		t.Errorf("cleared index reports len=%d cells=%d", idx.Len(), idx.CellCount())
	}
}

func TestSpatialIndexQueryMissingCell(t *testing.T) {
	idx := NewSpatialIndex()
	if got := idx.Query(Cell{100, -100}); len(got) != 0 {
		t.Errorf("empty index returned %v", got)
	}
}
