package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

const (
	testAgentLayer = 0
	testItemLayer  = 2
)

type detectionFixture struct {
	world    *ecs.World
	idx      *SpatialIndex
	det      *Detector
	mapper   *ecs.Map2[components.Position, components.Layer]
	entities []ecs.Entity
}

func newDetectionFixture() *detectionFixture {
	w := ecs.NewWorld()
	idx := NewSpatialIndex()
	return &detectionFixture{
		world:  w,
		idx:    idx,
		mapper: ecs.NewMap2[components.Position, components.Layer](w),
		det: &Detector{
			World:  w,
			Index:  idx,
			Pos:    ecs.NewMap[components.Position](w),
			Layers: ecs.NewMap[components.Layer](w),
		},
	}
}

func (f *detectionFixture) add(x, y float64, layer int) ecs.Entity {
	pos := components.Position{X: x, Y: y, Z: 7}
	e := f.mapper.NewEntity(&pos, &components.Layer{Layer: layer})
	f.entities = append(f.entities, e)
	return e
}

func (f *detectionFixture) rebuild() {
	f.idx.Clear()
	posMap := ecs.NewMap[components.Position](f.world)
	for _, e := range f.entities {
		if !f.world.Alive(e) {
			continue
		}
		f.idx.Insert(CellOf(posMap.Get(e).XY()), e)
	}
	f.idx.Seal()
}

func TestLayerMatches(t *testing.T) {
	tests := []struct {
		layer, mask int
		want        bool
	}{
		{2, 2, true},
		{0, 0, true},
		{1, 2, false},
		{31, 31, true},
		{32, 32, false},
		{-1, -1, false},
	}
	for _, tt := range tests {
		if got := LayerMatches(tt.layer, tt.mask); got != tt.want {
			t.Errorf("LayerMatches(%d, %d) = %v, want %v", tt.layer, tt.mask, got, tt.want)
		}
	}
}

func TestDetectInRange(t *testing.T) {
	f := newDetectionFixture()
	f.add(0, 0, testAgentLayer)
	item := f.add(3, 0, testItemLayer)
	f.rebuild()

	var target components.Target
	var carry components.Carrying
	sight := components.Sight{Range: 5, Mask: testItemLayer}
	if !f.det.Detect(r2.Vec{}, sight, &target, &carry) {
		t.Fatal("target at (3,0) not acquired")
	}
	if !target.Enabled || target.Entity != item {
		t.Errorf("target = %+v, want entity %v", target, item)
	}
	if target.Pos != (r2.Vec{X: 3}) {
		t.Errorf("target pos = %v, want (3,0)", target.Pos)
	}
}

func TestDetectOutOfRange(t *testing.T) {
	f := newDetectionFixture()
	f.add(10, 0, testItemLayer)
	f.add(0, 5.01, testItemLayer)
	f.rebuild()

	var target components.Target
	var carry components.Carrying
	sight := components.Sight{Range: 5, Mask: testItemLayer}
	for i := 0; i < 3; i++ {
		if f.det.Detect(r2.Vec{}, sight, &target, &carry) {
			t.Fatalf("out-of-range target acquired: %+v", target)
		}
	}
}

func TestDetectWrongLayer(t *testing.T) {
	f := newDetectionFixture()
	f.add(0.5, 0, testItemLayer+1)
	f.add(1, 1, testAgentLayer)
	f.rebuild()

	var target components.Target
	var carry components.Carrying
	sight := components.Sight{Range: 5, Mask: testItemLayer}
	if f.det.Detect(r2.Vec{}, sight, &target, &carry) {
		t.Errorf("target on non-matching layer acquired: %+v", target)
	}
}

func TestDetectFirstFoundScanOrder(t *testing.T) {
	f := newDetectionFixture()
	// Row dy=+1 is scanned after dy=-2 even though it is closer.
	near := f.add(0.5, 1.5, testItemLayer)
	far := f.add(0.5, -1.5, testItemLayer)
	f.rebuild()

	e, _, ok := f.det.Scan(r2.Vec{X: 0.5, Y: 0.5}, components.Sight{Range: 3, Mask: testItemLayer})
	if !ok {
		t.Fatal("nothing found")
	}
	if e != far {
		t.Errorf("found %v, want lower row %v (not nearer %v)", e, far, near)
	}
}

func TestDetectMayAcquireSelf(t *testing.T) {
	f := newDetectionFixture()
	self := f.add(0.2, 0.2, testItemLayer)
	f.rebuild()

	var target components.Target
	var carry components.Carrying
	sight := components.Sight{Range: 2, Mask: testItemLayer}
	if !f.det.Detect(r2.Vec{X: 0.2, Y: 0.2}, sight, &target, &carry) {
		t.Fatal("agent on its own mask layer found nothing")
	}
	if target.Entity != self {
		t.Errorf("target = %v, want self %v", target.Entity, self)
	}
}

func TestDetectSkipsBusyAgents(t *testing.T) {
	f := newDetectionFixture()
	f.add(1, 0, testItemLayer)
	f.rebuild()

	sight := components.Sight{Range: 5, Mask: testItemLayer}
	carry := components.Carrying{Enabled: true, Amount: 1}
	var target components.Target
	if f.det.Detect(r2.Vec{}, sight, &target, &carry) {
		t.Error("carrying agent acquired a target")
	}

	existing := components.Target{Enabled: true, Pos: r2.Vec{X: -4}}
	if f.det.Detect(r2.Vec{}, sight, &existing, &components.Carrying{}) {
		t.Error("pursuing agent replaced its target")
	}
	if existing.Pos != (r2.Vec{X: -4}) {
		t.Errorf("existing target overwritten: %+v", existing)
	}
}

func TestDetectIgnoresRemovedEntities(t *testing.T) {
	f := newDetectionFixture()
	item := f.add(1, 0, testItemLayer)
	f.rebuild()
	f.world.RemoveEntity(item)

	if _, _, ok := f.det.Scan(r2.Vec{}, components.Sight{Range: 5, Mask: testItemLayer}); ok {
		t.Error("removed entity detected")
	}
}

func TestRefreshTarget(t *testing.T) {
	f := newDetectionFixture()
	item := f.add(2, 2, testItemLayer)

	target := components.Target{Enabled: true, Entity: item, Pos: r2.Vec{}}
	f.det.RefreshTarget(&target)
	if target.Pos != (r2.Vec{X: 2, Y: 2}) {
		t.Errorf("live target pos = %v, want (2,2)", target.Pos)
	}

	f.world.RemoveEntity(item)
	target.Pos = r2.Vec{X: 9}
	f.det.RefreshTarget(&target)
	if target.Pos != (r2.Vec{X: 9}) {
		t.Errorf("dead target pos changed to %v", target.Pos)
	}
}
