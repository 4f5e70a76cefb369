package spatial

import (
	"math"
	"math/rand"
	"testing"
)

func TestGridQueryRadiusIsSuperset(t *testing.T) {
	g := NewGrid(-500, -500, 1000, 1000, 50, 500)
	rng := rand.New(rand.NewSource(11))

	type point struct{ x, y float64 }
	points := make([]point, 500)
	for i := range points {
		points[i] = point{rng.Float64()*1000 - 500, rng.Float64()*1000 - 500}
		g.Insert(uint32(i), points[i].x, points[i].y)
	}

	for q := 0; q < 100; q++ {
		cx, cy := rng.Float64()*1000-500, rng.Float64()*1000-500
		r := rng.Float64() * 120

		found := map[uint32]bool{}
		for _, id := range g.QueryRadius(cx, cy, r) {
			found[id] = true
		}
		for i, p := range points {
			if math.Hypot(p.x-cx, p.y-cy) <= r && !found[uint32(i)] {
				t.Fatalf("query %d: point %d inside radius but missing", q, i)
			}
		}
	}
}

func TestGridOutOfRangeClamps(t *testing.T) {
	g := NewGrid(0, 0, 100, 100, 10, 8)
	g.Insert(1, -50, -50)
	g.Insert(2, 500, 500)
	g.Insert(3, math.NaN(), 5)

	if got := g.QueryRadius(0, 0, 1); !containsID(got, 1) || !containsID(got, 3) {
		t.Errorf("corner query = %v, want 1 and 3", got)
	}
	if got := g.QueryRadius(99, 99, 1); !containsID(got, 2) {
		t.Errorf("far corner query = %v, want 2", got)
	}
}

func TestGridClearAndStats(t *testing.T) {
	g := NewGrid(0, 0, 100, 100, 10, 8)
	g.Insert(1, 5, 5)
	g.Insert(2, 6, 6)
	g.Insert(3, 55, 55)

	s := g.Stats()
	if s.TotalCells != 100 || s.NonEmptyCells != 2 || s.TotalEntities != 3 || s.MaxInCell != 2 {
		t.Errorf("stats = %+v", s)
	}

	g.Clear()
	if s := g.Stats(); s.TotalEntities != 0 {
		t.Errorf("entities after Clear = %d", s.TotalEntities)
	}
	if cols, rows, size := g.Dimensions(); cols != 10 || rows != 10 || size != 10 {
		t.Errorf("Dimensions() = %d, %d, %v", cols, rows, size)
	}
}

func containsID(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
