package spatial

import (
	"math/rand"
	"sort"
	"testing"
)

func TestSweepAxisQuery(t *testing.T) {
	s := NewSweepAxis(8)
	s.Update([]float64{30, -10, 5, 100, 5}, []bool{false, false, false, false, true})

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}

	got := append([]uint32(nil), s.Query(-10, 30)...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []uint32{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Query(-10, 30) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Query(-10, 30) = %v, want %v", got, want)
		}
	}

	if got := s.Query(40, 20); len(got) != 0 {
		t.Errorf("inverted range = %v", got)
	}
}

// TestSweepAxisReorders verifies repeated updates with moving and shrinking
// input keep the axis sorted under both sort strategies.
func TestSweepAxisReorders(t *testing.T) {
	for _, ins := range []bool{true, false} {
		s := NewSweepAxis(64)
		s.SetInsertionSort(ins)
		rng := rand.New(rand.NewSource(5))

		values := make([]float64, 64)
		for i := range values {
			values[i] = rng.Float64() * 1000
		}

		for round := 0; round < 20; round++ {
			n := 32 + rng.Intn(33)
			for i := 0; i < n; i++ {
				values[i] += rng.Float64()*40 - 20
			}
			s.Update(values[:n], nil)

			if s.Len() != n {
				t.Fatalf("insertion=%v round %d: Len() = %d, want %d", ins, round, s.Len(), n)
			}
			if !sort.SliceIsSorted(s.entries, func(i, j int) bool { return s.entries[i].Value < s.entries[j].Value }) {
				t.Fatalf("insertion=%v round %d: entries not sorted", ins, round)
			}

			count := 0
			for i := 0; i < n; i++ {
				if values[i] >= 200 && values[i] <= 600 {
					count++
				}
			}
			if got := len(s.Query(200, 600)); got != count {
				t.Errorf("insertion=%v round %d: Query = %d ids, want %d", ins, round, got, count)
			}
		}
	}
}

func BenchmarkSweepAxisUpdate(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 256)
	for i := range values {
		values[i] = rng.Float64() * 1000
	}
	s := NewSweepAxis(len(values))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range values {
			values[j] += rng.Float64() - 0.5
		}
		s.Update(values, nil)
	}
}
