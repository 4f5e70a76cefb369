package spatial

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

// TestSkipListMatchesSort drives random inserts, moves and removals and
// checks ranks and ranges against a sorted reference.
func TestSkipListMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sl := NewSkipList()
	ref := map[string]float64{}

	for op := 0; op < 2000; op++ {
		key := fmt.Sprintf("k%02d", rng.Intn(60))
		if rng.Intn(5) == 0 {
			_, had := ref[key]
			if sl.Remove(key) != had {
				t.Fatalf("op %d: Remove(%s) disagrees with reference", op, key)
			}
			delete(ref, key)
			continue
		}
		score := float64(rng.Intn(20)) * 10
		sl.Insert(key, score)
		ref[key] = score
	}

	want := make([]SkipListEntry, 0, len(ref))
	for k, s := range ref {
		want = append(want, SkipListEntry{Key: k, Score: s})
	}
	sort.Slice(want, func(i, j int) bool { return want[i].before(want[j]) })

	if sl.Length() != len(want) {
		t.Fatalf("Length() = %d, want %d", sl.Length(), len(want))
	}
	for i, e := range want {
		if got := sl.GetRank(e.Key); got != i+1 {
			t.Errorf("GetRank(%s) = %d, want %d", e.Key, got, i+1)
		}
	}

	got := sl.GetRange(1, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetRange[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if len(want) > 10 {
		mid := sl.GetRange(5, 10)
		if len(mid) != 6 || mid[0] != want[4] || mid[5] != want[9] {
			t.Errorf("GetRange(5, 10) = %+v", mid)
		}
	}
}

func TestSkipListRangeBounds(t *testing.T) {
	sl := NewSkipList()
	sl.Insert("a", 3)
	sl.Insert("b", 2)
	sl.Insert("c", 1)

	tests := []struct {
		start, end int
		want       []string
	}{
		{0, 2, []string{"a", "b"}},
		{2, 10, []string{"b", "c"}},
		{3, 3, []string{"c"}},
		{4, 5, nil},
		{2, 1, nil},
	}
	for _, tt := range tests {
		got := sl.GetRange(tt.start, tt.end)
		if len(got) != len(tt.want) {
			t.Errorf("GetRange(%d, %d) len = %d, want %d", tt.start, tt.end, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].Key != tt.want[i] {
				t.Errorf("GetRange(%d, %d)[%d] = %s, want %s", tt.start, tt.end, i, got[i].Key, tt.want[i])
			}
		}
	}
}

func TestSkipListScoreAndAbsent(t *testing.T) {
	sl := NewSkipList()
	sl.Insert("a", 5)
	sl.Insert("a", 5)

	if s, ok := sl.GetScore("a"); !ok || s != 5 {
		t.Errorf("GetScore(a) = %v, %v", s, ok)
	}
	if sl.Length() != 1 {
		t.Errorf("Length() = %d after a repeated insert", sl.Length())
	}
	if _, ok := sl.GetScore("b"); ok {
		t.Error("GetScore(b) found a missing key")
	}
	if sl.GetRank("b") != 0 || sl.Remove("b") {
		t.Error("missing key reported as present")
	}
}

func BenchmarkSkipListInsert(b *testing.B) {
	sl := NewSkipList()
	for i := 0; i < b.N; i++ {
		sl.Insert(fmt.Sprintf("p%d", i%1000), float64(i))
	}
}
