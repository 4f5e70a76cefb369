package game

import (
	"context"
	"testing"
	"time"
)

type recordingPublisher struct {
	batches [][]Event
}

func (r *recordingPublisher) Publish(events []Event) {
	r.batches = append(r.batches, events)
}

func TestSchedulerAdvance(t *testing.T) {
	tests := []struct {
		name    string
		elapsed []time.Duration
		want    []int
	}{
		{"exact steps", []time.Duration{50 * time.Millisecond}, []int{3}},
		{"accumulates remainder", []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, []int{0, 1}},
		{"catch up is capped", []time.Duration{time.Second, 0}, []int{5, 0}},
		{"negative elapsed ignored", []time.Duration{-time.Second, 20 * time.Millisecond}, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWorld(t, testSim())
			s := NewScheduler(w, nil)

			for i, elapsed := range tt.elapsed {
				if got := s.Advance(elapsed); got != tt.want[i] {
					t.Errorf("Advance(%v) #%d = %d, want %d", elapsed, i, got, tt.want[i])
				}
			}
		})
	}
}

// TestSchedulerPublishesEachStep verifies every step's events reach the
// publisher, stamped with consecutive ticks.
func TestSchedulerPublishesEachStep(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	pub := &recordingPublisher{}
	s := NewScheduler(w, pub)

	s.Advance(50 * time.Millisecond)

	if len(pub.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(pub.batches))
	}
	first := pub.batches[0]
	if len(first) != 2 || first[0].Type != EventJoined || first[1].Type != EventState {
		t.Errorf("first batch = %+v", first)
	}
	for i, batch := range pub.batches {
		last := batch[len(batch)-1]
		if last.Type != EventState || last.Tick != uint64(i+1) {
			t.Errorf("batch %d ends with %s at tick %d", i, last.Type, last.Tick)
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	s := NewScheduler(w, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	NewScheduler(w, nil).Stop()
}
