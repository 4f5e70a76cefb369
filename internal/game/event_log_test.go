package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEventLogNotStarted(t *testing.T) {
	el := NewEventLog(quietLogger())
	if el.Record(Event{Type: EventHit}) {
		t.Error("Record accepted an event before Start")
	}
	if el.TotalCount() != 0 {
		t.Errorf("total = %d, want 0", el.TotalCount())
	}
}

func TestEventLogSkipsState(t *testing.T) {
	el := NewEventLog(quietLogger())
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	el.Publish([]Event{
		{Type: EventJoined, PlayerID: "a", Data: JoinedEvent{}},
		{Type: EventHit, PlayerID: "a", Data: HitEvent{TargetID: "a"}},
		{Type: EventState, Data: &Snapshot{}},
	})

	if el.TotalCount() != 2 {
		t.Errorf("total = %d, want 2", el.TotalCount())
	}
}

// TestEventLogPerPlayerLimit verifies one noisy player is throttled while
// others still get through.
func TestEventLogPerPlayerLimit(t *testing.T) {
	el := NewEventLog(quietLogger())
	if err := el.Start(""); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	accepted := 0
	for i := 0; i < 50; i++ {
		if el.Record(Event{Type: EventHit, PlayerID: "noisy"}) {
			accepted++
		}
	}
	if accepted < MaxEventsPerPlayer/10 || accepted >= 50 {
		t.Errorf("accepted = %d of 50", accepted)
	}
	if el.DroppedCount() == 0 {
		t.Error("no drops recorded")
	}
	if !el.Record(Event{Type: EventHit, PlayerID: "quiet"}) {
		t.Error("other player throttled")
	}
}

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog(quietLogger())
	if err := el.Start(path); err != nil {
		t.Fatal(err)
	}

	el.Record(Event{Type: EventHit, Tick: 7, PlayerID: "b", Data: HitEvent{TargetID: "b", AttackerID: "a", Damage: 15, NewHealth: 85}})
	el.Record(Event{Type: EventKilled, Tick: 7, PlayerID: "b", Data: KillEvent{VictimID: "b"}})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var records []AuditRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec AuditRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Type != "hit" || records[0].Tick != 7 || records[0].Sequence != 1 || records[0].Version != AuditVersion {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Type != "killed" || records[1].Sequence != 2 {
		t.Errorf("second record = %+v", records[1])
	}

	var hit HitEvent
	if err := json.Unmarshal(records[0].Payload, &hit); err != nil || hit.NewHealth != 85 {
		t.Errorf("payload = %s (%v)", records[0].Payload, err)
	}
}
