package history

import (
	"testing"
	"time"

	"github.com/editledger/editledger/internal/diffstats"
)

func makeChangeSet(t *testing.T, session string) *ChangeSet {
	t.Helper()
	return NewChangeSet(session, "group-1", []FileRecord{
		{Path: "a.txt", Before: "old", After: "new", Stats: diffstats.Stats{Modified: 1}},
	}, Meta{Cost: 0.01, TokensUsed: 10, DurationMs: 5})
}

func TestNewHistoryStartsAtSentinel(t *testing.T) {
	h := New()

	if h.Position() != OriginalPosition {
		t.Errorf("Expected position -1, got %d", h.Position())
	}
	if h.CanRewind() {
		t.Errorf("Empty history should not rewind")
	}
	if h.CanForward() {
		t.Errorf("Empty history should not forward")
	}
	if h.CurrentChange() != nil {
		t.Errorf("Current change at sentinel should be nil")
	}
}

func TestAddChangeSetBecomesCurrent(t *testing.T) {
	h := New()
	cs := makeChangeSet(t, "s1")
	h.AddChangeSet(cs)

	if h.Position() != 0 {
		t.Errorf("Expected position 0, got %d", h.Position())
	}
	if h.CurrentChange() != cs {
		t.Errorf("New change-set should be current")
	}
	if cs.TotalStats.Modified != 1 {
		t.Errorf("Total stats should sum file stats: %+v", cs.TotalStats)
	}
	if cs.ID == "" || !cs.Applied {
		t.Errorf("Change-set should have an id and start applied")
	}
}

func TestRewindAndForward(t *testing.T) {
	h := New()
	cs1 := makeChangeSet(t, "s1")
	cs2 := makeChangeSet(t, "s1")
	h.AddChangeSet(cs1)
	h.AddChangeSet(cs2)

	// Rewind returns the change-set being undone.
	undone := h.Rewind()
	if undone != cs2 {
		t.Errorf("Rewind should return the change-set stepped over")
	}
	if h.Position() != 0 {
		t.Errorf("Expected position 0 after rewind, got %d", h.Position())
	}

	undone = h.Rewind()
	if undone != cs1 || h.Position() != OriginalPosition {
		t.Errorf("Second rewind should land on the sentinel")
	}

	if h.Rewind() != nil {
		t.Errorf("Rewind at sentinel should return nil")
	}

	// Forward returns the change-set to reapply.
	redone := h.Forward()
	if redone != cs1 || h.Position() != 0 {
		t.Errorf("Forward should return cs1 at position 0")
	}
	if h.Forward() != cs2 {
		t.Errorf("Second forward should return cs2")
	}
	if h.Forward() != nil {
		t.Errorf("Forward at tail should return nil")
	}
}

func TestBranchTruncation(t *testing.T) {
	h := New()
	for i := 0; i < 5; i++ {
		h.AddChangeSet(makeChangeSet(t, "s1"))
	}

	// Rewind to position k=1, then add: history must truncate to k+2 = 3.
	if err := h.SetPosition(1); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	fresh := makeChangeSet(t, "s1")
	h.AddChangeSet(fresh)

	if h.Len() != 3 {
		t.Fatalf("Expected history length 3 after truncation, got %d", h.Len())
	}
	if h.Position() != 2 || h.CurrentChange() != fresh {
		t.Errorf("New change-set should be current at position 2")
	}
}

func TestSetPositionBounds(t *testing.T) {
	h := New()
	h.AddChangeSet(makeChangeSet(t, "s1"))

	if err := h.SetPosition(-2); err == nil {
		t.Errorf("Position below the sentinel should be rejected")
	}
	if err := h.SetPosition(1); err == nil {
		t.Errorf("Position past the tail should be rejected")
	}
	if err := h.SetPosition(OriginalPosition); err != nil {
		t.Errorf("Sentinel position should be valid: %v", err)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	h := New()
	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	cs := makeChangeSet(t, "s1")
	h.AddChangeSet(cs)

	for i, sub := range []<-chan Event{sub1, sub2} {
		select {
		case ev := <-sub:
			if ev.Position != 0 || len(ev.ChangeSets) != 1 {
				t.Errorf("Subscriber %d got wrong event: %+v", i, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d received no event", i)
		}
	}
}

func TestIndexOfAndFindByID(t *testing.T) {
	h := New()
	cs1 := makeChangeSet(t, "s1")
	cs2 := makeChangeSet(t, "s1")
	h.AddChangeSet(cs1)
	h.AddChangeSet(cs2)

	if h.IndexOf(cs2.ID) != 1 {
		t.Errorf("Expected index 1 for cs2")
	}
	if h.IndexOf("missing") != -1 {
		t.Errorf("Missing id should return -1")
	}
	if h.FindByID(cs1.ID) != cs1 {
		t.Errorf("FindByID should return cs1")
	}
}

func TestStateRoundTrip(t *testing.T) {
	h := New()
	h.AddChangeSet(makeChangeSet(t, "s1"))
	h.AddChangeSet(makeChangeSet(t, "s1"))
	h.Rewind()

	data, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	restored, err := RestoreJSON(data)
	if err != nil {
		t.Fatalf("RestoreJSON failed: %v", err)
	}

	if restored.Len() != 2 || restored.Position() != 0 {
		t.Errorf("Restored history state incorrect: len=%d pos=%d", restored.Len(), restored.Position())
	}

	orig := h.ChangeSets()
	got := restored.ChangeSets()
	for i := range orig {
		if got[i].ID != orig[i].ID {
			t.Errorf("Change-set %d id mismatch", i)
		}
		if !got[i].Timestamp.Equal(orig[i].Timestamp) {
			t.Errorf("Change-set %d timestamp not rehydrated", i)
		}
		if got[i].Files[0].Before != orig[i].Files[0].Before {
			t.Errorf("Change-set %d snapshot lost", i)
		}
	}
}

func TestRestoreClampsPosition(t *testing.T) {
	s := State{History: []*ChangeSet{makeChangeSet(t, "s1")}, Position: 7}
	h := Restore(s)

	if h.Position() != 0 {
		t.Errorf("Out-of-range position should clamp to tail, got %d", h.Position())
	}
}
