package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	h := NewHub(8)

	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TypeConfigFetched, map[string]string{"owner": "octo", "repo": "widgets"})

	select {
	case ev := <-ch:
		if ev.Type != TypeConfigFetched {
			t.Errorf("unexpected type: %s", ev.Type)
		}
		if ev.ID == "" || ev.Seq != 1 {
			t.Errorf("unexpected identity: id=%q seq=%d", ev.ID, ev.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSnapshotSince(t *testing.T) {
	h := NewHub(8)

	h.Publish(TypeConfigFetched, nil)
	h.Publish(TypeWorkflowsLoaded, nil)
	h.Publish(TypeQuotaLow, nil)

	all := h.SnapshotSince(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	tail := h.SnapshotSince(all[1].Seq)
	if len(tail) != 1 || tail[0].Type != TypeQuotaLow {
		t.Fatalf("expected only the last event, got %+v", tail)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	h := NewHub(2)

	h.Publish(TypeConfigFetched, nil)
	h.Publish(TypeWorkflowsLoaded, nil)
	h.Publish(TypeQuotaLow, nil)

	snapshot := h.SnapshotSince(0)
	if len(snapshot) != 2 {
		t.Fatalf("expected ring capacity 2, got %d", len(snapshot))
	}
	if snapshot[0].Type != TypeWorkflowsLoaded || snapshot[1].Type != TypeQuotaLow {
		t.Fatalf("oldest event should be dropped, got %+v", snapshot)
	}
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	h := NewHub(8)

	ch, cancel := h.Subscribe()
	cancel()

	h.Publish(TypeConfigFetched, nil)

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after cancel")
	}
}
