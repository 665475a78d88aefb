package maintenance

import (
	"path/filepath"
	"testing"

	"github.com/kitedb/kitedb/internal/graph"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/storage"
)

func newTestCompactor(t *testing.T) (*Compactor, *graph.Manager) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.Open(path, 4096, nil)
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pool, err := storage.NewBufferPool(store, 16, nil)
	if err != nil {
		t.Fatalf("NewBufferPool failed: %v", err)
	}
	records := record.NewLayer(pool, 4096)
	g := graph.New(records, nil)
	return New(store, records, g, nil), g
}

func TestSweepFindsPageSupersededByUpdate(t *testing.T) {
	c, g := newTestCompactor(t)

	n, err := g.AddNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if _, err := g.UpdateNode(n.ID, []record.Property{{Key: "age", Value: record.Int(1)}}); err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}

	c.Sweep()
	stale := c.StalePageIDs()
	if len(stale) != 1 {
		t.Fatalf("expected 1 stale page (the pre-update page), got %d: %v", len(stale), stale)
	}
}

func TestSweepFindsPageWrittenByDelete(t *testing.T) {
	c, g := newTestCompactor(t)

	n, err := g.AddNode([]string{"Person"}, nil)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if err := g.DeleteNode(n.ID); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}

	c.Sweep()
	stale := c.StalePageIDs()
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale pages (the original page and the inactive delete record), got %d: %v", len(stale), stale)
	}
}

func TestSweepLeavesLivePagesAlone(t *testing.T) {
	c, g := newTestCompactor(t)

	if _, err := g.AddNode([]string{"Person"}, nil); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	c.Sweep()
	if stale := c.StalePageIDs(); len(stale) != 0 {
		t.Errorf("expected no stale pages, got %v", stale)
	}
}

func TestStartScheduleWithEmptyStringDisablesScheduling(t *testing.T) {
	c, _ := newTestCompactor(t)
	if err := c.StartSchedule(""); err != nil {
		t.Fatalf("StartSchedule(\"\") failed: %v", err)
	}
	c.Stop() // must not panic with no cron started
}
