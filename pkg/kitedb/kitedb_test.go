package kitedb

import (
	"path/filepath"
	"testing"

	"github.com/kitedb/kitedb/internal/config"
)

func TestOpenCreateQueryClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDefault(path)
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecuteQuery(`CREATE (n:Person {name: "Alice", age: 30})`); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}

	rows, err := db.ExecuteQuery(`MATCH (n:Person) RETURN n`)
	if err != nil {
		t.Fatalf("MATCH failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestPersistenceOfIdsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	db, err := OpenDefault(path)
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}

	names := []string{"Alice", "Bob", "Carol"}
	var ids []int64
	for _, name := range names {
		rows, err := db.ExecuteQuery(`CREATE (n:Person {name: "` + name + `"}) RETURN n`)
		if err != nil {
			t.Fatalf("CREATE failed: %v", err)
		}
		repr := rows[0]["n"].(map[string]any)
		ids = append(ids, repr["id"].(int64))
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenDefault(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	rows, err := reopened.ExecuteQuery(`MATCH (n:Person) RETURN n`)
	if err != nil {
		t.Fatalf("MATCH after reopen failed: %v", err)
	}
	if len(rows) != len(names) {
		t.Fatalf("expected %d rows after reopen, got %d", len(names), len(rows))
	}
	for i, row := range rows {
		repr := row["n"].(map[string]any)
		if repr["id"].(int64) != ids[i] {
			t.Errorf("row %d id = %v, want %d (ids must survive reopen)", i, repr["id"], ids[i])
		}
	}

	next, err := reopened.ExecuteQuery(`CREATE (n:Person {name: "Dave"}) RETURN n`)
	if err != nil {
		t.Fatalf("CREATE after reopen failed: %v", err)
	}
	repr := next[0]["n"].(map[string]any)
	if repr["id"].(int64) != ids[len(ids)-1]+1 {
		t.Errorf("new id after reopen = %v, want %d (counter must continue, not restart)", repr["id"], ids[len(ids)-1]+1)
	}
}

func TestAllNodesAndAllEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enum.db")
	db, err := OpenDefault(path)
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecuteQuery(`CREATE (a:Person {name: "Alice"}), (b:Person {name: "Bob"})`); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}
	if _, err := db.ExecuteQuery(`MATCH (a:Person) WHERE a.name = "Alice" MATCH (b:Person) WHERE b.name = "Bob" CREATE (a)-[r:KNOWS]->(b)`); err != nil {
		t.Fatalf("CREATE relationship failed: %v", err)
	}

	nodes, err := db.AllNodes()
	if err != nil {
		t.Fatalf("AllNodes failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("AllNodes() = %d, want 2", len(nodes))
	}

	edges, err := db.AllEdges()
	if err != nil {
		t.Fatalf("AllEdges failed: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("AllEdges() = %d, want 1", len(edges))
	}
}

func TestStatsReflectsActivity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	db, err := OpenDefault(path)
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecuteQuery(`CREATE (n:Person {name: "Alice"})`); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}
	if _, err := db.ExecuteQuery(`MATCH (n:Person) WHERE n.name = "Alice" SET n.age = 30`); err != nil {
		t.Fatalf("SET failed: %v", err)
	}

	stats := db.Stats()
	if stats.NextNodeID != 2 {
		t.Errorf("NextNodeID = %d, want 2", stats.NextNodeID)
	}
	// Each query above ran inside its own begin-execute-commit transaction,
	// and commit clears that transaction's entries from the WAL, so no
	// already-committed activity should still be sitting in the log.
	if stats.WALHistoryLen != 0 {
		t.Errorf("WALHistoryLen after two committed queries = %d, want 0", stats.WALHistoryLen)
	}

	db.Compact()
	if db.Stats().StalePageCount == 0 {
		t.Error("expected Compact() to find the page superseded by SET")
	}
}

func TestOpenWithCustomConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.db")
	cfg := config.Defaults()
	cfg.PageSize = 8192
	cfg.LogLevel = "debug"

	db, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecuteQuery(`CREATE (n:Person {name: "Alice"})`); err != nil {
		t.Fatalf("CREATE failed: %v", err)
	}
}
