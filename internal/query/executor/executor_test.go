package executor

import (
	"path/filepath"
	"testing"

	"github.com/kitedb/kitedb/internal/graph"
	"github.com/kitedb/kitedb/internal/query/lexer"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/storage"
	"github.com/kitedb/kitedb/internal/wal"
)

func newTestExecutor(t *testing.T) *Executor {
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
	return New(g, wal.New(nil), nil)
}

func run(t *testing.T, ex *Executor, query string) []Row {
	t.Helper()
	tokens, err := lexer.New(query).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", query, err)
	}
	ast, err := parser.New(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", query, err)
	}
	rows, err := ex.Execute(ast)
	if err != nil {
		t.Fatalf("Execute(%q) failed: %v", query, err)
	}
	return rows
}

func TestCreateMatchWhereReturn(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Alice", age: 30})`)

	rows := run(t, ex, `MATCH (n:Person) WHERE n.name = "Alice" RETURN n`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d (%+v)", len(rows), rows)
	}
	repr, ok := rows[0]["n"].(map[string]any)
	if !ok {
		t.Fatalf("row value is not a map: %#v", rows[0]["n"])
	}
	if repr["id"].(int64) < 1 {
		t.Errorf("id = %v, want >= 1", repr["id"])
	}
	labels := repr["labels"].([]string)
	if len(labels) != 1 || labels[0] != "Person" {
		t.Errorf("labels = %v, want [Person]", labels)
	}
	props := repr["properties"].(map[string]any)
	if props["name"] != "Alice" || props["age"] != int64(30) {
		t.Errorf("properties = %v", props)
	}
	t.Logf("✓ created and matched node: %+v", repr)
}

func TestSetUpdatesBoundProperty(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Alice", age: 30})`)
	run(t, ex, `MATCH (n:Person) WHERE n.name = "Alice" SET n.age = 31`)

	rows := run(t, ex, `MATCH (n:Person) WHERE n.age = 31 RETURN n`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after SET, got %d", len(rows))
	}
}

func TestCreateMatchWhereBooleanProperty(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Alice", active: true})`)
	run(t, ex, `CREATE (n:Person {name: "Bob", active: false})`)

	rows := run(t, ex, `MATCH (n:Person) WHERE n.active = true RETURN n`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d (%+v)", len(rows), rows)
	}
	repr := rows[0]["n"].(map[string]any)
	props := repr["properties"].(map[string]any)
	if props["name"] != "Alice" {
		t.Errorf("matched node = %v, want Alice", props["name"])
	}
	if props["active"] != true {
		t.Errorf("active = %v, want true", props["active"])
	}
}

func TestCreateRelationshipAndMatchIt(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (a:Person {name: "Alice", age: 30})`)
	run(t, ex, `CREATE (b:Person {name: "Bob", age: 25})`)
	run(t, ex, `MATCH (a:Person) WHERE a.name = "Alice" MATCH (b:Person) WHERE b.name = "Bob" CREATE (a)-[r:KNOWS]->(b)`)

	rows := run(t, ex, `MATCH ()-[r:KNOWS]->() RETURN r`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(rows))
	}
	repr := rows[0]["r"].(map[string]any)
	if repr["type"] != "KNOWS" {
		t.Errorf("type = %v, want KNOWS", repr["type"])
	}
}

func TestDeleteNodeRemovesItFromFutureMatches(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Alice", age: 30})`)
	run(t, ex, `MATCH (n:Person) DELETE n`)

	rows := run(t, ex, `MATCH (n:Person) RETURN n`)
	if len(rows) != 0 {
		t.Errorf("expected 0 rows after delete, got %d", len(rows))
	}
}

func TestReturnDeduplicatesRepeatedIdentifier(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (n:Person {name: "Alice", age: 30})`)

	// n appears twice in the RETURN list; the same bound node must
	// only be reported once.
	rows := run(t, ex, `MATCH (n:Person) RETURN n, n`)
	if len(rows) != 1 {
		t.Fatalf("expected 1 deduplicated row, got %d", len(rows))
	}
}

func TestMultipleCreatePatternsInOneClause(t *testing.T) {
	ex := newTestExecutor(t)
	run(t, ex, `CREATE (a:Person {name: "Alice", age: 30}), (b:Person {name: "Bob", age: 25})`)

	rows := run(t, ex, `MATCH (n:Person) RETURN n`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestSetAgainstUnboundVariableIsError(t *testing.T) {
	ex := newTestExecutor(t)
	tokens, err := lexer.New(`SET n.age = 1`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	ast, err := parser.New(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := ex.Execute(ast); err == nil {
		t.Fatal("expected an error setting a property on an unbound variable")
	}
}
