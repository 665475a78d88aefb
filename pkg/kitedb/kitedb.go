// Package kitedb is the embeddable entry point: Open a database file,
// ExecuteQuery against it, Close it. It wires the storage, buffer
// pool, record layer, index/graph manager, write-ahead log, and query
// pipeline into one instance, and rebuilds the in-memory index from
// the file's existing pages on open.
package kitedb

import (
	"github.com/kitedb/kitedb/internal/config"
	"github.com/kitedb/kitedb/internal/graph"
	"github.com/kitedb/kitedb/internal/kitelog"
	"github.com/kitedb/kitedb/internal/maintenance"
	"github.com/kitedb/kitedb/internal/query/executor"
	"github.com/kitedb/kitedb/internal/query/lexer"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/storage"
	"github.com/kitedb/kitedb/internal/wal"
)

// Row is one RETURN result, keyed by the bound query identifier.
type Row = executor.Row

// DB is an open KiteDB database.
type DB struct {
	storage    *storage.Storage
	bufferPool *storage.BufferPool
	records    *record.Layer
	graph      *graph.Manager
	wal        *wal.Log
	executor   *executor.Executor
	compactor  *maintenance.Compactor
	log        *kitelog.Logger
}

// Open opens (or creates) filename with the given page size and
// buffer pool capacity, rebuilds the index from existing pages, and
// returns a ready-to-use database. Logging is controlled by
// cfg.LogLevel; pass config.Defaults() for the recommended settings.
func Open(filename string, cfg config.Config) (*DB, error) {
	log := kitelog.New("kitedb", kitelog.ParseLevel(cfg.LogLevel), nil)

	store, err := storage.Open(filename, cfg.PageSize, log)
	if err != nil {
		return nil, err
	}

	pool, err := storage.NewBufferPool(store, cfg.BufferPoolCapacity, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	records := record.NewLayer(pool, cfg.PageSize)
	g := graph.New(records, log)
	if err := g.Rebuild(store.PageCount()); err != nil {
		store.Close()
		return nil, err
	}

	walLog := wal.New(log)
	exec := executor.New(g, walLog, log)
	compactor := maintenance.New(store, records, g, log)
	if err := compactor.StartSchedule(cfg.CompactionCron); err != nil {
		store.Close()
		return nil, err
	}

	return &DB{
		storage:    store,
		bufferPool: pool,
		records:    records,
		graph:      g,
		wal:        walLog,
		executor:   exec,
		compactor:  compactor,
		log:        log,
	}, nil
}

// OpenDefault opens filename with config.Defaults().
func OpenDefault(filename string) (*DB, error) {
	return Open(filename, config.Defaults())
}

// ExecuteQuery tokenizes, parses, and executes text inside a single
// transaction, returning its RETURN rows.
func (db *DB) ExecuteQuery(text string) ([]Row, error) {
	tokens, err := lexer.New(text).Tokenize()
	if err != nil {
		return nil, err
	}
	ast, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return db.executor.Execute(ast)
}

// AllNodes returns every node currently in the database, in creation
// order, for administrative enumeration (e.g. a REPL's SHOW NODES).
func (db *DB) AllNodes() ([]*record.Node, error) {
	return db.graph.AllNodes()
}

// AllEdges returns every edge currently in the database, in creation
// order, for administrative enumeration (e.g. a REPL's SHOW EDGES).
func (db *DB) AllEdges() ([]*record.Edge, error) {
	return db.graph.AllEdges()
}

// Stats summarizes the database's current state, for the `.stats` and
// DESCRIBE DATABASE REPL surface.
type Stats struct {
	PageCount      uint32
	CachedPages    int
	NextNodeID     int64
	NextEdgeID     int64
	WALHistoryLen  int
	StalePageCount int
}

// Stats reports the database's current bookkeeping counters.
func (db *DB) Stats() Stats {
	return Stats{
		PageCount:      db.storage.PageCount(),
		CachedPages:    db.bufferPool.Len(),
		NextNodeID:     db.graph.NextNodeID(),
		NextEdgeID:     db.graph.NextEdgeID(),
		WALHistoryLen:  db.wal.HistoryLen(),
		StalePageCount: len(db.compactor.StalePageIDs()),
	}
}

// Compact runs an on-demand maintenance sweep rather than waiting for
// the scheduled one (if any).
func (db *DB) Compact() {
	db.compactor.Sweep()
}

// Close stops the background compactor, drops the buffer pool's cached
// pages (every write already went through to the file), and syncs and
// closes the underlying file. Must be called exactly once.
func (db *DB) Close() error {
	db.compactor.Stop()
	if err := db.bufferPool.Close(); err != nil {
		return err
	}
	return db.storage.Close()
}
