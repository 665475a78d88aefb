// Package wal implements KiteDB's transaction manager and in-memory
// write-ahead log. Transactions are assigned monotonic ids; operations
// are recorded only after they have already been applied to the graph,
// so the log is a post-facto redo log rather than an intention log —
// it observes outcomes, not intentions, and there is no rollback path.
package wal

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/kitelog"
)

// OpKind tags the shape of a recorded operation.
type OpKind uint8

const (
	OpAddNode OpKind = iota
	OpAddEdge
	OpUpdateNode
	OpUpdateEdge
	OpDeleteNode
	OpDeleteEdge
)

func (k OpKind) String() string {
	switch k {
	case OpAddNode:
		return "AddNode"
	case OpAddEdge:
		return "AddEdge"
	case OpUpdateNode:
		return "UpdateNode"
	case OpUpdateEdge:
		return "UpdateEdge"
	case OpDeleteNode:
		return "DeleteNode"
	case OpDeleteEdge:
		return "DeleteEdge"
	default:
		return "Unknown"
	}
}

// Op is a single recorded operation: what happened to which entity id.
type Op struct {
	Kind OpKind
	ID   int64
}

// transaction holds the ops recorded so far for one open txn.
type transaction struct {
	ops []Op
}

// historyEntry tags a recorded op with the transaction it belongs to, so
// Commit can drop exactly that transaction's entries from the global log.
type historyEntry struct {
	txnID int64
	op    Op
}

// Log is the transaction manager and in-memory WAL. Each method holds
// an internal mutex for its duration.
type Log struct {
	mu      sync.Mutex
	nextID  int64
	open    map[int64]*transaction
	history []historyEntry
	log     *kitelog.Logger
}

// New builds an empty Log. Transaction ids start at 1.
func New(log *kitelog.Logger) *Log {
	if log == nil {
		log = kitelog.Default
	}
	return &Log{
		nextID: 1,
		open:   make(map[int64]*transaction),
		log:    log,
	}
}

// Begin opens a new transaction and returns its id.
func (l *Log) Begin() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	txnID := l.nextID
	l.nextID++
	l.open[txnID] = &transaction{}
	l.log.Debugf("txn %d begun", txnID)
	return txnID
}

// Record appends op to txnID's per-transaction list and to the global
// history, tagged with txnID so Commit can later clear just this
// transaction's entries. The operation must already have been applied
// to the graph; Record does not perform or validate the mutation itself.
func (l *Log) Record(txnID int64, op Op) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.open[txnID]
	if !ok {
		return kiteerr.New(kiteerr.UnknownTransaction, "wal.Record", "operation recorded against an unknown transaction")
	}
	txn.ops = append(txn.ops, op)
	l.history = append(l.history, historyEntry{txnID: txnID, op: op})
	return nil
}

// Commit clears txnID's entries from the global log and drops its
// per-transaction tracking state: the log is in-memory and cleared on
// commit, not an ever-growing audit trail. It stamps a fresh correlation
// id on the batch purely for log tracing; that id is never exposed to
// callers and plays no role in transaction identity.
func (l *Log) Commit(txnID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.open[txnID]
	if !ok {
		return kiteerr.New(kiteerr.UnknownTransaction, "wal.Commit", "commit against an unknown transaction")
	}
	correlationID := uuid.NewString()
	l.log.Debugf("txn %d committed (%d ops, correlation=%s)", txnID, len(txn.ops), correlationID)

	kept := l.history[:0]
	for _, e := range l.history {
		if e.txnID != txnID {
			kept = append(kept, e)
		}
	}
	l.history = kept

	delete(l.open, txnID)
	return nil
}

// Abandon drops txnID's tracking state without committing. There is no
// rollback: any operations already applied to the graph are not
// undone. This exists so a failed query can still release its
// transaction slot.
func (l *Log) Abandon(txnID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.open, txnID)
}

// IsOpen reports whether txnID is still open.
func (l *Log) IsOpen(txnID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.open[txnID]
	return ok
}

// PendingOps returns a copy of the ops recorded so far for txnID.
func (l *Log) PendingOps(txnID int64) ([]Op, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	txn, ok := l.open[txnID]
	if !ok {
		return nil, kiteerr.New(kiteerr.UnknownTransaction, "wal.PendingOps", "unknown transaction")
	}
	return append([]Op(nil), txn.ops...), nil
}

// HistoryLen returns the number of ops recorded against transactions
// that are still open or were abandoned rather than committed; a
// committed transaction's ops are cleared from the log, so this is not
// a lifetime total. Used for diagnostics (the `.stats` REPL surface).
func (l *Log) HistoryLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}
