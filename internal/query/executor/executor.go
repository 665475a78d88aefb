// Package executor walks a parsed query's AST clause by clause,
// mutating the graph through a per-transaction binding environment and
// producing RETURN rows. Clauses execute in source order; a structural
// failure anywhere aborts the whole query, and anything already
// applied to the graph before the failure is not undone.
package executor

import (
	"strconv"
	"strings"

	"github.com/kitedb/kitedb/internal/graph"
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/kitelog"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/wal"
)

// Row is one RETURN result, keyed by the bound identifier that
// produced it.
type Row map[string]any

// Executor runs parsed queries against a graph manager, recording
// every mutation to the transaction log.
type Executor struct {
	graph *graph.Manager
	log   *wal.Log
	klog  *kitelog.Logger

	envs map[int64]environment
}

// New builds an Executor over graph, recording operations to walLog.
func New(g *graph.Manager, walLog *wal.Log, klog *kitelog.Logger) *Executor {
	if klog == nil {
		klog = kitelog.Default
	}
	return &Executor{
		graph: g,
		log:   walLog,
		klog:  klog,
		envs:  make(map[int64]environment),
	}
}

// Execute runs query (already parsed into a Query AST) inside its own
// transaction: begin, then each clause in order, then commit. On any
// error the transaction is abandoned without rolling back operations
// already applied to the graph.
func (ex *Executor) Execute(query *parser.AST) ([]Row, error) {
	if query.Kind != parser.KindQuery {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "executor.Execute", "root AST node is not a Query")
	}

	txnID := ex.log.Begin()
	env := make(environment)
	ex.envs[txnID] = env
	defer delete(ex.envs, txnID)

	var rows []Row
	for _, clause := range query.Children {
		var err error
		var clauseRows []Row
		switch clause.Kind {
		case parser.KindCreate:
			err = ex.execCreate(txnID, env, clause)
		case parser.KindMatch:
			err = ex.execMatch(txnID, env, clause)
		case parser.KindWhere:
			err = ex.execWhere(env, clause)
		case parser.KindSet:
			err = ex.execSet(txnID, env, clause)
		case parser.KindDelete:
			err = ex.execDelete(txnID, env, clause)
		case parser.KindReturn:
			clauseRows, err = ex.execReturn(env, clause)
		default:
			err = kiteerr.New(kiteerr.InvalidArgument, "executor.Execute", "unexpected clause kind "+clause.Kind.String())
		}
		if err != nil {
			ex.log.Abandon(txnID)
			return nil, err
		}
		rows = append(rows, clauseRows...)
	}

	if err := ex.log.Commit(txnID); err != nil {
		return nil, err
	}
	return rows, nil
}

// literalValue converts a Literal AST node (value + type-tag child)
// into a typed property value.
func literalValue(lit *parser.AST) (record.Value, error) {
	if len(lit.Children) != 1 {
		return record.Value{}, kiteerr.New(kiteerr.InvalidArgument, "executor.literalValue", "malformed literal node")
	}
	switch lit.Children[0].Value {
	case "int":
		n, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return record.Value{}, kiteerr.Wrap(kiteerr.TypeError, "executor.literalValue", err)
		}
		return record.Int(n), nil
	case "string":
		return record.Str(lit.Value), nil
	case "bool":
		return record.Bool(strings.EqualFold(lit.Value, "true")), nil
	default:
		return record.Value{}, kiteerr.New(kiteerr.TypeError, "executor.literalValue", "unknown literal type tag")
	}
}

// propertiesOf converts a pattern node's two-child Property children
// into record properties.
func propertiesOf(n *parser.AST) ([]record.Property, error) {
	lits := n.PropertyLiterals()
	props := make([]record.Property, 0, len(lits))
	for _, p := range lits {
		if len(p.Children) != 2 {
			return nil, kiteerr.New(kiteerr.InvalidArgument, "executor.propertiesOf", "malformed property node")
		}
		val, err := literalValue(p.Children[1])
		if err != nil {
			return nil, err
		}
		props = append(props, record.Property{Key: p.Children[0].Value, Value: val})
	}
	return props, nil
}
