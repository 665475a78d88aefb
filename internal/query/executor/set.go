package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/wal"
)

// execSet applies each var.key = literal assignment to every entity
// currently bound to var, via a single-property merge.
func (ex *Executor) execSet(txnID int64, env environment, set *parser.AST) error {
	for _, assign := range set.Children {
		if len(assign.Children) != 3 {
			return kiteerr.New(kiteerr.InvalidArgument, "executor.execSet", "malformed property-assignment node")
		}
		varName := assign.Children[0].Value
		key := assign.Children[1].Value
		val, err := literalValue(assign.Children[2])
		if err != nil {
			return err
		}

		b, ok := env[varName]
		if !ok {
			return kiteerr.New(kiteerr.InvalidArgument, "executor.execSet", "no binding for "+varName)
		}
		patch := []record.Property{{Key: key, Value: val}}

		switch b.Kind {
		case BindNodes:
			for i, n := range b.Nodes {
				updated, err := ex.graph.UpdateNode(n.ID, patch)
				if err != nil {
					return err
				}
				if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpUpdateNode, ID: n.ID}); err != nil {
					return err
				}
				b.Nodes[i] = updated
			}
		case BindEdges:
			for i, e := range b.Edges {
				updated, err := ex.graph.UpdateEdge(e.ID, patch)
				if err != nil {
					return err
				}
				if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpUpdateEdge, ID: e.ID}); err != nil {
					return err
				}
				b.Edges[i] = updated
			}
		}
	}
	return nil
}
