package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/wal"
)

// execDelete deletes every entity currently bound to each named
// identifier, then drops that identifier from the environment.
// DELETE against an unbound identifier is an error; DELETE against an
// identifier bound to an empty list is a no-op.
func (ex *Executor) execDelete(txnID int64, env environment, del *parser.AST) error {
	for _, ident := range del.Children {
		varName := ident.Value
		b, ok := env[varName]
		if !ok {
			return kiteerr.New(kiteerr.InvalidArgument, "executor.execDelete", "no binding for "+varName)
		}

		switch b.Kind {
		case BindNodes:
			for _, n := range b.Nodes {
				if err := ex.graph.DeleteNode(n.ID); err != nil {
					return err
				}
				if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpDeleteNode, ID: n.ID}); err != nil {
					return err
				}
			}
		case BindEdges:
			for _, e := range b.Edges {
				if err := ex.graph.DeleteEdge(e.ID); err != nil {
					return err
				}
				if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpDeleteEdge, ID: e.ID}); err != nil {
					return err
				}
			}
		}

		delete(env, varName)
	}
	return nil
}
