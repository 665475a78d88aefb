package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
)

// execWhere evaluates var.key = literal and filters env[var] in
// place, keeping only entities that carry a property with that key
// whose typed value equals the literal.
func (ex *Executor) execWhere(env environment, where *parser.AST) error {
	expr := where.Children[0]
	if len(expr.Children) != 3 {
		return kiteerr.New(kiteerr.InvalidArgument, "executor.execWhere", "malformed expression node")
	}
	varName := expr.Children[0].Value
	key := expr.Children[1].Value
	want, err := literalValue(expr.Children[2])
	if err != nil {
		return err
	}

	b, ok := env[varName]
	if !ok {
		return kiteerr.New(kiteerr.InvalidArgument, "executor.execWhere", "no binding for "+varName)
	}

	switch b.Kind {
	case BindNodes:
		filtered := b.Nodes[:0]
		for _, n := range b.Nodes {
			if v, ok := n.GetProperty(key); ok && v.Equal(want) {
				filtered = append(filtered, n)
			}
		}
		b.Nodes = filtered
	case BindEdges:
		filtered := b.Edges[:0]
		for _, e := range b.Edges {
			if v, ok := e.GetProperty(key); ok && v.Equal(want) {
				filtered = append(filtered, e)
			}
		}
		b.Edges = filtered
	}
	return nil
}
