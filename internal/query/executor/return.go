package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
)

type dedupKey struct {
	varName string
	isEdge  bool
	id      int64
}

// execReturn collects one row per identifier per entity currently
// bound to it, in binding-list order, then in RETURN-list order across
// identifiers. Rows already seen for the same (identifier, kind, id)
// are dropped.
func (ex *Executor) execReturn(env environment, ret *parser.AST) ([]Row, error) {
	var rows []Row
	seen := make(map[dedupKey]bool)

	for _, ident := range ret.Children {
		varName := ident.Value
		b, ok := env[varName]
		if !ok {
			return nil, kiteerr.New(kiteerr.InvalidArgument, "executor.execReturn", "no binding for "+varName)
		}

		switch b.Kind {
		case BindNodes:
			for _, n := range b.Nodes {
				key := dedupKey{varName: varName, id: n.ID}
				if seen[key] {
					continue
				}
				seen[key] = true
				rows = append(rows, Row{varName: nodeRepr(n)})
			}
		case BindEdges:
			for _, e := range b.Edges {
				key := dedupKey{varName: varName, isEdge: true, id: e.ID}
				if seen[key] {
					continue
				}
				seen[key] = true
				rows = append(rows, Row{varName: edgeRepr(e)})
			}
		}
	}
	return rows, nil
}

func nodeRepr(n *record.Node) map[string]any {
	return map[string]any{
		"id":         n.ID,
		"labels":     append([]string(nil), n.Labels...),
		"properties": propsRepr(n.Properties),
	}
}

func edgeRepr(e *record.Edge) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"type":       e.Type,
		"source":     e.Source,
		"target":     e.Target,
		"properties": propsRepr(e.Properties),
	}
}

func propsRepr(props []record.Property) map[string]any {
	out := make(map[string]any, len(props))
	for _, p := range props {
		out[p.Key] = valueRepr(p.Value)
	}
	return out
}

func valueRepr(v record.Value) any {
	switch v.Kind {
	case record.KindInt64:
		return v.I
	case record.KindString:
		return v.S
	case record.KindBool:
		return v.B
	default:
		return nil
	}
}
