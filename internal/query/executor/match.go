package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
)

func (ex *Executor) execMatch(txnID int64, env environment, match *parser.AST) error {
	for _, pattern := range match.Children {
		switch len(pattern.Children) {
		case 1:
			if err := ex.matchNode(env, pattern.Children[0]); err != nil {
				return err
			}
		case 3:
			if err := ex.matchRelationship(env, pattern); err != nil {
				return err
			}
		default:
			return kiteerr.New(kiteerr.InvalidArgument, "executor.execMatch", "malformed pattern node")
		}
	}
	return nil
}

// matchNode requires a label and binds varName to every active node
// carrying it, replacing any prior binding.
func (ex *Executor) matchNode(env environment, nodeAST *parser.AST) error {
	label, ok := nodeAST.Label()
	if !ok {
		return kiteerr.New(kiteerr.InvalidArgument, "executor.matchNode", "MATCH node pattern requires a label")
	}
	nodes, err := ex.graph.NodesWithLabel(label)
	if err != nil {
		return err
	}
	env.setNodes(nodeAST.Value, nodes)
	return nil
}

// matchRelationship requires a type and binds the relationship
// variable (if named) to every active edge of that type, by a full
// scan. Endpoint variables, if named, are bound to the parallel lists
// of source/target nodes, one per matching edge; an edge whose
// endpoint has since been deleted is skipped for that endpoint list
// only, since edges are allowed to dangle.
func (ex *Executor) matchRelationship(env environment, pattern *parser.AST) error {
	left, rel, right := pattern.Children[0], pattern.Children[1], pattern.Children[2]

	relType, ok := rel.RelType()
	if !ok {
		return kiteerr.New(kiteerr.InvalidArgument, "executor.matchRelationship", "MATCH relationship pattern requires a type")
	}
	edges, err := ex.graph.EdgesOfType(relType)
	if err != nil {
		return err
	}
	env.setEdges(rel.Value, edges)

	if left.Value != "" {
		env.setNodes(left.Value, ex.endpointNodes(edges, true))
	}
	if right.Value != "" {
		env.setNodes(right.Value, ex.endpointNodes(edges, false))
	}
	return nil
}

func (ex *Executor) endpointNodes(edges []*record.Edge, source bool) []*record.Node {
	nodes := make([]*record.Node, 0, len(edges))
	for _, e := range edges {
		id := e.Target
		if source {
			id = e.Source
		}
		n, err := ex.graph.GetNode(id)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}
