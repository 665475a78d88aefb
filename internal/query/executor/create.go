package executor

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/query/parser"
	"github.com/kitedb/kitedb/internal/record"
	"github.com/kitedb/kitedb/internal/wal"
)

func (ex *Executor) execCreate(txnID int64, env environment, create *parser.AST) error {
	for _, pattern := range create.Children {
		if len(pattern.Children) == 1 {
			if _, err := ex.createNode(txnID, env, pattern.Children[0]); err != nil {
				return err
			}
			continue
		}
		if len(pattern.Children) == 3 {
			if err := ex.createRelationship(txnID, env, pattern); err != nil {
				return err
			}
			continue
		}
		return kiteerr.New(kiteerr.InvalidArgument, "executor.execCreate", "malformed pattern node")
	}
	return nil
}

func (ex *Executor) createNode(txnID int64, env environment, nodeAST *parser.AST) (*record.Node, error) {
	var labels []string
	if label, ok := nodeAST.Label(); ok {
		labels = []string{label}
	}
	props, err := propertiesOf(nodeAST)
	if err != nil {
		return nil, err
	}

	n, err := ex.graph.AddNode(labels, props)
	if err != nil {
		return nil, err
	}
	if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpAddNode, ID: n.ID}); err != nil {
		return nil, err
	}
	env.appendNodes(nodeAST.Value, n)
	return n, nil
}

// createRelationship handles (a)-[r:T {...}]->(b). Each endpoint
// reuses the single node already bound to its variable, if any;
// otherwise a fresh node is created from that endpoint's own
// labels/properties.
func (ex *Executor) createRelationship(txnID int64, env environment, pattern *parser.AST) error {
	left, rel, right := pattern.Children[0], pattern.Children[1], pattern.Children[2]

	sourceID, err := ex.resolveOrCreateEndpoint(txnID, env, left)
	if err != nil {
		return err
	}
	targetID, err := ex.resolveOrCreateEndpoint(txnID, env, right)
	if err != nil {
		return err
	}

	relType, ok := rel.RelType()
	if !ok || relType == "" {
		return kiteerr.New(kiteerr.InvalidArgument, "executor.createRelationship", "relationship pattern is missing a required type")
	}
	props, err := propertiesOf(rel)
	if err != nil {
		return err
	}

	e, err := ex.graph.AddEdge(relType, sourceID, targetID, props)
	if err != nil {
		return err
	}
	if err := ex.log.Record(txnID, wal.Op{Kind: wal.OpAddEdge, ID: e.ID}); err != nil {
		return err
	}
	env.appendEdges(rel.Value, e)
	return nil
}

func (ex *Executor) resolveOrCreateEndpoint(txnID int64, env environment, nodeAST *parser.AST) (int64, error) {
	if nodeAST.Value != "" {
		if b, ok := env[nodeAST.Value]; ok && b.Kind == BindNodes && len(b.Nodes) == 1 {
			return b.Nodes[0].ID, nil
		}
	}
	n, err := ex.createNode(txnID, env, nodeAST)
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}
