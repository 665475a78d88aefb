package executor

import "github.com/kitedb/kitedb/internal/record"

// BindingKind tags whether a Binding holds nodes or edges.
type BindingKind int

const (
	BindNodes BindingKind = iota
	BindEdges
)

// Binding is a query variable's current value: either a list of nodes
// or a list of edges, never both.
type Binding struct {
	Kind  BindingKind
	Nodes []*record.Node
	Edges []*record.Edge
}

// environment maps query variable names to their current binding, for
// a single transaction.
type environment map[string]*Binding

func (env environment) appendNodes(name string, nodes ...*record.Node) {
	if name == "" {
		return
	}
	b, ok := env[name]
	if !ok || b.Kind != BindNodes {
		b = &Binding{Kind: BindNodes}
		env[name] = b
	}
	b.Nodes = append(b.Nodes, nodes...)
}

func (env environment) appendEdges(name string, edges ...*record.Edge) {
	if name == "" {
		return
	}
	b, ok := env[name]
	if !ok || b.Kind != BindEdges {
		b = &Binding{Kind: BindEdges}
		env[name] = b
	}
	b.Edges = append(b.Edges, edges...)
}

func (env environment) setNodes(name string, nodes []*record.Node) {
	if name == "" {
		return
	}
	env[name] = &Binding{Kind: BindNodes, Nodes: nodes}
}

func (env environment) setEdges(name string, edges []*record.Edge) {
	if name == "" {
		return
	}
	env[name] = &Binding{Kind: BindEdges, Edges: edges}
}
