// Package index implements KiteDB's in-memory primary and label
// indexes. All three maps live only in memory; the graph manager that
// owns an Index is responsible for repopulating it from disk after a
// restart.
package index

import "github.com/kitedb/kitedb/internal/kiteerr"

// Index holds the node/edge primary maps and the label inverted map.
// It performs straight CRUD with exact-existence checks; the label
// index's maintenance (adding/removing ids per label) is the graph
// manager's responsibility, not this package's.
type Index struct {
	nodePages  map[int64]uint32
	nodeOrder  []int64
	edgePages  map[int64]uint32
	edgeOrder  []int64
	labelNodes map[string][]int64
}

// New builds an empty Index.
func New() *Index {
	return &Index{
		nodePages:  make(map[int64]uint32),
		edgePages:  make(map[int64]uint32),
		labelNodes: make(map[string][]int64),
	}
}

// InsertNode records that node id's current serialization lives on
// page. Fails with DuplicateId if id is already indexed.
func (ix *Index) InsertNode(id int64, page uint32) error {
	if _, exists := ix.nodePages[id]; exists {
		return kiteerr.New(kiteerr.DuplicateId, "index.InsertNode", "node id already indexed")
	}
	ix.nodePages[id] = page
	ix.nodeOrder = append(ix.nodeOrder, id)
	return nil
}

// LookupNode returns the page holding node id's current
// serialization.
func (ix *Index) LookupNode(id int64) (uint32, error) {
	page, ok := ix.nodePages[id]
	if !ok {
		return 0, kiteerr.New(kiteerr.NotFound, "index.LookupNode", "node id not indexed")
	}
	return page, nil
}

// UpdateNode repoints id's index entry to a new page.
func (ix *Index) UpdateNode(id int64, newPage uint32) error {
	if _, ok := ix.nodePages[id]; !ok {
		return kiteerr.New(kiteerr.NotFound, "index.UpdateNode", "node id not indexed")
	}
	ix.nodePages[id] = newPage
	return nil
}

// DeleteNode removes id from the primary node index.
func (ix *Index) DeleteNode(id int64) error {
	if _, ok := ix.nodePages[id]; !ok {
		return kiteerr.New(kiteerr.NotFound, "index.DeleteNode", "node id not indexed")
	}
	delete(ix.nodePages, id)
	for i, existing := range ix.nodeOrder {
		if existing == id {
			ix.nodeOrder = append(ix.nodeOrder[:i], ix.nodeOrder[i+1:]...)
			break
		}
	}
	return nil
}

// InsertEdge records that edge id's current serialization lives on
// page. Fails with DuplicateId if id is already indexed.
func (ix *Index) InsertEdge(id int64, page uint32) error {
	if _, exists := ix.edgePages[id]; exists {
		return kiteerr.New(kiteerr.DuplicateId, "index.InsertEdge", "edge id already indexed")
	}
	ix.edgePages[id] = page
	ix.edgeOrder = append(ix.edgeOrder, id)
	return nil
}

// LookupEdge returns the page holding edge id's current
// serialization.
func (ix *Index) LookupEdge(id int64) (uint32, error) {
	page, ok := ix.edgePages[id]
	if !ok {
		return 0, kiteerr.New(kiteerr.NotFound, "index.LookupEdge", "edge id not indexed")
	}
	return page, nil
}

// UpdateEdge repoints id's index entry to a new page.
func (ix *Index) UpdateEdge(id int64, newPage uint32) error {
	if _, ok := ix.edgePages[id]; !ok {
		return kiteerr.New(kiteerr.NotFound, "index.UpdateEdge", "edge id not indexed")
	}
	ix.edgePages[id] = newPage
	return nil
}

// DeleteEdge removes id from the primary edge index.
func (ix *Index) DeleteEdge(id int64) error {
	if _, ok := ix.edgePages[id]; !ok {
		return kiteerr.New(kiteerr.NotFound, "index.DeleteEdge", "edge id not indexed")
	}
	delete(ix.edgePages, id)
	for i, existing := range ix.edgeOrder {
		if existing == id {
			ix.edgeOrder = append(ix.edgeOrder[:i], ix.edgeOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AddLabel appends id to label's bucket, in insertion order, skipping
// duplicates.
func (ix *Index) AddLabel(label string, id int64) {
	for _, existing := range ix.labelNodes[label] {
		if existing == id {
			return
		}
	}
	ix.labelNodes[label] = append(ix.labelNodes[label], id)
}

// RemoveLabel drops id from label's bucket, removing the bucket
// entirely once it is empty.
func (ix *Index) RemoveLabel(label string, id int64) {
	ids := ix.labelNodes[label]
	for i, existing := range ids {
		if existing == id {
			ix.labelNodes[label] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ix.labelNodes[label]) == 0 {
		delete(ix.labelNodes, label)
	}
}

// RemoveAllLabels scrubs id from every label bucket it appears in,
// dropping empty buckets.
func (ix *Index) RemoveAllLabels(labels []string, id int64) {
	for _, l := range labels {
		ix.RemoveLabel(l, id)
	}
}

// NodesWithLabel returns the ids registered under label, in insertion
// order. The returned slice must not be mutated by the caller.
func (ix *Index) NodesWithLabel(label string) []int64 {
	return ix.labelNodes[label]
}

// AllEdgeIDs returns every indexed edge id in insertion order. There
// is no secondary index by edge type, so callers filtering by type
// scan this list.
func (ix *Index) AllEdgeIDs() []int64 {
	return ix.edgeOrder
}

// AllNodeIDs returns every indexed node id in insertion order, for
// administrative enumeration (e.g. a REPL's SHOW NODES).
func (ix *Index) AllNodeIDs() []int64 {
	return ix.nodeOrder
}
