// Package graph implements KiteDB's graph manager: id allocation and
// node/edge CRUD, coordinating the record layer and the in-memory
// index above it.
package graph

import (
	"sort"

	"github.com/kitedb/kitedb/internal/index"
	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/kitelog"
	"github.com/kitedb/kitedb/internal/record"
)

// Manager owns the monotonic id counters and the label index,
// coordinating reads and writes through the record layer.
type Manager struct {
	records *record.Layer
	index   *index.Index
	log     *kitelog.Logger

	nextNodeID int64
	nextEdgeID int64
}

// New builds a graph manager with fresh (empty) state. Use Rebuild to
// repopulate the index and counters by scanning an existing file.
func New(records *record.Layer, log *kitelog.Logger) *Manager {
	if log == nil {
		log = kitelog.Default
	}
	return &Manager{
		records:    records,
		index:      index.New(),
		log:        log,
		nextNodeID: 1,
		nextEdgeID: 1,
	}
}

// AddNode assigns a fresh id, writes the record, updates the primary
// and label indexes, and returns the stored node.
func (m *Manager) AddNode(labels []string, props []record.Property) (*record.Node, error) {
	n := &record.Node{
		ID:         m.nextNodeID,
		Active:     true,
		Labels:     append([]string(nil), labels...),
		Properties: append([]record.Property(nil), props...),
	}

	pageID, err := m.records.WriteNode(n)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "graph.AddNode", err)
	}
	if err := m.index.InsertNode(n.ID, pageID); err != nil {
		return nil, err
	}
	for _, l := range n.Labels {
		m.index.AddLabel(l, n.ID)
	}

	m.nextNodeID++
	m.log.Debugf("added node %d with labels %v", n.ID, n.Labels)
	return n, nil
}

// AddEdge assigns a fresh id and writes the edge. source and target
// must be ids that were assigned to some node; they need not still be
// active, since edges are allowed to dangle onto deleted nodes.
func (m *Manager) AddEdge(typ string, source, target int64, props []record.Property) (*record.Edge, error) {
	if typ == "" {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "graph.AddEdge", "relationship type is required")
	}
	if !m.wasAssignedNode(source) {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "graph.AddEdge", "source node id was never assigned")
	}
	if !m.wasAssignedNode(target) {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "graph.AddEdge", "target node id was never assigned")
	}

	e := &record.Edge{
		ID:         m.nextEdgeID,
		Active:     true,
		Type:       typ,
		Source:     source,
		Target:     target,
		Properties: append([]record.Property(nil), props...),
	}

	pageID, err := m.records.WriteEdge(e)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "graph.AddEdge", err)
	}
	if err := m.index.InsertEdge(e.ID, pageID); err != nil {
		return nil, err
	}

	m.nextEdgeID++
	m.log.Debugf("added edge %d (%s) %d->%d", e.ID, e.Type, e.Source, e.Target)
	return e, nil
}

func (m *Manager) wasAssignedNode(id int64) bool {
	return id >= 1 && id < m.nextNodeID
}

// GetNode returns node id if it is indexed and active.
func (m *Manager) GetNode(id int64) (*record.Node, error) {
	pageID, err := m.index.LookupNode(id)
	if err != nil {
		return nil, err
	}
	n, err := m.records.ReadNode(pageID)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.Malformed, "graph.GetNode", err)
	}
	if !n.Active {
		return nil, kiteerr.New(kiteerr.NotActive, "graph.GetNode", "node is not active")
	}
	return n, nil
}

// GetEdge returns edge id if it is indexed and active.
func (m *Manager) GetEdge(id int64) (*record.Edge, error) {
	pageID, err := m.index.LookupEdge(id)
	if err != nil {
		return nil, err
	}
	e, err := m.records.ReadEdge(pageID)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.Malformed, "graph.GetEdge", err)
	}
	if !e.Active {
		return nil, kiteerr.New(kiteerr.NotActive, "graph.GetEdge", "edge is not active")
	}
	return e, nil
}

// mergeProperties applies patch onto base, last-write-wins by key,
// preserving keys not present in patch.
func mergeProperties(base []record.Property, patch []record.Property) []record.Property {
	merged := append([]record.Property(nil), base...)
	for _, p := range patch {
		found := false
		for i := range merged {
			if merged[i].Key == p.Key {
				merged[i].Value = p.Value
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, p)
		}
	}
	return merged
}

// UpdateNode merges patch into node id's properties, writes a fresh
// page, and repoints the index. The old page is never reclaimed.
func (m *Manager) UpdateNode(id int64, patch []record.Property) (*record.Node, error) {
	current, err := m.GetNode(id)
	if err != nil {
		return nil, err
	}

	merged := &record.Node{
		ID:         current.ID,
		Active:     true,
		Labels:     current.Labels,
		Properties: mergeProperties(current.Properties, patch),
	}

	newPageID, err := m.records.WriteNode(merged)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "graph.UpdateNode", err)
	}
	if err := m.index.UpdateNode(id, newPageID); err != nil {
		return nil, err
	}

	m.log.Debugf("updated node %d", id)
	return merged, nil
}

// UpdateEdge merges patch into edge id's properties, writes a fresh
// page, and repoints the index.
func (m *Manager) UpdateEdge(id int64, patch []record.Property) (*record.Edge, error) {
	current, err := m.GetEdge(id)
	if err != nil {
		return nil, err
	}

	merged := &record.Edge{
		ID:         current.ID,
		Active:     true,
		Type:       current.Type,
		Source:     current.Source,
		Target:     current.Target,
		Properties: mergeProperties(current.Properties, patch),
	}

	newPageID, err := m.records.WriteEdge(merged)
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.IoError, "graph.UpdateEdge", err)
	}
	if err := m.index.UpdateEdge(id, newPageID); err != nil {
		return nil, err
	}

	m.log.Debugf("updated edge %d", id)
	return merged, nil
}

// DeleteNode marks node id inactive, writes the inactive record (so a
// future scan-based rebuild would skip it), then removes it from the
// primary and label indexes. Does not cascade to incident edges, which
// are left dangling.
func (m *Manager) DeleteNode(id int64) error {
	current, err := m.GetNode(id)
	if err != nil {
		return err
	}

	inactive := &record.Node{
		ID:         current.ID,
		Active:     false,
		Labels:     current.Labels,
		Properties: current.Properties,
	}
	if _, err := m.records.WriteNode(inactive); err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "graph.DeleteNode", err)
	}

	if err := m.index.DeleteNode(id); err != nil {
		return err
	}
	m.index.RemoveAllLabels(current.Labels, id)

	m.log.Debugf("deleted node %d", id)
	return nil
}

// DeleteEdge marks edge id inactive, writes the inactive record, then
// removes it from the primary index.
func (m *Manager) DeleteEdge(id int64) error {
	current, err := m.GetEdge(id)
	if err != nil {
		return err
	}

	inactive := &record.Edge{
		ID:         current.ID,
		Active:     false,
		Type:       current.Type,
		Source:     current.Source,
		Target:     current.Target,
		Properties: current.Properties,
	}
	if _, err := m.records.WriteEdge(inactive); err != nil {
		return kiteerr.Wrap(kiteerr.IoError, "graph.DeleteEdge", err)
	}

	if err := m.index.DeleteEdge(id); err != nil {
		return err
	}

	m.log.Debugf("deleted edge %d", id)
	return nil
}

// NodesWithLabel resolves label to its active nodes, in insertion
// order.
func (m *Manager) NodesWithLabel(label string) ([]*record.Node, error) {
	ids := m.index.NodesWithLabel(label)
	nodes := make([]*record.Node, 0, len(ids))
	for _, id := range ids {
		n, err := m.GetNode(id)
		if err != nil {
			if kiteerr.Is(err, kiteerr.NotActive) || kiteerr.Is(err, kiteerr.NotFound) {
				continue
			}
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// EdgesOfType resolves every active edge whose type equals typ, by a
// full scan of the edge index.
func (m *Manager) EdgesOfType(typ string) ([]*record.Edge, error) {
	ids := m.index.AllEdgeIDs()
	edges := make([]*record.Edge, 0)
	for _, id := range ids {
		e, err := m.GetEdge(id)
		if err != nil {
			if kiteerr.Is(err, kiteerr.NotActive) || kiteerr.Is(err, kiteerr.NotFound) {
				continue
			}
			return nil, err
		}
		if e.Type == typ {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// AllNodes resolves every indexed node, in insertion order, for
// administrative enumeration.
func (m *Manager) AllNodes() ([]*record.Node, error) {
	ids := m.index.AllNodeIDs()
	nodes := make([]*record.Node, 0, len(ids))
	for _, id := range ids {
		n, err := m.GetNode(id)
		if err != nil {
			if kiteerr.Is(err, kiteerr.NotActive) || kiteerr.Is(err, kiteerr.NotFound) {
				continue
			}
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// AllEdges resolves every indexed edge, in insertion order, for
// administrative enumeration.
func (m *Manager) AllEdges() ([]*record.Edge, error) {
	ids := m.index.AllEdgeIDs()
	edges := make([]*record.Edge, 0, len(ids))
	for _, id := range ids {
		e, err := m.GetEdge(id)
		if err != nil {
			if kiteerr.Is(err, kiteerr.NotActive) || kiteerr.Is(err, kiteerr.NotFound) {
				continue
			}
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// Rebuild repopulates the index and id counters by scanning every
// page in [1, pageCount). Inactive records are parsed (so their ids
// still count toward the next-id counters) but are not reinserted into
// the index. Pages that fail to parse as a record are skipped rather
// than treated as fatal, since this is a best-effort recovery pass,
// not a consistency check.
func (m *Manager) Rebuild(pageCount uint32) error {
	type nodeState struct {
		page uint32
		node *record.Node
	}
	type edgeState struct {
		page uint32
		edge *record.Edge
	}

	latestNode := make(map[int64]nodeState)
	latestEdge := make(map[int64]edgeState)
	var maxNodeID, maxEdgeID int64

	// A later page always supersedes an earlier one for the same id,
	// since every write allocates a fresh page; scanning in increasing
	// page-id order means the last assignment wins.
	for pageID := uint32(1); pageID < pageCount; pageID++ {
		raw, err := m.records.ReadRaw(pageID)
		if err != nil {
			return kiteerr.Wrap(kiteerr.IoError, "graph.Rebuild", err)
		}

		isNode, isEdge, err := record.PeekKind(raw)
		if err != nil {
			continue
		}

		if isNode {
			n, err := m.records.ReadNode(pageID)
			if err != nil {
				continue
			}
			if n.ID > maxNodeID {
				maxNodeID = n.ID
			}
			latestNode[n.ID] = nodeState{page: pageID, node: n}
			continue
		}

		if isEdge {
			e, err := m.records.ReadEdge(pageID)
			if err != nil {
				continue
			}
			if e.ID > maxEdgeID {
				maxEdgeID = e.ID
			}
			latestEdge[e.ID] = edgeState{page: pageID, edge: e}
		}
	}

	// Reinsert in ascending id order so the index's insertion-order
	// bookkeeping (nodeOrder/edgeOrder) matches original creation order,
	// since ids were assigned monotonically as entities were created.
	nodeIDs := make([]int64, 0, len(latestNode))
	for id := range latestNode {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })
	for _, id := range nodeIDs {
		st := latestNode[id]
		if !st.node.Active {
			continue
		}
		_ = m.index.InsertNode(id, st.page)
		for _, l := range st.node.Labels {
			m.index.AddLabel(l, id)
		}
	}

	edgeIDs := make([]int64, 0, len(latestEdge))
	for id := range latestEdge {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Slice(edgeIDs, func(i, j int) bool { return edgeIDs[i] < edgeIDs[j] })
	for _, id := range edgeIDs {
		st := latestEdge[id]
		if !st.edge.Active {
			continue
		}
		_ = m.index.InsertEdge(id, st.page)
	}

	m.nextNodeID = maxNodeID + 1
	m.nextEdgeID = maxEdgeID + 1
	m.log.Infof("rebuilt index from %d pages (nextNodeID=%d, nextEdgeID=%d)", pageCount-1, m.nextNodeID, m.nextEdgeID)
	return nil
}

// NextNodeID returns the id that would be assigned to the next node
// (for diagnostics only).
func (m *Manager) NextNodeID() int64 { return m.nextNodeID }

// NextEdgeID returns the id that would be assigned to the next edge
// (for diagnostics only).
func (m *Manager) NextEdgeID() int64 { return m.nextEdgeID }

// CurrentNodePage reports the page id the index currently considers
// node id's live serialization, for maintenance sweeps that need to
// tell a superseded page from the current one.
func (m *Manager) CurrentNodePage(id int64) (uint32, bool) {
	page, err := m.index.LookupNode(id)
	if err != nil {
		return 0, false
	}
	return page, true
}

// CurrentEdgePage reports the page id the index currently considers
// edge id's live serialization.
func (m *Manager) CurrentEdgePage(id int64) (uint32, bool) {
	page, err := m.index.LookupEdge(id)
	if err != nil {
		return 0, false
	}
	return page, true
}
