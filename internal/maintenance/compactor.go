// Package maintenance implements a background sweep that finds pages
// left behind by the append-only record layer: pages superseded by a
// later update, and pages written by a delete. Neither is freed by the
// core itself (updates leak their old page; deletes write an inactive
// record that a boot-scan must still be able to parse), so this is
// opt-in bookkeeping rather than implicit reuse — the free list it
// builds is diagnostic until a future record-layer change consults it
// when allocating.
package maintenance

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/kitedb/kitedb/internal/graph"
	"github.com/kitedb/kitedb/internal/kitelog"
	"github.com/kitedb/kitedb/internal/record"
)

// pager is the minimal page-scanning surface the compactor needs.
type pager interface {
	PageCount() uint32
}

// reader is the minimal record-reading surface the compactor needs.
type reader interface {
	ReadRaw(pageID uint32) ([]byte, error)
	ReadNode(pageID uint32) (*record.Node, error)
	ReadEdge(pageID uint32) (*record.Edge, error)
}

// Compactor periodically scans every page and tracks which ones no
// longer hold a live entity's current serialization.
type Compactor struct {
	mu        sync.Mutex
	storage   pager
	records   reader
	graph     *graph.Manager
	log       *kitelog.Logger
	freePages []uint32
	cron      *cron.Cron
}

// New builds a Compactor over the given storage, record layer, and
// graph manager.
func New(storage pager, records reader, g *graph.Manager, log *kitelog.Logger) *Compactor {
	if log == nil {
		log = kitelog.Default
	}
	return &Compactor{storage: storage, records: records, graph: g, log: log}
}

// Sweep scans pages [1, pageCount) once and records which ones are
// stale: a node/edge page whose id now resolves to a different page
// in the index (superseded by an update) or no longer resolves at all
// (removed by a delete), or whose record is inactive (written by a
// delete). Pages that fail to parse are left alone.
func (c *Compactor) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []uint32
	pageCount := c.storage.PageCount()
	for pageID := uint32(1); pageID < pageCount; pageID++ {
		raw, err := c.records.ReadRaw(pageID)
		if err != nil {
			continue
		}
		isNode, isEdge, err := record.PeekKind(raw)
		if err != nil {
			continue
		}

		if isNode {
			n, err := c.records.ReadNode(pageID)
			if err != nil {
				continue
			}
			current, ok := c.graph.CurrentNodePage(n.ID)
			if !n.Active || !ok || current != pageID {
				stale = append(stale, pageID)
			}
			continue
		}

		if isEdge {
			e, err := c.records.ReadEdge(pageID)
			if err != nil {
				continue
			}
			current, ok := c.graph.CurrentEdgePage(e.ID)
			if !e.Active || !ok || current != pageID {
				stale = append(stale, pageID)
			}
		}
	}

	c.freePages = stale
	c.log.Infof("compaction sweep found %d stale page(s) out of %d", len(stale), pageCount-1)
}

// StalePageIDs returns the pages found stale by the most recent Sweep.
func (c *Compactor) StalePageIDs() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.freePages...)
}

// StartSchedule runs Sweep on the given cron schedule until Stop is
// called. An empty schedule disables scheduling entirely; embedders
// that only want on-demand sweeps should simply call Sweep directly
// instead of calling StartSchedule.
func (c *Compactor) StartSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(schedule, c.Sweep); err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduled sweeps, if any were started, and waits for
// any in-flight sweep to finish.
func (c *Compactor) Stop() {
	if c.cron != nil {
		ctx := c.cron.Stop()
		<-ctx.Done()
	}
}
