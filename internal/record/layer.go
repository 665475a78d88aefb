package record

import (
	"github.com/kitedb/kitedb/internal/kiteerr"
)

// pool is the minimal buffer-pool surface the record layer needs.
type pool interface {
	GetPage(id uint32) ([]byte, error)
	WritePage(id uint32, data []byte) error
	AllocatePage() (uint32, error)
}

// Layer is KiteDB's record layer: it allocates a fresh page for every
// write and never reuses a page in place, so an update always repoints
// the index entry above it to the newly written page.
type Layer struct {
	pool     pool
	pageSize uint32
}

// NewLayer builds a record layer over pool, whose pages are pageSize
// bytes each.
func NewLayer(pool pool, pageSize uint32) *Layer {
	return &Layer{pool: pool, pageSize: pageSize}
}

func (l *Layer) writeBytes(op string, data []byte) (uint32, error) {
	if uint32(len(data)) > l.pageSize {
		return 0, kiteerr.New(kiteerr.RecordTooLarge, op,
			"serialized record exceeds page size")
	}

	page := make([]byte, l.pageSize)
	copy(page, data)

	pageID, err := l.pool.AllocatePage()
	if err != nil {
		return 0, err
	}
	if err := l.pool.WritePage(pageID, page); err != nil {
		return 0, err
	}
	return pageID, nil
}

// WriteNode serializes n and allocates a fresh page for it.
func (l *Layer) WriteNode(n *Node) (uint32, error) {
	return l.writeBytes("record.WriteNode", EncodeNode(n))
}

// WriteEdge serializes e and allocates a fresh page for it.
func (l *Layer) WriteEdge(e *Edge) (uint32, error) {
	return l.writeBytes("record.WriteEdge", EncodeEdge(e))
}

// ReadRaw fetches the raw bytes of pageID without decoding, for
// boot-scan rebuild which must inspect a page's kind before knowing
// which decoder to use.
func (l *Layer) ReadRaw(pageID uint32) ([]byte, error) {
	return l.pool.GetPage(pageID)
}

// ReadNode fetches the page at pageID and decodes it as a node.
func (l *Layer) ReadNode(pageID uint32) (*Node, error) {
	data, err := l.pool.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return DecodeNode(data)
}

// ReadEdge fetches the page at pageID and decodes it as an edge.
func (l *Layer) ReadEdge(pageID uint32) (*Edge, error) {
	data, err := l.pool.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return DecodeEdge(data)
}
