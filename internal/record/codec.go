// Package record implements KiteDB's versioned binary codec for node
// and edge records, and the record layer that allocates a fresh page
// for every write.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/kitedb/kitedb/internal/kiteerr"
)

// CurrentVersion is the only record format version this engine
// understands.
const CurrentVersion uint8 = 1

// recordKind tags whether a serialized record is a node or an edge,
// written immediately after the version byte so a boot-time scan over
// raw pages can tell which decoder to use without guessing (see
// DESIGN.md).
type recordKind uint8

const (
	kindNode recordKind = 0
	kindEdge recordKind = 1
)

// PeekKind reports whether the page-prefix bytes at data encode a
// node or an edge, without fully decoding the record. Used by the
// boot-scan index rebuild.
func PeekKind(data []byte) (isNode bool, isEdge bool, err error) {
	const op = "record.PeekKind"
	if len(data) < 2 {
		return false, false, kiteerr.New(kiteerr.Malformed, op, "buffer exhausted reading record prefix")
	}
	if data[0] != CurrentVersion {
		return false, false, kiteerr.New(kiteerr.Malformed, op, "unsupported record version")
	}
	switch recordKind(data[1]) {
	case kindNode:
		return true, false, nil
	case kindEdge:
		return false, true, nil
	default:
		return false, false, kiteerr.New(kiteerr.Malformed, op, "unknown record kind")
	}
}

// ValueKind tags a Property's value. The set of supported kinds is
// closed: int64, string, and bool.
type ValueKind uint8

const (
	KindInt64 ValueKind = iota
	KindString
	KindBool
)

// Value is a tagged union over the closed property-value domain.
type Value struct {
	Kind ValueKind
	I    int64
	S    string
	B    bool
}

func Int(v int64) Value  { return Value{Kind: KindInt64, I: v} }
func Str(v string) Value { return Value{Kind: KindString, S: v} }
func Bool(v bool) Value  { return Value{Kind: KindBool, B: v} }

// Equal compares tag-first, then value-wise.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt64:
		return v.I == o.I
	case KindString:
		return v.S == o.S
	case KindBool:
		return v.B == o.B
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.I)
	case KindString:
		return v.S
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	default:
		return "<invalid>"
	}
}

// Property is a typed key-value pair attached to a node or edge.
type Property struct {
	Key   string
	Value Value
}

// Node is the in-memory form of a property-graph node.
type Node struct {
	ID         int64
	Active     bool
	Labels     []string
	Properties []Property
}

// HasLabel reports whether the node carries label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// GetProperty returns the first property with the given key.
func (n *Node) GetProperty(key string) (Value, bool) {
	for _, p := range n.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Edge is the in-memory form of a directed, typed relationship.
type Edge struct {
	ID         int64
	Active     bool
	Type       string
	Source     int64
	Target     int64
	Properties []Property
}

// GetProperty returns the first property with the given key.
func (e *Edge) GetProperty(key string) (Value, bool) {
	for _, p := range e.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// --- encoding helpers ---

type encoder struct{ buf []byte }

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) i64(v int64)  { e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v)) }
func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) property(p Property) {
	e.str(p.Key)
	e.u8(uint8(p.Value.Kind))
	switch p.Value.Kind {
	case KindInt64:
		e.i64(p.Value.I)
	case KindString:
		e.str(p.Value.S)
	case KindBool:
		if p.Value.B {
			e.u8(1)
		} else {
			e.u8(0)
		}
	}
}

func (e *encoder) properties(props []Property) {
	e.u32(uint32(len(props)))
	for _, p := range props {
		e.property(p)
	}
}

// EncodeNode serializes a node, prefixed with the version and kind
// bytes.
func EncodeNode(n *Node) []byte {
	e := &encoder{}
	e.u8(CurrentVersion)
	e.u8(uint8(kindNode))
	e.i64(n.ID)
	if n.Active {
		e.u8(1)
	} else {
		e.u8(0)
	}
	e.u32(uint32(len(n.Labels)))
	for _, l := range n.Labels {
		e.str(l)
	}
	e.properties(n.Properties)
	return e.buf
}

// EncodeEdge serializes an edge, prefixed with the version and kind
// bytes.
func EncodeEdge(ed *Edge) []byte {
	e := &encoder{}
	e.u8(CurrentVersion)
	e.u8(uint8(kindEdge))
	e.i64(ed.ID)
	if ed.Active {
		e.u8(1)
	} else {
		e.u8(0)
	}
	e.str(ed.Type)
	e.i64(ed.Source)
	e.i64(ed.Target)
	e.properties(ed.Properties)
	return e.buf
}

// --- decoding helpers ---

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int { return len(d.buf) - d.pos }

func (d *decoder) u8(op string) (uint8, error) {
	if d.remaining() < 1 {
		return 0, kiteerr.New(kiteerr.Malformed, op, "buffer exhausted reading uint8")
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u32(op string) (uint32, error) {
	if d.remaining() < 4 {
		return 0, kiteerr.New(kiteerr.Malformed, op, "buffer exhausted reading uint32")
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) i64(op string) (int64, error) {
	if d.remaining() < 8 {
		return 0, kiteerr.New(kiteerr.Malformed, op, "buffer exhausted reading int64")
	}
	v := int64(binary.LittleEndian.Uint64(d.buf[d.pos : d.pos+8]))
	d.pos += 8
	return v, nil
}

func (d *decoder) str(op string) (string, error) {
	n, err := d.u32(op)
	if err != nil {
		return "", err
	}
	if d.remaining() < int(n) {
		return "", kiteerr.New(kiteerr.Malformed, op, "buffer exhausted reading string")
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) property(op string) (Property, error) {
	key, err := d.str(op)
	if err != nil {
		return Property{}, err
	}
	tag, err := d.u8(op)
	if err != nil {
		return Property{}, err
	}
	switch ValueKind(tag) {
	case KindInt64:
		v, err := d.i64(op)
		if err != nil {
			return Property{}, err
		}
		return Property{Key: key, Value: Int(v)}, nil
	case KindString:
		v, err := d.str(op)
		if err != nil {
			return Property{}, err
		}
		return Property{Key: key, Value: Str(v)}, nil
	case KindBool:
		v, err := d.u8(op)
		if err != nil {
			return Property{}, err
		}
		return Property{Key: key, Value: Bool(v != 0)}, nil
	default:
		return Property{}, kiteerr.New(kiteerr.TypeError, op, fmt.Sprintf("unsupported property type tag %d", tag))
	}
}

func (d *decoder) properties(op string) ([]Property, error) {
	count, err := d.u32(op)
	if err != nil {
		return nil, err
	}
	props := make([]Property, 0, count)
	for i := uint32(0); i < count; i++ {
		p, err := d.property(op)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// DecodeNode parses a node from its serialized (version-prefixed)
// form, bounds-checking every length against the remaining buffer.
func DecodeNode(data []byte) (*Node, error) {
	const op = "record.DecodeNode"
	d := &decoder{buf: data}

	version, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	if version != CurrentVersion {
		return nil, kiteerr.New(kiteerr.Malformed, op, fmt.Sprintf("unsupported record version %d", version))
	}
	kind, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	if recordKind(kind) != kindNode {
		return nil, kiteerr.New(kiteerr.Malformed, op, "record is not a node")
	}

	id, err := d.i64(op)
	if err != nil {
		return nil, err
	}
	activeByte, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	labelCount, err := d.u32(op)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, labelCount)
	for i := uint32(0); i < labelCount; i++ {
		l, err := d.str(op)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	props, err := d.properties(op)
	if err != nil {
		return nil, err
	}

	return &Node{
		ID:         id,
		Active:     activeByte != 0,
		Labels:     labels,
		Properties: props,
	}, nil
}

// DecodeEdge parses an edge from its serialized (version-prefixed)
// form, bounds-checking every length against the remaining buffer.
func DecodeEdge(data []byte) (*Edge, error) {
	const op = "record.DecodeEdge"
	d := &decoder{buf: data}

	version, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	if version != CurrentVersion {
		return nil, kiteerr.New(kiteerr.Malformed, op, fmt.Sprintf("unsupported record version %d", version))
	}
	kind, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	if recordKind(kind) != kindEdge {
		return nil, kiteerr.New(kiteerr.Malformed, op, "record is not an edge")
	}

	id, err := d.i64(op)
	if err != nil {
		return nil, err
	}
	activeByte, err := d.u8(op)
	if err != nil {
		return nil, err
	}
	typ, err := d.str(op)
	if err != nil {
		return nil, err
	}
	source, err := d.i64(op)
	if err != nil {
		return nil, err
	}
	target, err := d.i64(op)
	if err != nil {
		return nil, err
	}
	props, err := d.properties(op)
	if err != nil {
		return nil, err
	}

	return &Edge{
		ID:         id,
		Active:     activeByte != 0,
		Type:       typ,
		Source:     source,
		Target:     target,
		Properties: props,
	}, nil
}
