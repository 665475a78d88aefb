package record

import "testing"

func TestEncodeDecodeNodeRoundTrip(t *testing.T) {
	n := &Node{
		ID:     42,
		Active: true,
		Labels: []string{"Person", "User"},
		Properties: []Property{
			{Key: "name", Value: Str("Alice")},
			{Key: "age", Value: Int(30)},
			{Key: "active", Value: Bool(true)},
		},
	}
	got, err := DecodeNode(EncodeNode(n))
	if err != nil {
		t.Fatalf("DecodeNode failed: %v", err)
	}
	if got.ID != n.ID || got.Active != n.Active {
		t.Errorf("got = %+v, want ID/Active %d/%v", got, n.ID, n.Active)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "Person" || got.Labels[1] != "User" {
		t.Errorf("labels = %v, want %v", got.Labels, n.Labels)
	}
	for i, p := range n.Properties {
		if !got.Properties[i].Value.Equal(p.Value) || got.Properties[i].Key != p.Key {
			t.Errorf("property %d = %+v, want %+v", i, got.Properties[i], p)
		}
	}
}

func TestEncodeDecodeEdgeRoundTrip(t *testing.T) {
	e := &Edge{
		ID:         7,
		Active:     true,
		Type:       "KNOWS",
		Source:     1,
		Target:     2,
		Properties: []Property{{Key: "since", Value: Int(2020)}},
	}
	got, err := DecodeEdge(EncodeEdge(e))
	if err != nil {
		t.Fatalf("DecodeEdge failed: %v", err)
	}
	if got.ID != e.ID || got.Type != e.Type || got.Source != e.Source || got.Target != e.Target {
		t.Errorf("got = %+v, want %+v", got, e)
	}
}

func TestPeekKindDistinguishesNodeAndEdge(t *testing.T) {
	nodeBytes := EncodeNode(&Node{ID: 1, Active: true})
	isNode, isEdge, err := PeekKind(nodeBytes)
	if err != nil {
		t.Fatalf("PeekKind(node) failed: %v", err)
	}
	if !isNode || isEdge {
		t.Errorf("PeekKind(node) = (%v, %v), want (true, false)", isNode, isEdge)
	}

	edgeBytes := EncodeEdge(&Edge{ID: 1, Active: true, Type: "X", Source: 1, Target: 2})
	isNode, isEdge, err = PeekKind(edgeBytes)
	if err != nil {
		t.Fatalf("PeekKind(edge) failed: %v", err)
	}
	if isNode || !isEdge {
		t.Errorf("PeekKind(edge) = (%v, %v), want (false, true)", isNode, isEdge)
	}
}

func TestPeekKindRejectsTruncatedBuffer(t *testing.T) {
	if _, _, err := PeekKind([]byte{CurrentVersion}); err == nil {
		t.Fatal("expected an error peeking a 1-byte buffer")
	}
}

func TestDecodeNodeRejectsWrongKind(t *testing.T) {
	edgeBytes := EncodeEdge(&Edge{ID: 1, Active: true, Type: "X", Source: 1, Target: 2})
	if _, err := DecodeNode(edgeBytes); err == nil {
		t.Fatal("expected an error decoding an edge record as a node")
	}
}

func TestDecodeNodeRejectsTruncatedBuffer(t *testing.T) {
	full := EncodeNode(&Node{ID: 1, Active: true, Labels: []string{"Person"}})
	if _, err := DecodeNode(full[:len(full)-2]); err == nil {
		t.Fatal("expected an error decoding a truncated buffer")
	}
}

func TestValueEqual(t *testing.T) {
	if !Int(5).Equal(Int(5)) {
		t.Error("Int(5) should equal Int(5)")
	}
	if Int(5).Equal(Str("5")) {
		t.Error("Int(5) should not equal Str(\"5\") (tag-first comparison)")
	}
}
