package doctree

// Snapshot is a nested, JSON-friendly view of a subtree.
type Snapshot struct {
	Kind     string     `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Style    string     `json:"style,omitempty"`
	RelID    string     `json:"rel_id,omitempty"`
	Marker   string     `json:"marker,omitempty"`
	RangeID  string     `json:"range_id,omitempty"`
	Children []Snapshot `json:"children,omitempty"`
}

// Snapshot returns the nested view of the subtree rooted at id.
func (t *Tree) Snapshot(id NodeID) Snapshot {
	n := t.Node(id)
	if n == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Kind:    n.Kind.String(),
		Text:    n.Text,
		Style:   n.Style,
		RelID:   n.RelID,
		RangeID: n.RangeID,
	}
	if n.Kind == KindMarker {
		s.Marker = n.Marker.String()
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, t.Snapshot(c))
	}
	return s
}

// PlainText concatenates the text leaves below id in document order.
func (t *Tree) PlainText(id NodeID) string {
	var buf []byte
	t.Walk(id, func(n *Node) error {
		if n.Kind == KindText {
			buf = append(buf, n.Text...)
		}
		return nil
	})
	return string(buf)
}
