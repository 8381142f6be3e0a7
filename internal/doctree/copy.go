package doctree

import (
	"fmt"
	"slices"
)

// CopyInto deep-copies the subtree rooted at src (a node of t) into dst as
// the last child of parent, and returns the id of the copy. t is not
// modified. A node of unknown kind fails with ErrCopyFailure; dst may then
// hold a partial copy, which the caller discards.
func (t *Tree) CopyInto(dst *Tree, parent NodeID, src NodeID) (NodeID, error) {
	n := t.Node(src)
	if n == nil {
		return NoNode, fmt.Errorf("copy %d: %w", src, ErrUnknownNode)
	}
	if !n.Kind.Valid() {
		return NoNode, fmt.Errorf("copy %s node %d: %w", n.Kind, src, ErrCopyFailure)
	}
	clone := *n
	clone.Children = nil
	id, err := dst.Append(parent, clone)
	if err != nil {
		return NoNode, fmt.Errorf("copy node %d: %w", src, err)
	}
	for _, c := range n.Children {
		if _, err := t.CopyInto(dst, id, c); err != nil {
			return NoNode, err
		}
	}
	return id, nil
}

// StripMarkers detaches every marker of rangeID in the subtree rooted at id
// and returns how many were removed. An empty rangeID strips all markers.
func (t *Tree) StripMarkers(id NodeID, rangeID string) int {
	var found []NodeID
	t.Walk(id, func(n *Node) error {
		if n.IsMarker(rangeID) {
			found = append(found, n.ID)
			return SkipChildren
		}
		return nil
	})
	for _, m := range found {
		t.Detach(m)
	}
	return len(found)
}

// Descendants returns the ids of the subtree rooted at id, pre-order.
func (t *Tree) Descendants(id NodeID) []NodeID {
	var out []NodeID
	t.Walk(id, func(n *Node) error {
		out = append(out, n.ID)
		return nil
	})
	return slices.Clip(out)
}
