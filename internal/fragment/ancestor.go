package fragment

import (
	"fmt"

	"github.com/dgallion1/docrange/internal/doctree"
)

// ResolveAncestor returns the nearest insertable ancestor holding both start
// and end, in either order.
//
// It ascends from start's parent until the candidate contains end, then keeps
// ascending until the candidate is insertable (a body or a cell). The result
// must also be the nearest insertable ancestor of each marker, so a range
// straddling sibling cells or a table boundary fails with
// ErrTemplateMalformed.
func ResolveAncestor(t *doctree.Tree, start, end doctree.NodeID) (doctree.NodeID, error) {
	if t.Node(start) == nil || t.Node(end) == nil {
		return doctree.NoNode, fmt.Errorf("resolve ancestor: %w", doctree.ErrUnknownNode)
	}

	cur := t.Parent(start)
	for cur != doctree.NoNode && !t.Contains(cur, end) {
		cur = t.Parent(cur)
	}
	if cur == doctree.NoNode {
		return doctree.NoNode, fmt.Errorf("no ancestor of %d contains %d: %w", start, end, ErrTemplateMalformed)
	}

	for cur != doctree.NoNode && !t.Kind(cur).IsInsertable() {
		cur = t.Parent(cur)
	}
	if cur == doctree.NoNode {
		return doctree.NoNode, fmt.Errorf("no insertable ancestor above %d: %w", start, ErrTemplateMalformed)
	}

	if s, e := t.NearestInsertable(start), t.NearestInsertable(end); s != cur || e != cur {
		return doctree.NoNode, fmt.Errorf("range crosses %s boundary (start in %s %d, end in %s %d): %w",
			t.Kind(cur), t.Kind(s), s, t.Kind(e), e, ErrTemplateMalformed)
	}
	return cur, nil
}
