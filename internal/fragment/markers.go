package fragment

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docrange/internal/doctree"
)

// Markers are the marker leaves of one range. Reference is NoNode when the
// range has no display anchor.
type Markers struct {
	Start     doctree.NodeID
	End       doctree.NodeID
	Reference doctree.NodeID
}

var errFound = errors.New("found")

// FindMarkers locates the Start, End and Reference markers of rangeID below
// root, depth-first pre-order. The first marker of each role wins.
func FindMarkers(t *doctree.Tree, root doctree.NodeID, rangeID string) (Markers, error) {
	if rangeID == "" {
		return Markers{}, fmt.Errorf("empty range id: %w", ErrMarkerNotFound)
	}
	var m Markers
	err := t.Walk(root, func(n *doctree.Node) error {
		if !n.IsMarker(rangeID) {
			return nil
		}
		switch n.Marker {
		case doctree.MarkerStart:
			if m.Start == doctree.NoNode {
				m.Start = n.ID
			}
		case doctree.MarkerEnd:
			if m.End == doctree.NoNode {
				m.End = n.ID
			}
		case doctree.MarkerReference:
			if m.Reference == doctree.NoNode {
				m.Reference = n.ID
			}
		}
		if m.Start != doctree.NoNode && m.End != doctree.NoNode && m.Reference != doctree.NoNode {
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return Markers{}, err
	}
	if m.Start == doctree.NoNode {
		return Markers{}, fmt.Errorf("start of range %s: %w", rangeID, ErrMarkerNotFound)
	}
	if m.End == doctree.NoNode {
		return Markers{}, fmt.Errorf("end of range %s: %w", rangeID, ErrMarkerNotFound)
	}
	return m, nil
}

// RangeIDs lists the ids of all ranges with a Start marker below root, in
// document order.
func RangeIDs(t *doctree.Tree, root doctree.NodeID) []string {
	var out []string
	seen := map[string]bool{}
	t.Walk(root, func(n *doctree.Node) error {
		if n.Kind == doctree.KindMarker && n.Marker == doctree.MarkerStart && !seen[n.RangeID] {
			seen[n.RangeID] = true
			out = append(out, n.RangeID)
		}
		return nil
	})
	return out
}
