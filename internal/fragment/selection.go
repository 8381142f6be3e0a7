package fragment

import (
	"fmt"

	"github.com/dgallion1/docrange/internal/doctree"
)

// SelectRange returns the run of ancestor's direct children from the child
// containing start through the child containing end, inclusive. Selection is
// by containment since markers usually sit several levels below the selected
// child. When end precedes start the run is taken in document order. Nothing
// is modified.
func SelectRange(t *doctree.Tree, ancestor, start, end doctree.NodeID) ([]doctree.NodeID, error) {
	kids := t.Children(ancestor)
	first, last := -1, -1
	for i, c := range kids {
		if first < 0 && t.Contains(c, start) {
			first = i
		}
		if last < 0 && t.Contains(c, end) {
			last = i
		}
		if first >= 0 && last >= 0 {
			break
		}
	}
	if first < 0 || last < 0 {
		return nil, fmt.Errorf("select below %d: markers not under ancestor: %w", ancestor, ErrTemplateMalformed)
	}
	if first > last {
		first, last = last, first
	}
	return append([]doctree.NodeID(nil), kids[first:last+1]...), nil
}

// CopySelection deep-copies sel (nodes of src) as the children of a fresh
// tree's body, then strips the markers of rangeID from the copy.
func CopySelection(src *doctree.Tree, sel []doctree.NodeID, rangeID string) (*doctree.Tree, error) {
	dst := doctree.New()
	for _, id := range sel {
		if _, err := src.CopyInto(dst, dst.Root(), id); err != nil {
			return nil, err
		}
	}
	dst.StripMarkers(dst.Root(), rangeID)
	return dst, nil
}
