package doctree

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve maps a slash-separated list of child indices, starting at the
// root, to a node id. The empty path (or "/") is the root itself.
func (t *Tree) Resolve(path string) (NodeID, error) {
	cur := t.root
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return cur, nil
	}
	for _, seg := range strings.Split(path, "/") {
		i, err := strconv.Atoi(seg)
		if err != nil {
			return NoNode, fmt.Errorf("resolve %q: segment %q: %w", path, seg, ErrBadPath)
		}
		kids := t.Children(cur)
		if i < 0 || i >= len(kids) {
			return NoNode, fmt.Errorf("resolve %q: index %d of %d: %w", path, i, len(kids), ErrBadPath)
		}
		cur = kids[i]
	}
	return cur, nil
}

// PathOf returns the path of id from the root, or an error if id is not
// attached to the root.
func (t *Tree) PathOf(id NodeID) (string, error) {
	var segs []string
	for cur := id; cur != t.root; {
		p := t.Parent(cur)
		if p == NoNode {
			return "", fmt.Errorf("path of %d: %w", id, ErrBadPath)
		}
		idx := -1
		for i, c := range t.Children(p) {
			if c == cur {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", fmt.Errorf("path of %d: %w", id, ErrBadPath)
		}
		segs = append(segs, strconv.Itoa(idx))
		cur = p
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/"), nil
}

// Placement anchors a range by path in formats that cannot carry markers.
type Placement struct {
	RangeID   string `json:"range_id"`
	StartPath string `json:"start_path"`
	EndPath   string `json:"end_path"`
}

// PlaceRange inserts a Start marker as the first child of the container at
// startPath and an End marker as the last child of the container at endPath.
func (t *Tree) PlaceRange(rangeID, startPath, endPath string) error {
	return t.PlaceRanges([]Placement{{RangeID: rangeID, StartPath: startPath, EndPath: endPath}})
}

// PlaceRanges applies a batch of placements. Every path is resolved against
// the tree as it was before the call, and nothing is inserted unless all of
// them resolve to containers.
func (t *Tree) PlaceRanges(ps []Placement) error {
	type target struct {
		rangeID    string
		start, end NodeID
	}
	targets := make([]target, 0, len(ps))
	for _, p := range ps {
		if p.RangeID == "" {
			return fmt.Errorf("place range: empty range id")
		}
		start, err := t.Resolve(p.StartPath)
		if err != nil {
			return fmt.Errorf("place range %s: %w", p.RangeID, err)
		}
		end, err := t.Resolve(p.EndPath)
		if err != nil {
			return fmt.Errorf("place range %s: %w", p.RangeID, err)
		}
		for _, id := range []NodeID{start, end} {
			if k := t.Kind(id); !k.IsContainer() {
				return fmt.Errorf("place range %s on %s: %w", p.RangeID, k, ErrNotContainer)
			}
		}
		targets = append(targets, target{rangeID: p.RangeID, start: start, end: end})
	}

	// Inserting by id keeps later targets valid after earlier ones shift
	// child indices.
	for _, tg := range targets {
		if _, err := t.Insert(tg.start, 0, Node{Kind: KindMarker, Marker: MarkerStart, RangeID: tg.rangeID}); err != nil {
			return fmt.Errorf("place range %s start: %w", tg.rangeID, err)
		}
		if _, err := t.Append(tg.end, Node{Kind: KindMarker, Marker: MarkerEnd, RangeID: tg.rangeID}); err != nil {
			return fmt.Errorf("place range %s end: %w", tg.rangeID, err)
		}
	}
	return nil
}
