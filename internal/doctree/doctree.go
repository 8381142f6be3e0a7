package doctree

import (
	"errors"
	"fmt"
)

// NodeID addresses a node within a single Tree. Zero is never a valid node.
type NodeID int

// NoNode is returned where no node exists (e.g. the parent of the root).
const NoNode NodeID = 0

// Kind tags the variant a Node represents.
type Kind int

const (
	KindBody Kind = iota + 1
	KindParagraph
	KindRun
	KindText
	KindTable
	KindRow
	KindCell
	KindHyperlink
	KindWrapper
	KindDrawing
	KindMarker
)

var kindNames = map[Kind]string{
	KindBody:      "body",
	KindParagraph: "paragraph",
	KindRun:       "run",
	KindText:      "text",
	KindTable:     "table",
	KindRow:       "row",
	KindCell:      "cell",
	KindHyperlink: "hyperlink",
	KindWrapper:   "wrapper",
	KindDrawing:   "drawing",
	KindMarker:    "marker",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsContainer reports whether nodes of this kind hold children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindBody, KindParagraph, KindRun, KindTable, KindRow, KindCell, KindHyperlink, KindWrapper:
		return true
	}
	return false
}

// IsInsertable reports whether the kind can legally receive repeated block
// siblings: the document body and table cells.
func (k Kind) IsInsertable() bool {
	return k == KindBody || k == KindCell
}

// IsTransparent reports whether the kind is an indirection wrapper whose
// content stands in for the wrapper itself during searches.
func (k Kind) IsTransparent() bool {
	return k == KindHyperlink || k == KindWrapper
}

// MarkerKind distinguishes the three range marker roles.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota + 1
	MarkerEnd
	MarkerReference
)

func (m MarkerKind) String() string {
	switch m {
	case MarkerStart:
		return "start"
	case MarkerEnd:
		return "end"
	case MarkerReference:
		return "reference"
	}
	return fmt.Sprintf("marker(%d)", int(m))
}

// Node is a single element of the document tree.
type Node struct {
	ID       NodeID
	Kind     Kind
	Parent   NodeID   // Non-owning; used only for ascent.
	Children []NodeID // Containers only.

	Text    string     // Text leaf content, or hyperlink target.
	Style   string     // Paragraph style name (e.g. "Heading1"), empty if none.
	RelID   string     // Drawing leaf: relationship id of the media payload.
	Marker  MarkerKind // Marker leaf role.
	RangeID string     // Marker leaf range id.
}

// IsMarker reports whether n is a range marker, optionally of the given range.
func (n *Node) IsMarker(rangeID string) bool {
	return n.Kind == KindMarker && (rangeID == "" || n.RangeID == rangeID)
}

var (
	// ErrUnknownNode is returned when an id does not address a node of the tree.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNotContainer is returned when children are added to a leaf.
	ErrNotContainer = errors.New("node is not a container")
	// ErrCopyFailure is returned when a node cannot be duplicated.
	ErrCopyFailure = errors.New("node cannot be copied")
	// ErrBadPath is returned when a path does not resolve to a node.
	ErrBadPath = errors.New("invalid node path")
)
