// Package fragment extracts the region between a pair of range markers into
// a standalone SubDocument: its own tree, its own media store and the
// flattened metadata of the ranges nested in it.
//
// Extraction never modifies the source document. Distinct ranges share no
// mutable state, so callers may extract them concurrently as long as nothing
// writes to the source meanwhile.
package fragment

import (
	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/media"
)

// Document is a loaded template: its tree, the parts its drawings reference,
// and the metadata records of its ranges. Media and Comments may be nil.
type Document struct {
	Tree     *doctree.Tree
	Media    *media.Store
	Comments *comments.Store
}

// SubDocument is an extracted range. It shares no node, relationship id or
// media part with the Document it came from.
type SubDocument struct {
	RangeID  string
	Tree     *doctree.Tree // Body root holding the extracted blocks.
	Media    *media.Store
	Comments []comments.Record // Replies to the range's record, parents first.
}

// Blocks returns the top-level extracted nodes in order.
func (s *SubDocument) Blocks() []doctree.NodeID {
	return s.Tree.Children(s.Tree.Root())
}

// ExtractRange builds the SubDocument for rangeID. Errors are *RangeError;
// no partial SubDocument is ever returned.
func ExtractRange(doc *Document, rangeID string) (*SubDocument, error) {
	if doc.Media == nil {
		return extractFrom(doc, rangeID, media.NewStore())
	}
	return extractFrom(doc, rangeID, doc.Media)
}

// extractFrom is ExtractRange with payloads read from src.
func extractFrom(doc *Document, rangeID string, src media.Source) (*SubDocument, error) {
	t := doc.Tree

	m, err := FindMarkers(t, t.Root(), rangeID)
	if err != nil {
		return nil, rangeErr(rangeID, "find markers", err)
	}
	anc, err := ResolveAncestor(t, m.Start, m.End)
	if err != nil {
		return nil, rangeErr(rangeID, "resolve ancestor", err)
	}
	sel, err := SelectRange(t, anc, m.Start, m.End)
	if err != nil {
		return nil, rangeErr(rangeID, "select range", err)
	}
	cp, err := CopySelection(t, sel, rangeID)
	if err != nil {
		return nil, rangeErr(rangeID, "copy selection", err)
	}

	dst := media.NewStore()
	if doc.Media != nil {
		dst.Reserve(doc.Media)
	}
	// The copy still carries the source relationship ids, so payloads are
	// read exactly as the original nodes reference them.
	if err := media.Relocate(cp, cp.Children(cp.Root()), src, dst); err != nil {
		return nil, rangeErr(rangeID, "relocate media", err)
	}

	return &SubDocument{
		RangeID:  rangeID,
		Tree:     cp,
		Media:    dst,
		Comments: nestedComments(doc.Comments, rangeID),
	}, nil
}

func nestedComments(s *comments.Store, rangeID string) []comments.Record {
	if s == nil {
		return []comments.Record{}
	}
	th, ok := s.Thread(rangeID)
	if !ok {
		return []comments.Record{}
	}
	return comments.Flatten(th.Replies)
}
