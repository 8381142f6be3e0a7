package parser

import (
	"github.com/dgallion1/docrange/internal/comments"
	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/dgallion1/docrange/internal/media"
)

// builder accumulates a tree and remembers the first append error, so format
// walkers can add nodes without checking every call.
type builder struct {
	tree  *doctree.Tree
	media *media.Store
	err   error
}

func newBuilder() *builder {
	return &builder{tree: doctree.New(), media: media.NewStore()}
}

func (b *builder) root() doctree.NodeID {
	return b.tree.Root()
}

func (b *builder) add(parent doctree.NodeID, n doctree.Node) doctree.NodeID {
	if b.err != nil {
		return doctree.NoNode
	}
	id, err := b.tree.Append(parent, n)
	if err != nil {
		b.err = err
		return doctree.NoNode
	}
	return id
}

func (b *builder) container(parent doctree.NodeID, kind doctree.Kind) doctree.NodeID {
	return b.add(parent, doctree.Node{Kind: kind})
}

// text appends a run holding s under parent.
func (b *builder) text(parent doctree.NodeID, s string) doctree.NodeID {
	run := b.container(parent, doctree.KindRun)
	b.add(run, doctree.Node{Kind: doctree.KindText, Text: s})
	return run
}

// paragraph appends a styled paragraph holding a single run of s.
func (b *builder) paragraph(parent doctree.NodeID, style, s string) doctree.NodeID {
	p := b.add(parent, doctree.Node{Kind: doctree.KindParagraph, Style: style})
	if s != "" {
		b.text(p, s)
	}
	return p
}

func (b *builder) marker(parent doctree.NodeID, role doctree.MarkerKind, rangeID string) doctree.NodeID {
	return b.add(parent, doctree.Node{Kind: doctree.KindMarker, Marker: role, RangeID: rangeID})
}

func (b *builder) drawing(parent doctree.NodeID, relID string) doctree.NodeID {
	return b.add(parent, doctree.Node{Kind: doctree.KindDrawing, RelID: relID})
}

func (b *builder) document() (*fragment.Document, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &fragment.Document{
		Tree:     b.tree,
		Media:    b.media,
		Comments: comments.NewStore(),
	}, nil
}
