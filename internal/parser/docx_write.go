package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/fumiama/go-docx"
)

// paragraphAdder is satisfied by both the document body and table cells.
type paragraphAdder interface {
	AddParagraph() *docx.Paragraph
}

// WriteDOCX renders an extracted range as a standalone .docx package.
// Pictures are re-embedded from the SubDocument's own media store; a payload
// go-docx cannot size is written as a bracketed part name instead.
func WriteDOCX(sub *fragment.SubDocument, w io.Writer) error {
	wr := &docxWriter{sub: sub, f: docx.New().WithDefaultTheme()}
	t := sub.Tree
	for _, id := range t.Children(t.Root()) {
		wr.block(wr.f, id, true)
	}
	if wr.err != nil {
		return fmt.Errorf("write docx %s: %w", sub.RangeID, wr.err)
	}
	if _, err := wr.f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx %s: %w", sub.RangeID, err)
	}
	return nil
}

type docxWriter struct {
	sub *fragment.SubDocument
	f   *docx.Docx
	err error
}

// block writes a block-level node. Tables can only be created at body level
// in go-docx, so tables nested in cells are flattened to one paragraph per row.
func (wr *docxWriter) block(dst paragraphAdder, id doctree.NodeID, atBody bool) {
	t := wr.sub.Tree
	n := t.Node(id)
	switch n.Kind {
	case doctree.KindParagraph:
		p := dst.AddParagraph()
		if n.Style != "" {
			p.Style(n.Style)
		}
		for _, c := range n.Children {
			wr.inline(p, c)
		}
	case doctree.KindTable:
		if atBody {
			wr.table(id)
			return
		}
		for _, row := range n.Children {
			var cells []string
			for _, cell := range t.Children(row) {
				cells = append(cells, t.PlainText(cell))
			}
			dst.AddParagraph().AddText(strings.Join(cells, "\t"))
		}
	case doctree.KindWrapper, doctree.KindBody, doctree.KindCell, doctree.KindRow:
		for _, c := range n.Children {
			wr.block(dst, c, atBody)
		}
	case doctree.KindMarker:
	default:
		p := dst.AddParagraph()
		wr.inline(p, id)
	}
}

func (wr *docxWriter) inline(p *docx.Paragraph, id doctree.NodeID) {
	t := wr.sub.Tree
	n := t.Node(id)
	switch n.Kind {
	case doctree.KindText:
		p.AddText(n.Text)
	case doctree.KindDrawing:
		wr.picture(p, n.RelID)
	case doctree.KindHyperlink:
		p.AddLink(t.PlainText(id), n.Text)
	case doctree.KindMarker:
	default:
		for _, c := range n.Children {
			wr.inline(p, c)
		}
	}
}

func (wr *docxWriter) picture(p *docx.Paragraph, relID string) {
	part, ok := wr.sub.Media.Part(relID)
	if !ok {
		wr.err = fmt.Errorf("drawing %s has no media part", relID)
		return
	}
	if _, err := p.AddInlineDrawing(part.Data); err != nil {
		p.AddText("[" + part.Name + "]")
	}
}

func (wr *docxWriter) table(id doctree.NodeID) {
	t := wr.sub.Tree
	rows := t.Children(id)
	cols := 0
	for _, r := range rows {
		if n := len(t.Children(r)); n > cols {
			cols = n
		}
	}
	if len(rows) == 0 || cols == 0 {
		return
	}
	tbl := wr.f.AddTable(len(rows), cols, 0, nil)
	for i, r := range rows {
		cells := t.Children(r)
		for j, out := range tbl.TableRows[i].TableCells {
			if j < len(cells) {
				for _, c := range t.Children(cells[j]) {
					wr.block(out, c, false)
				}
			}
			if len(out.Paragraphs) == 0 {
				out.AddParagraph()
			}
		}
	}
}
