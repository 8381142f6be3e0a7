package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/dgallion1/docrange/internal/media"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs, runs, hyperlinks, tables and
// inline or anchored pictures are imported; pictures keep the relationship id
// the package assigned them. Comment anchors are not read, so ranges in DOCX
// templates are placed by path.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*fragment.Document, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docrange-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx %s: %w", filename, err)
	}

	imp := &docxImporter{b: newBuilder(), doc: doc}
	for _, item := range doc.Document.Body.Items {
		imp.block(imp.b.root(), item)
	}
	if imp.err != nil {
		return nil, fmt.Errorf("import docx %s: %w", filename, imp.err)
	}
	return imp.b.document()
}

type docxImporter struct {
	b   *builder
	doc *docx.Docx
	err error
}

func (imp *docxImporter) block(parent doctree.NodeID, item interface{}) {
	switch it := item.(type) {
	case *docx.Paragraph:
		imp.paragraph(parent, it)
	case *docx.Table:
		imp.table(parent, it)
	}
}

func (imp *docxImporter) paragraph(parent doctree.NodeID, para *docx.Paragraph) {
	style := ""
	if para.Properties != nil && para.Properties.Style != nil {
		style = para.Properties.Style.Val
	}
	p := imp.b.add(parent, doctree.Node{Kind: doctree.KindParagraph, Style: style})
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			imp.run(p, c)
		case *docx.Hyperlink:
			target, _ := imp.doc.ReferTarget(c.ID)
			h := imp.b.add(p, doctree.Node{Kind: doctree.KindHyperlink, Text: target})
			imp.run(h, &c.Run)
		}
	}
}

func (imp *docxImporter) run(parent doctree.NodeID, run *docx.Run) {
	r := imp.b.container(parent, doctree.KindRun)
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			imp.b.add(r, doctree.Node{Kind: doctree.KindText, Text: c.Text})
		case *docx.Tab:
			imp.b.add(r, doctree.Node{Kind: doctree.KindText, Text: "\t"})
		case *docx.Drawing:
			if rel := drawingEmbed(c); rel != "" {
				imp.picture(r, rel)
			}
		}
	}
	if run.InstrText != "" && len(run.Children) == 0 {
		imp.b.add(r, doctree.Node{Kind: doctree.KindText, Text: run.InstrText})
	}
}

// picture registers the payload behind rel once and appends a drawing leaf.
// A relationship that does not resolve to a media part is kept as a dangling
// reference; extraction reports it.
func (imp *docxImporter) picture(parent doctree.NodeID, rel string) {
	if _, ok := imp.b.media.Part(rel); !ok {
		if target, err := imp.doc.ReferTarget(rel); err == nil {
			if m := docxMedia(imp.doc, target); m != nil {
				if err := imp.b.media.Add(rel, "media/"+m.Name, m.Data); err != nil && !errors.Is(err, media.ErrDuplicate) {
					imp.err = err
				}
			}
		}
	}
	imp.b.drawing(parent, rel)
}

func (imp *docxImporter) table(parent doctree.NodeID, tbl *docx.Table) {
	t := imp.b.container(parent, doctree.KindTable)
	for _, row := range tbl.TableRows {
		r := imp.b.container(t, doctree.KindRow)
		for _, cell := range row.TableCells {
			c := imp.b.container(r, doctree.KindCell)
			// go-docx decodes a cell's paragraphs and tables into separate
			// slices, so a cell mixing both comes out paragraphs first.
			for _, para := range cell.Paragraphs {
				imp.paragraph(c, para)
			}
			for _, nested := range cell.Tables {
				imp.table(c, nested)
			}
		}
	}
}

func drawingEmbed(d *docx.Drawing) string {
	var g *docx.AGraphic
	switch {
	case d.Inline != nil:
		g = d.Inline.Graphic
	case d.Anchor != nil:
		g = d.Anchor.Graphic
	}
	if g == nil || g.GraphicData == nil || g.GraphicData.Pic == nil || g.GraphicData.Pic.BlipFill == nil {
		return ""
	}
	return g.GraphicData.Pic.BlipFill.Blip.Embed
}

// docxMedia looks a relationship target up in the package's media folder.
// Targets are usually "media/imageN.ext" relative to word/.
func docxMedia(doc *docx.Docx, target string) *docx.Media {
	if m := doc.Media(strings.TrimPrefix(target, "media/")); m != nil {
		return m
	}
	return doc.Media(path.Base(target))
}
