package parser

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/fumiama/go-docx"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// buildDOCX writes a heading, a picture paragraph and a 1x2 table.
func buildDOCX(t *testing.T, pic []byte) []byte {
	t.Helper()
	f := docx.New().WithDefaultTheme()
	f.AddParagraph().Style("Heading1").AddText("Title")
	p := f.AddParagraph()
	p.AddText("figure: ")
	if _, err := p.AddInlineDrawing(pic); err != nil {
		t.Fatalf("add drawing: %v", err)
	}
	tbl := f.AddTable(1, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("left")
	tbl.TableRows[0].TableCells[1].AddParagraph().AddText("right")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func findKind(tree *doctree.Tree, kind doctree.Kind) []doctree.NodeID {
	var out []doctree.NodeID
	tree.Walk(tree.Root(), func(n *doctree.Node) error {
		if n.Kind == kind {
			out = append(out, n.ID)
		}
		return nil
	})
	return out
}

func TestDOCXParser_Import(t *testing.T) {
	pic := testPNG(t)
	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(buildDOCX(t, pic)), "in.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := doc.Tree

	drawings := findKind(tree, doctree.KindDrawing)
	if len(drawings) != 1 {
		t.Fatalf("expected 1 drawing, got %d", len(drawings))
	}
	rel := tree.Node(drawings[0]).RelID
	part, ok := doc.Media.Part(rel)
	if !ok {
		t.Fatalf("expected media part for %s", rel)
	}
	if !bytes.Equal(part.Data, pic) {
		t.Errorf("expected imported payload to match the embedded png")
	}

	tables := findKind(tree, doctree.KindTable)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if got := tree.PlainText(tables[0]); got != "leftright" {
		t.Errorf("expected table text %q, got %q", "leftright", got)
	}

	var heading bool
	for _, p := range findKind(tree, doctree.KindParagraph) {
		if tree.Node(p).Style == "Heading1" && tree.PlainText(p) == "Title" {
			heading = true
		}
	}
	if !heading {
		t.Error("expected a Heading1 paragraph with text Title")
	}
}

func TestDOCXParser_PlacedRangeRoundTrip(t *testing.T) {
	pic := testPNG(t)
	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(buildDOCX(t, pic)), "in.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := doc.Tree

	figure := tree.Parent(tree.Parent(findKind(tree, doctree.KindDrawing)[0]))
	startPath, err := tree.PathOf(figure)
	if err != nil {
		t.Fatalf("path of figure: %v", err)
	}
	endPath, err := tree.PathOf(findKind(tree, doctree.KindTable)[0])
	if err != nil {
		t.Fatalf("path of table: %v", err)
	}
	if err := tree.PlaceRange("fig", startPath, endPath); err != nil {
		t.Fatalf("place range: %v", err)
	}

	sub, err := fragment.ExtractRange(doc, "fig")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n := len(sub.Blocks()); n != 2 {
		t.Fatalf("expected 2 blocks, got %d", n)
	}
	if sub.Media.Len() != 1 {
		t.Fatalf("expected 1 relocated part, got %d", sub.Media.Len())
	}
	if !bytes.Equal(sub.Media.Parts()[0].Data, pic) {
		t.Error("expected relocated payload to match")
	}

	var out bytes.Buffer
	if err := WriteDOCX(sub, &out); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	back, err := (&DOCXParser{}).Parse(bytes.NewReader(out.Bytes()), "out.docx")
	if err != nil {
		t.Fatalf("reparse written docx: %v", err)
	}
	if n := len(findKind(back.Tree, doctree.KindDrawing)); n != 1 {
		t.Errorf("expected 1 drawing in written docx, got %d", n)
	}
	if n := len(findKind(back.Tree, doctree.KindTable)); n != 1 {
		t.Errorf("expected 1 table in written docx, got %d", n)
	}
	if n := len(findKind(back.Tree, doctree.KindMarker)); n != 0 {
		t.Errorf("expected no markers in written docx, got %d", n)
	}
}
