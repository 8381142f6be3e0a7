package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docrange/internal/doctree"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree := doc.Tree
	paras := tree.Children(tree.Root())
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if k := tree.Kind(paras[i]); k != doctree.KindParagraph {
			t.Errorf("child[%d]: expected paragraph, got %s", i, k)
		}
		if got := tree.PlainText(paras[i]); got != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, got)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(doc.Tree.Children(doc.Tree.Root())); n != 0 {
		t.Errorf("expected 0 paragraphs, got %d", n)
	}
	if doc.Media == nil || doc.Comments == nil {
		t.Error("expected non-nil media and comment stores")
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	input := "A\n\n\n\nB\n   \n\t\nC"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(doc.Tree.Children(doc.Tree.Root())); n != 3 {
		t.Errorf("expected 3 paragraphs, got %d", n)
	}
}

func TestTextParser_PlacedRangeExtracts(t *testing.T) {
	input := "Intro.\n\nKeep one.\n\nKeep two.\n\nOutro."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "t.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := doc.Tree.PlaceRange("R", "1", "2"); err != nil {
		t.Fatalf("place range: %v", err)
	}
	ids := collectMarkers(doc.Tree)
	if ids["R"] != 2 {
		t.Errorf("expected 2 markers for R, got %d", ids["R"])
	}
}

// collectMarkers counts markers per range id.
func collectMarkers(tree *doctree.Tree) map[string]int {
	out := make(map[string]int)
	tree.Walk(tree.Root(), func(n *doctree.Node) error {
		if n.Kind == doctree.KindMarker {
			out[n.RangeID]++
		}
		return nil
	})
	return out
}
