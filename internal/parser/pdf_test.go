package parser

import (
	"testing"

	"github.com/dgallion1/docrange/internal/doctree"
)

func TestPDFDocument_PagesAndLines(t *testing.T) {
	text := "Page one line A\n\n  Page one line B  \n\fPage two\n\f   \n"
	doc, err := pdfDocument(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := doc.Tree
	pages := tree.Children(tree.Root())
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if k := tree.Kind(pages[0]); k != doctree.KindWrapper {
		t.Errorf("expected wrapper page, got %s", k)
	}
	lines := tree.Children(pages[0])
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines on page 1, got %d", len(lines))
	}
	if got := tree.PlainText(lines[1]); got != "Page one line B" {
		t.Errorf("expected %q, got %q", "Page one line B", got)
	}
}

func TestSplitPages(t *testing.T) {
	if got := splitPages("a\fb\fc"); len(got) != 3 {
		t.Errorf("expected 3 pages, got %d", len(got))
	}
}
