package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/docrange/internal/fragment"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownParser handles Markdown files using goldmark. The source is
// rendered to HTML with raw HTML kept, so range marker comments survive, and
// the result is imported by HTMLParser. GFM tables become table nodes.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*fragment.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return (&HTMLParser{}).Parse(&buf, filename)
}
