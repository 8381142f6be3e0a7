package parser

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files.
//
// Range markers are HTML comments:
//
//	<!-- range:start ID -->  <!-- range:end ID -->  <!-- range:ref ID -->
//
// Images with data: URIs become drawings backed by the document's media
// store; other image sources are dropped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*fragment.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	imp := &htmlImporter{b: newBuilder(), implicit: make(map[doctree.NodeID]bool)}
	root := imp.b.root()
	if body := findBody(doc); body != nil {
		imp.children(body, root, root)
	} else {
		imp.children(doc, root, root)
	}
	return imp.b.document()
}

type htmlImporter struct {
	b        *builder
	implicit map[doctree.NodeID]bool // Paragraphs opened for bare text in a block.
	images   int
}

func (imp *htmlImporter) children(n *html.Node, parent, block doctree.NodeID) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		imp.node(c, parent, block)
	}
}

// node imports n under parent. block is the nearest block-level container
// (body, cell or wrapper); parent equals block outside paragraphs.
func (imp *htmlImporter) node(n *html.Node, parent, block doctree.NodeID) {
	switch n.Type {
	case html.CommentNode:
		if role, id, ok := parseMarkerComment(n.Data); ok {
			imp.b.marker(parent, role, id)
		}
		return
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			if parent != block {
				imp.b.text(parent, " ")
			}
			return
		}
		imp.b.text(imp.inlineParent(parent, block), collapseSpace(n.Data))
		return
	case html.ElementNode:
	default:
		imp.children(n, parent, block)
		return
	}

	switch n.Data {
	case "script", "style", "head", "title", "template", "noscript":
		return
	case "table":
		t := imp.b.container(block, doctree.KindTable)
		imp.tableRows(n, t)
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "pre", "blockquote", "dt", "dd", "figcaption", "caption":
		para := imp.b.add(block, doctree.Node{Kind: doctree.KindParagraph, Style: htmlStyle(n.Data)})
		imp.children(n, para, block)
	case "div", "section", "article", "main", "ul", "ol", "dl", "header", "footer", "nav", "aside", "figure", "form":
		w := imp.b.container(block, doctree.KindWrapper)
		imp.children(n, w, w)
	case "a":
		h := imp.b.add(imp.inlineParent(parent, block), doctree.Node{Kind: doctree.KindHyperlink, Text: attr(n, "href")})
		imp.children(n, h, block)
	case "img":
		imp.image(n, parent, block)
	case "br":
		imp.b.text(imp.inlineParent(parent, block), "\n")
	default:
		// Inline formatting (b, i, span, code...) carries no structure.
		imp.children(n, parent, block)
	}
}

// inlineParent returns parent when it already holds inline content, or opens
// an implicit paragraph in a block container for stray text.
func (imp *htmlImporter) inlineParent(parent, block doctree.NodeID) doctree.NodeID {
	if parent != block {
		return parent
	}
	t := imp.b.tree
	kids := t.Children(block)
	if len(kids) > 0 && imp.implicit[kids[len(kids)-1]] {
		return kids[len(kids)-1]
	}
	p := imp.b.container(block, doctree.KindParagraph)
	imp.implicit[p] = true
	return p
}

// tableRows imports tr elements beneath n, looking through row groups.
func (imp *htmlImporter) tableRows(n *html.Node, table doctree.NodeID) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			if role, id, ok := parseMarkerComment(c.Data); ok {
				imp.b.marker(table, role, id)
			}
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			imp.tableRows(c, table)
		case "tr":
			row := imp.b.container(table, doctree.KindRow)
			for td := c.FirstChild; td != nil; td = td.NextSibling {
				if td.Type == html.ElementNode && (td.Data == "td" || td.Data == "th") {
					cell := imp.b.container(row, doctree.KindCell)
					imp.children(td, cell, cell)
				}
			}
		}
	}
}

func (imp *htmlImporter) image(n *html.Node, parent, block doctree.NodeID) {
	data, ext, ok := decodeDataURI(attr(n, "src"))
	if !ok {
		return
	}
	imp.images++
	rel := imp.b.media.Register(fmt.Sprintf("media/image%d.%s", imp.images, ext), data)
	run := imp.b.container(imp.inlineParent(parent, block), doctree.KindRun)
	imp.b.drawing(run, rel)
}

// parseMarkerComment recognizes "range:start ID", "range:end ID" and
// "range:ref ID".
func parseMarkerComment(s string) (doctree.MarkerKind, string, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, "", false
	}
	var role doctree.MarkerKind
	switch fields[0] {
	case "range:start":
		role = doctree.MarkerStart
	case "range:end":
		role = doctree.MarkerEnd
	case "range:ref":
		role = doctree.MarkerReference
	default:
		return 0, "", false
	}
	return role, fields[1], true
}

// decodeDataURI decodes "data:image/<type>[;base64],<payload>".
func decodeDataURI(src string) ([]byte, string, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", false
	}
	params := strings.Split(meta, ";")
	ext := "bin"
	if sub, ok := strings.CutPrefix(params[0], "image/"); ok && sub != "" {
		ext, _, _ = strings.Cut(sub, "+")
	}
	if params[len(params)-1] == "base64" {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", false
		}
		return data, ext, true
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", false
	}
	return []byte(data), ext, true
}

func htmlStyle(tag string) string {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "Heading" + tag[1:]
	case "li":
		return "ListParagraph"
	case "blockquote":
		return "Quote"
	case "pre":
		return "Code"
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	lead := len(s) > 0 && (s[0] == ' ' || s[0] == '\n' || s[0] == '\t')
	tail := len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n' || s[len(s)-1] == '\t')
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if tail {
		out += " "
	}
	return out
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
