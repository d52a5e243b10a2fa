// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown flattens a markdown document into the sequence of
// top-level blocks the extractor walks: headings, paragraphs, bullet
// lists and code blocks. Parsing is delegated to goldmark; this package
// only renders the inline content the extractor needs.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Kind classifies a top-level block.
type Kind int

const (
	KindOther Kind = iota
	KindHeading
	KindParagraph
	KindBulletList
	KindCodeBlock
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindBulletList:
		return "bullet_list"
	case KindCodeBlock:
		return "code_block"
	default:
		return "other"
	}
}

// Item is one entry of a bullet list.
type Item struct {
	// Text is the item rendered with inline links kept as [label](dest).
	Text string
	// Title is the leading bold text, if the item starts with one.
	Title string
	// Trailing is the plain text after Title.
	Trailing string
}

// Block is a top-level document node.
type Block struct {
	Kind Kind
	// Depth is the heading level (1-6); zero for other kinds.
	Depth int
	// Text is the plain inline text of a heading or paragraph. Soft line
	// breaks are kept as "\n".
	Text string
	// Items holds the entries of a bullet list.
	Items []Item
	// Code is the verbatim content of a fenced or indented code block.
	Code string
}

// Parser turns markdown source into blocks. A Parser is safe for
// concurrent use.
type Parser struct {
	p parser.Parser
}

// NewParser returns a CommonMark parser.
func NewParser() *Parser {
	return &Parser{p: goldmark.DefaultParser()}
}

// Parse returns the top-level blocks of src in document order.
func (p *Parser) Parse(src []byte) []Block {
	doc := p.p.Parse(text.NewReader(src))
	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, toBlock(n, src))
	}
	return blocks
}

// Parse is a convenience wrapper around a fresh Parser.
func Parse(src []byte) []Block {
	return NewParser().Parse(src)
}

func toBlock(n ast.Node, src []byte) Block {
	switch node := n.(type) {
	case *ast.Heading:
		return Block{Kind: KindHeading, Depth: node.Level, Text: plainText(node, src)}
	case *ast.Paragraph:
		return Block{Kind: KindParagraph, Text: plainText(node, src)}
	case *ast.List:
		if node.IsOrdered() {
			return Block{Kind: KindOther}
		}
		return Block{Kind: KindBulletList, Items: listItems(node, src)}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return Block{Kind: KindCodeBlock, Code: codeContent(n, src)}
	default:
		return Block{Kind: KindOther}
	}
}

func listItems(list *ast.List, src []byte) []Item {
	var items []Item
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		first := li.FirstChild()
		if first == nil {
			items = append(items, Item{})
			continue
		}
		switch first.(type) {
		case *ast.TextBlock, *ast.Paragraph:
		default:
			items = append(items, Item{})
			continue
		}
		item := Item{Text: strings.TrimSpace(renderInline(first, src, true))}
		if strong, ok := first.FirstChild().(*ast.Emphasis); ok && strong.Level == 2 {
			item.Title = strings.TrimSpace(renderInline(strong, src, false))
			var rest strings.Builder
			for c := strong.NextSibling(); c != nil; c = c.NextSibling() {
				writeInline(&rest, c, src, false)
			}
			item.Trailing = strings.TrimSpace(rest.String())
		}
		items = append(items, item)
	}
	return items
}

func codeContent(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func plainText(n ast.Node, src []byte) string {
	return strings.TrimSpace(renderInline(n, src, false))
}

func renderInline(n ast.Node, src []byte, keepLinks bool) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeInline(&b, c, src, keepLinks)
	}
	return b.String()
}

func writeInline(b *strings.Builder, n ast.Node, src []byte, keepLinks bool) {
	switch node := n.(type) {
	case *ast.Text:
		b.Write(node.Segment.Value(src))
		if node.SoftLineBreak() || node.HardLineBreak() {
			b.WriteByte('\n')
		}
	case *ast.String:
		b.Write(node.Value)
	case *ast.Link:
		if !keepLinks {
			b.WriteString(renderInline(node, src, false))
			return
		}
		b.WriteByte('[')
		b.WriteString(renderInline(node, src, false))
		b.WriteString("](")
		b.Write(node.Destination)
		b.WriteByte(')')
	case *ast.AutoLink:
		b.Write(node.URL(src))
	case *ast.RawHTML:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			writeInline(b, c, src, keepLinks)
		}
	}
}
