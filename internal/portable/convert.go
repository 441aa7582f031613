package portable

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	paragraphRe = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// blockSpec is the shape a text block takes inside a container.
type blockSpec struct {
	style    string
	listItem string
	level    int
}

// converter walks an HTML tree depth-first. At most one text block is open
// at a time and it is always the last element of blocks.
type converter struct {
	blocks []Block
	open   bool

	specs []blockSpec // enclosing block containers, innermost last
	lists []string    // enclosing list kinds, innermost last
	marks []string    // active decorators

	linkHref string
	linkKey  string
}

// Convert turns a post's HTML into an ordered block sequence. Empty or
// whitespace-only markup yields an empty, non-nil slice.
func Convert(markup string) ([]Block, error) {
	if strings.TrimSpace(markup) == "" {
		return []Block{}, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing post markup: %w", err)
	}

	c := &converter{blocks: []Block{}}
	for _, n := range nodes {
		c.walk(n)
	}
	c.closeBlock()
	return c.blocks, nil
}

func (c *converter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.text(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return

	case atom.P:
		if c.inListItem() {
			// <li><p>..</p></li> keeps the item's block.
			c.children(n)
			return
		}
		style := StyleNormal
		if c.inQuote() {
			style = StyleBlockquote
		}
		c.container(n, blockSpec{style: style})

	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		c.container(n, blockSpec{style: n.Data})

	case atom.Blockquote:
		c.container(n, blockSpec{style: StyleBlockquote})

	case atom.Ul, atom.Ol:
		kind := ListBullet
		if n.DataAtom == atom.Ol {
			kind = ListNumber
		}
		// Text after a nested list starts a new block at the enclosing
		// item's level. Appending it to the item's first block would
		// render it above the nested items.
		c.closeBlock()
		c.lists = append(c.lists, kind)
		c.children(n)
		c.lists = c.lists[:len(c.lists)-1]
		c.closeBlock()

	case atom.Li:
		kind, level := ListBullet, len(c.lists)
		if level == 0 {
			level = 1
		} else {
			kind = c.lists[level-1]
		}
		c.container(n, blockSpec{style: StyleNormal, listItem: kind, level: level})

	case atom.Img:
		c.closeBlock()
		src := attr(n, "src")
		if src == "" {
			return
		}
		c.blocks = append(c.blocks, NewImageBlock(src, attr(n, "alt")))

	case atom.Br:
		if c.open {
			c.appendText("\n")
		}

	case atom.Strong, atom.B:
		c.withMark(n, "strong")
	case atom.Em, atom.I:
		c.withMark(n, "em")
	case atom.Code:
		c.withMark(n, "code")
	case atom.U:
		c.withMark(n, "underline")
	case atom.S, atom.Del, atom.Strike:
		c.withMark(n, "strike-through")

	case atom.A:
		href := attr(n, "href")
		if href == "" || c.linkHref != "" {
			c.children(n)
			return
		}
		c.linkHref, c.linkKey = href, ""
		c.children(n)
		c.linkHref, c.linkKey = "", ""

	default:
		c.children(n)
	}
}

func (c *converter) children(n *html.Node) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.walk(ch)
	}
}

// container opens a fresh block scope for n. Content after an inner image
// continues in a new block of the same shape.
func (c *converter) container(n *html.Node, spec blockSpec) {
	c.closeBlock()
	c.specs = append(c.specs, spec)
	c.openBlock()
	c.children(n)
	c.closeBlock()
	c.specs = c.specs[:len(c.specs)-1]
}

func (c *converter) withMark(n *html.Node, mark string) {
	c.marks = append(c.marks, mark)
	c.children(n)
	c.marks = c.marks[:len(c.marks)-1]
}

func (c *converter) inListItem() bool {
	return len(c.specs) > 0 && c.specs[len(c.specs)-1].listItem != ""
}

func (c *converter) inQuote() bool {
	for _, s := range c.specs {
		if s.style == StyleBlockquote {
			return true
		}
	}
	return false
}

func (c *converter) text(raw string) {
	if len(c.specs) == 0 {
		// Bare top-level text: blank lines separate paragraphs the way
		// the classic editor stores them.
		parts := paragraphRe.Split(raw, -1)
		for i, part := range parts {
			if i > 0 {
				c.closeBlock()
			}
			c.inline(part)
		}
		return
	}
	c.inline(raw)
}

func (c *converter) inline(raw string) {
	text := spaceRe.ReplaceAllString(raw, " ")
	if !c.open {
		if strings.TrimSpace(text) == "" {
			return
		}
		c.openBlock()
	}
	c.appendText(text)
}

func (c *converter) openBlock() {
	spec := blockSpec{style: StyleNormal}
	if len(c.specs) > 0 {
		spec = c.specs[len(c.specs)-1]
	}
	b := NewTextBlock(spec.style)
	b.ListItem = spec.listItem
	b.Level = spec.level
	c.blocks = append(c.blocks, b)
	c.open = true
	c.linkKey = ""
}

func (c *converter) appendText(text string) {
	b := &c.blocks[len(c.blocks)-1]

	marks := make([]string, 0, len(c.marks)+1)
	for _, m := range c.marks {
		if !slices.Contains(marks, m) {
			marks = append(marks, m)
		}
	}
	if c.linkHref != "" {
		if c.linkKey == "" {
			c.linkKey = NewKey()
			b.MarkDefs = append(b.MarkDefs, MarkDef{Type: TypeLink, Key: c.linkKey, Href: c.linkHref})
		}
		marks = append(marks, c.linkKey)
	}

	if n := len(b.Children); n > 0 && slices.Equal(b.Children[n-1].Marks, marks) {
		b.Children[n-1].Text += text
		return
	}
	b.Children = append(b.Children, Span{Type: TypeSpan, Key: NewKey(), Text: text, Marks: marks})
}

// closeBlock trims the open block and drops it if nothing is left.
func (c *converter) closeBlock() {
	if !c.open {
		return
	}
	c.open = false
	c.linkKey = ""

	last := len(c.blocks) - 1
	b := &c.blocks[last]
	if len(b.Children) > 0 {
		b.Children[0].Text = strings.TrimLeft(b.Children[0].Text, " \n")
		end := len(b.Children) - 1
		b.Children[end].Text = strings.TrimRight(b.Children[end].Text, " \n")
	}
	kept := b.Children[:0]
	for _, sp := range b.Children {
		if sp.Text != "" {
			kept = append(kept, sp)
		}
	}
	b.Children = kept
	if len(b.Children) == 0 {
		c.blocks = c.blocks[:last]
		return
	}

	used := make(map[string]bool)
	for _, sp := range b.Children {
		for _, m := range sp.Marks {
			used[m] = true
		}
	}
	defs := b.MarkDefs[:0]
	for _, d := range b.MarkDefs {
		if used[d.Key] {
			defs = append(defs, d)
		}
	}
	b.MarkDefs = defs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
