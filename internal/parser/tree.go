package parser

import (
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
)

// treeBuilder nests headings by level and attaches text blocks to the most
// recent heading. Text before any heading lands on the root.
type treeBuilder struct {
	root   *doctree.DocNode
	stack  []*doctree.DocNode
	levels []int
}

func newTreeBuilder() *treeBuilder {
	root := &doctree.DocNode{}
	return &treeBuilder{root: root, stack: []*doctree.DocNode{root}, levels: []int{0}}
}

func (b *treeBuilder) heading(level int, title string, page int) {
	for len(b.stack) > 1 && b.levels[len(b.levels)-1] >= level {
		b.stack = b.stack[:len(b.stack)-1]
		b.levels = b.levels[:len(b.levels)-1]
	}
	n := &doctree.DocNode{Title: title, Page: page}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
	b.levels = append(b.levels, level)
}

func (b *treeBuilder) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1]
	if top.Text != "" {
		top.Text += "\n\n"
	}
	top.Text += t
}

// build returns the finished tree. A document without headings becomes a
// single untitled node; otherwise root text is the preamble.
func (b *treeBuilder) build(title, locator string) *doctree.DocTree {
	tree := &doctree.DocTree{Title: title, Locator: locator, Children: b.root.Children}
	if len(tree.Children) == 0 && b.root.Text != "" {
		tree.Children = []*doctree.DocNode{{Text: b.root.Text}}
		return tree
	}
	tree.Preamble = b.root.Text
	return tree
}

// rowText renders one table row as "header: cell" pairs. Empty cells are
// dropped and cells past the header row are written bare.
func rowText(headers, cells []string) string {
	parts := make([]string, 0, len(cells))
	for j, cell := range cells {
		cell = strings.Join(strings.Fields(cell), " ")
		if cell == "" {
			continue
		}
		if j < len(headers) && headers[j] != "" {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}

func stripExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
