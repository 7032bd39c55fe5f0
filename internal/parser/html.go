package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docqa/internal/doctree"
)

// HTMLParser handles HTML files. Page chrome (nav, header, footer) and
// scripts are dropped; tables and lists keep one line per row or item.
// Headings carry their source line in Page when it can be recovered.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "parser: read html")
	}
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, eris.Wrap(err, "parser: parse html")
	}
	lines, locator := headingLines(doc, src), "line"
	if lines == nil {
		locator = ""
	}

	title := stripExt(filename, ".html", ".htm")
	if t := findTitle(doc); t != "" {
		title = t
	}

	b := newTreeBuilder()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				b.heading(level, textContent(n), lines[n])
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Nav, atom.Footer, atom.Header:
				return
			case atom.Table:
				b.text(htmlTableText(n))
				return
			case atom.Ul, atom.Ol:
				b.text(htmlListText(n, ""))
				return
			case atom.Pre:
				b.text(rawText(n))
				return
			case atom.P, atom.Blockquote, atom.Dd, atom.Dt, atom.Caption, atom.Figcaption:
				b.text(textContent(n))
				return
			case atom.Div, atom.Section, atom.Article, atom.Main:
				if !hasBlock(n) {
					b.text(textContent(n))
					return
				}
			}
		}
		if n.Type == html.TextNode {
			b.text(collapse(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, atom.Body); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.build(title, locator), nil
}

// headingLines maps each heading element to the line its start tag is on.
// The tokenizer sees tags in source order; the tree's headings are zipped
// against them and nil is returned when the counts disagree.
func headingLines(doc *html.Node, src []byte) map[*html.Node]int {
	var starts []int
	z := html.NewTokenizer(bytes.NewReader(src))
	line := 1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		start := line
		line += bytes.Count(z.Raw(), []byte("\n"))
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			if headingLevel(atom.Lookup(name)) > 0 {
				starts = append(starts, start)
			}
		}
	}

	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && headingLevel(n.DataAtom) > 0 {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(nodes) != len(starts) {
		return nil
	}
	out := make(map[*html.Node]int, len(nodes))
	for i, n := range nodes {
		out[n] = starts[i]
	}
	return out
}

// blockAtoms start a new paragraph when they appear inside a container.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Pre: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

func hasBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockAtoms[c.DataAtom] || hasBlock(c)) {
			return true
		}
	}
	return false
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// htmlTableText renders each row as "header: cell" pairs. The first row
// supplies headers when it is made of th cells.
func htmlTableText(table *html.Node) string {
	var headers []string
	var rows []string
	for i, tr := range findAll(table, atom.Tr) {
		var cells []string
		allTH := true
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
				continue
			}
			allTH = allTH && c.DataAtom == atom.Th
			cells = append(cells, textContent(c))
		}
		if i == 0 && allTH && len(cells) > 0 {
			headers = cells
			continue
		}
		if r := rowText(headers, cells); r != "" {
			rows = append(rows, r)
		}
	}
	if caption := findElement(table, atom.Caption); caption != nil {
		if t := textContent(caption); t != "" {
			rows = append([]string{t}, rows...)
		}
	}
	return strings.Join(rows, "\n")
}

func htmlListText(list *html.Node, indent string) string {
	n := 1
	if s, err := strconv.Atoi(attr(list, "start")); err == nil {
		n = s
	}
	var lines []string
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.DataAtom != atom.Li {
			continue
		}
		marker := "- "
		if list.DataAtom == atom.Ol {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}
		var nested []string
		var sb strings.Builder
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
				nested = append(nested, htmlListText(c, indent+"  "))
				continue
			}
			collectText(c, &sb)
			sb.WriteByte(' ')
		}
		lines = append(lines, indent+marker+collapse(sb.String()))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

// textContent returns n's text on one line.
func textContent(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return collapse(sb.String())
}

// rawText keeps line breaks, for preformatted blocks.
func rawText(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return strings.Trim(sb.String(), "\n")
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch {
	case n.Type == html.TextNode:
		sb.WriteString(n.Data)
		return
	case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
		return
	case n.DataAtom == atom.Br:
		sb.WriteByte('\n')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findTitle(doc *html.Node) string {
	if n := findElement(doc, atom.Title); n != nil {
		return textContent(n)
	}
	return ""
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, a)...)
	}
	return out
}
