package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/docqa/internal/doctree"
)

// MaxFileBytes bounds what LoadFile and LoadBytes accept.
const MaxFileBytes = 32 << 20

// LoadFile reads a document from disk and returns its text; see LoadBytes.
func LoadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", eris.Wrapf(err, "parser: stat %s", path)
	}
	if info.Size() > MaxFileBytes {
		return "", eris.Errorf("parser: %s is %d bytes, limit is %d", path, info.Size(), MaxFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "parser: read %s", path)
	}
	return LoadBytes(data, filepath.Base(path))
}

// LoadBytes turns document bytes into the page-marked text the pipeline
// consumes. Plain text is returned unchanged. Structured formats are parsed
// and flattened so each heading or row group becomes a "--- SECTION n ---"
// block.
func LoadBytes(data []byte, filename string) (string, error) {
	if len(data) > MaxFileBytes {
		return "", eris.Errorf("parser: %s is %d bytes, limit is %d", filename, len(data), MaxFileBytes)
	}
	if !utf8.Valid(data) {
		return "", eris.Errorf("parser: %s is not UTF-8 text", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".txt" || ext == "" {
		return string(data), nil
	}

	p, err := ForFile(filename)
	if err != nil {
		return "", err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", eris.Wrapf(err, "parser: %s", filename)
	}
	return Flatten(tree), nil
}

// Flatten writes the preamble, then one marked block per node in document
// order. A block starts with the node's heading path so nested sections
// keep their context once separated. Nodes with a source position get a
// labelled marker such as "--- SECTION 2 [line 14] ---".
func Flatten(tree *doctree.DocTree) string {
	var sb strings.Builder
	if p := strings.TrimSpace(tree.Preamble); p != "" {
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}

	n := 0
	var walk func(nodes []*doctree.DocNode, path []string)
	walk = func(nodes []*doctree.DocNode, path []string) {
		for _, node := range nodes {
			heading := path
			if t := strings.TrimSpace(node.Title); t != "" {
				heading = append(append([]string(nil), path...), t)
			}
			if text := strings.TrimSpace(node.Text); text != "" || len(node.Children) == 0 {
				n++
				if label := locatorLabel(tree.Locator, node.Page); label != "" {
					fmt.Fprintf(&sb, "--- SECTION %d [%s] ---\n", n, label)
				} else {
					fmt.Fprintf(&sb, "--- SECTION %d ---\n", n)
				}
				if len(heading) > 0 {
					sb.WriteString(strings.Join(heading, " > "))
					sb.WriteString("\n")
				}
				if text != "" {
					sb.WriteString(text)
					sb.WriteString("\n")
				}
				sb.WriteString("\n")
			}
			walk(node.Children, heading)
		}
	}
	walk(tree.Children, nil)
	return strings.TrimSpace(sb.String())
}

func locatorLabel(locator string, page int) string {
	locator = strings.Map(func(r rune) rune {
		if r == ']' || r == '[' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(locator))
	if locator == "" || page <= 0 {
		return ""
	}
	return fmt.Sprintf("%s %d", locator, page)
}
