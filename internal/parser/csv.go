package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/docqa/internal/doctree"
)

// csvGroupRows is how many data rows share one section, so a schedule of
// benefits is scored group by group.
const csvGroupRows = 20

// CSVParser handles CSV files. The first record is the header row; ragged
// rows are accepted. Page holds the file row of a group's first record.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parser: parse csv")
	}

	tree := &doctree.DocTree{Title: stripExt(filename, ".csv"), Locator: "row"}
	if len(records) == 0 {
		return tree, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = collapse(h)
	}
	columns := "Table columns: " + strings.Join(headers, ", ")

	type row struct {
		line int
		text string
	}
	var rows []row
	for i, rec := range records[1:] {
		if t := rowText(headers, rec); t != "" {
			rows = append(rows, row{line: i + 2, text: t})
		}
	}

	for start := 0; start < len(rows); start += csvGroupRows {
		group := rows[start:min(start+csvGroupRows, len(rows))]
		lines := make([]string, len(group))
		for i, r := range group {
			lines[i] = r.text
		}
		first, last := group[0].line, group[len(group)-1].line
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", first, last),
			Text:  columns + "\n\n" + strings.Join(lines, "\n"),
			Page:  first,
		})
	}
	return tree, nil
}
