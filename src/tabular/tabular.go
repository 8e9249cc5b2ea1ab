// Package tabular turns uploaded spreadsheet exports into plain string grids.
// Upstream systems hand out xlsx workbooks, CSV dumps in assorted encodings
// and, in one case, an HTML table saved with an .xls extension.
package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx"
)

var ErrUnreadableFile = errors.New("file is not a readable table")

// Grid is one sheet (or the whole file, for CSV/HTML) as raw string cells.
// Rows are ragged: short rows are not padded.
type Grid struct {
	Name  string
	Cells [][]string
}

// Row returns row i padded view: empty string for missing cells.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	r := g.Cells[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// HeaderIndex maps trimmed header captions of the given row to their column.
func (g *Grid) HeaderIndex(row int) map[string]int {
	idx := make(map[string]int)
	if row < 0 || row >= len(g.Cells) {
		return idx
	}
	for i, h := range g.Cells[row] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// SheetByName returns the grid with the given name, nil when absent.
func SheetByName(grids []Grid, name string) *Grid {
	for i := range grids {
		if grids[i].Name == name {
			return &grids[i]
		}
	}
	return nil
}

// Read decodes the uploaded file into one grid per sheet. Format is sniffed
// from content, not the file name: xlsx by zip magic, then HTML, then CSV
// across the encodings and separators the known exports use.
func Read(data []byte, fileName string) ([]Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: '%s' is empty", ErrUnreadableFile, fileName)
	}

	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return readXLSX(data)
	}
	if looksLikeHTML(data) {
		return readHTMLTables(data)
	}
	return readCSV(data)
}

func readXLSX(data []byte) ([]Grid, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	var grids []Grid
	for _, sheet := range wb.Sheets {
		g := Grid{Name: sheet.Name}
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for i, cell := range row.Cells {
				cells[i] = cell.Value
			}
			g.Cells = append(g.Cells, cells)
		}
		grids = append(grids, g)
	}
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}
	return grids, nil
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<table")) ||
		bytes.Contains(lower, []byte("<!doctype html")) ||
		bytes.Contains(lower, []byte("<html"))
}
