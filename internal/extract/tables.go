package extract

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/specdex/specdex/internal/model"
)

const (
	// Text fragments within this baseline tolerance belong to one row.
	rowTolerance = 2.0

	// A horizontal gap wider than this starts a new cell.
	cellGap = 12.0

	// Minimum grid size reported as a table.
	minTableRows = 2
	minTableCols = 2

	// Data rows kept per table descriptor.
	maxDataRows = 5
)

// DetectTables finds aligned text grids on a page. Fragments are
// grouped into rows by baseline and into cells by horizontal gaps; a
// run of consecutive rows sharing a column count of at least two is
// reported as a table.
func DetectTables(texts []pdf.Text, pageNum int) []model.TableInfo {
	rows := groupRows(texts)
	if len(rows) < minTableRows {
		return nil
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = rowCells(row)
	}

	var tables []model.TableInfo
	i := 0
	for i < len(cells) {
		cols := len(cells[i])
		if cols < minTableCols {
			i++
			continue
		}

		// Extend the run while consecutive rows keep the column count.
		j := i + 1
		for j < len(cells) && len(cells[j]) == cols {
			j++
		}

		if j-i >= minTableRows {
			table := model.TableInfo{
				Page:  pageNum,
				Index: len(tables) + 1,
				Rows:  j - i,
				Cols:  cols,
			}
			limit := j
			if limit > i+maxDataRows {
				limit = i + maxDataRows
			}
			table.Data = append(table.Data, cells[i:limit]...)
			tables = append(tables, table)
		}
		i = j
	}

	return tables
}

// groupRows buckets text fragments by baseline, top of page first,
// left to right within a row.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]pdf.Text
	current := []pdf.Text{sorted[0]}
	currentY := sorted[0].Y

	for _, t := range sorted[1:] {
		if currentY-t.Y > rowTolerance {
			rows = append(rows, current)
			current = nil
			currentY = t.Y
		}
		current = append(current, t)
	}
	rows = append(rows, current)

	return rows
}

// rowCells splits one row of fragments into cell strings on horizontal
// gaps.
func rowCells(row []pdf.Text) []string {
	var cells []string
	var sb strings.Builder
	prevEnd := 0.0

	for i, t := range row {
		if i > 0 && t.X-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(sb.String()))
			sb.Reset()
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	if cell := strings.TrimSpace(sb.String()); cell != "" || len(cells) > 0 {
		cells = append(cells, cell)
	}

	return cells
}
