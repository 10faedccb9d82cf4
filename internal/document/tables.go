package document

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Layout tolerances, in PDF points. Fragments whose baselines sit
// within rowTolerance belong to one row; a horizontal gap wider than
// cellGap starts a new cell.
const (
	rowTolerance = 3.0
	cellGap      = 12.0
)

// fragment is one positioned piece of page text.
type fragment struct {
	x, y, w float64
	text    string
}

// ExtractTables reads a PDF and reconstructs its tables, pages in
// order. Rows are rebuilt from text positions: fragments clustered by
// baseline, cells split on horizontal gaps, and maximal runs of
// multi-cell rows become tables with the first row as header. An empty
// result means no tables were found and is not an error.
func ExtractTables(pdfPath string) ([]Table, error) {
	file, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, &ExtractionError{Path: pdfPath, Err: err}
	}
	defer file.Close()

	var tables []Table
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		frags := make([]fragment, 0, len(content.Text))
		for _, t := range content.Text {
			frags = append(frags, fragment{x: t.X, y: t.Y, w: t.W, text: t.S})
		}
		tables = append(tables, tablesFromFragments(frags)...)
	}
	return tables, nil
}

// tablesFromFragments rebuilds the tables on one page.
func tablesFromFragments(frags []fragment) []Table {
	rows := clusterRows(frags, rowTolerance)

	var cellRows [][]string
	for _, row := range rows {
		cellRows = append(cellRows, splitCells(row, cellGap))
	}
	return tablesFromRows(cellRows)
}

// clusterRows groups fragments whose baselines lie within yTol of each
// other, top of page first, left to right within a row. PDF y grows
// upward, so higher y means an earlier row.
func clusterRows(frags []fragment, yTol float64) [][]fragment {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]fragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var rows [][]fragment
	current := []fragment{sorted[0]}
	rowY := sorted[0].y
	for _, f := range sorted[1:] {
		if rowY-f.y > yTol {
			rows = append(rows, sortRow(current))
			current = nil
			rowY = f.y
		}
		current = append(current, f)
	}
	rows = append(rows, sortRow(current))
	return rows
}

func sortRow(row []fragment) []fragment {
	sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })
	return row
}

// splitCells merges a row's fragments left to right, starting a new
// cell whenever the horizontal gap to the previous fragment exceeds
// gap.
func splitCells(row []fragment, gap float64) []string {
	if len(row) == 0 {
		return nil
	}

	var (
		cells   []string
		current strings.Builder
	)
	prevEnd := row[0].x
	for i, f := range row {
		if i > 0 && f.x-prevEnd > gap {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(f.text)
		prevEnd = f.x + f.w
	}
	cells = append(cells, strings.TrimSpace(current.String()))
	return cells
}

// tablesFromRows turns maximal runs of consecutive multi-cell rows
// into tables. Runs shorter than two rows have no data under their
// header and are discarded; short rows inside a run are padded to the
// run's widest row.
func tablesFromRows(rows [][]string) []Table {
	var (
		tables []Table
		run    [][]string
	)

	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, tableFromRun(run))
		}
		run = nil
	}

	for _, row := range rows {
		if len(row) >= 2 {
			run = append(run, row)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func tableFromRun(run [][]string) Table {
	width := 0
	for _, row := range run {
		if len(row) > width {
			width = len(row)
		}
	}

	padded := make([][]string, len(run))
	for i, row := range run {
		p := make([]string, width)
		copy(p, row)
		padded[i] = p
	}

	return Table{Header: padded[0], Rows: padded[1:]}
}
