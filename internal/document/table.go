package document

import "strings"

// Table is one reconstructed table: first extracted row as header,
// remaining rows as data.
type Table struct {
	Header []string
	Rows   [][]string
}

// Render gives the textual form used in prompts and reports: one line
// per row, cells separated by " | ".
func (t Table) Render() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Header, " | "))
	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// RenderAll renders every table for prompt assembly.
func RenderAll(tables []Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Render()
	}
	return out
}
