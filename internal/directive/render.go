package directive

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/spacelua/internal/eval"
)

// RenderResult renders the value of a directive as markdown: nil renders
// nothing, scalars render as text, a list of tables renders as a table
// with one row per element, any other table as a one-row table, and a
// list of scalars as a comma-separated list.
func RenderResult(v eval.Value) string {
	t, ok := v.(*eval.Table)
	if !ok {
		if v == nil {
			return ""
		}
		return eval.ToString(v)
	}

	items := t.Array()
	switch {
	case t.IsArray() && len(items) == 0:
		return ""
	case t.IsArray() && allTables(items):
		rows := make([]*eval.Table, len(items))
		for i, item := range items {
			rows[i] = item.(*eval.Table)
		}
		return renderTable(rows)
	case t.IsArray():
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = cellText(item)
		}
		return strings.Join(parts, ", ")
	default:
		return renderTable([]*eval.Table{t})
	}
}

func allTables(items []eval.Value) bool {
	for _, item := range items {
		if _, ok := item.(*eval.Table); !ok {
			return false
		}
	}
	return true
}

// renderTable renders rows as a pipe table. Columns are the keys of all
// rows in first-seen order.
func renderTable(rows []*eval.Table) string {
	var cols []eval.Value
	seen := map[string]bool{}
	for _, row := range rows {
		for _, k := range row.Keys() {
			name := eval.ToString(k)
			if !seen[name] {
				seen[name] = true
				cols = append(cols, k)
			}
		}
	}
	if len(cols) == 0 {
		return ""
	}

	var b strings.Builder
	header := make([]string, len(cols))
	seps := make([]string, len(cols))
	for i, c := range cols {
		header[i] = escapeCell(eval.ToString(c))
		seps[i] = "---"
	}
	fmt.Fprintf(&b, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(&b, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = escapeCell(cellText(row.Get(c)))
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(values, " | "))
	}
	return b.String()
}

// cellText renders a value inside a table cell or list.
func cellText(v eval.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *eval.Table:
		if x.IsArray() && !allTables(x.Array()) {
			parts := make([]string, 0, x.Len())
			for _, item := range x.Array() {
				parts = append(parts, cellText(item))
			}
			return strings.Join(parts, ", ")
		}
		return eval.ToString(x)
	default:
		return eval.ToString(x)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
