package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Column is one column (or inferred document field) of the source schema
type Column struct {
	Table    string
	Name     string
	DataType string
}

// Format renders a normalized, engine-agnostic text representation of a
// schema: one "TABLE <name>" line per table followed by indented
// "<column> <type>" lines. Tables are emitted in sorted order so the
// output is stable across engines and repeated extractions.
func Format(columns []Column) string {
	grouped := make(map[string][]Column)
	tables := make([]string, 0)
	for _, col := range columns {
		if _, seen := grouped[col.Table]; !seen {
			tables = append(tables, col.Table)
		}
		grouped[col.Table] = append(grouped[col.Table], col)
	}
	sort.Strings(tables)

	var b strings.Builder
	for _, table := range tables {
		fmt.Fprintf(&b, "TABLE %s\n", table)
		for _, col := range grouped[table] {
			fmt.Fprintf(&b, "  %s %s\n", col.Name, col.DataType)
		}
	}
	return b.String()
}
