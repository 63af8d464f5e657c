// Package sqlutil contains small helpers for assembling parameterized SQL.
package sqlutil

import "strings"

// UpdateBuilder accumulates optional column assignments for a partial
// UPDATE.  Columns are emitted in the order they were set, always as
// placeholders, so callers never concatenate values into SQL text.
type UpdateBuilder struct {
	table string
	cols  []string
	args  []interface{}
}

// NewUpdate starts a builder for the given table.
func NewUpdate(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set unconditionally adds a column assignment.
func (b *UpdateBuilder) Set(col string, val interface{}) *UpdateBuilder {
	b.cols = append(b.cols, col)
	b.args = append(b.args, val)
	return b
}

// SetString adds the column only when the value is non-nil.
func (b *UpdateBuilder) SetString(col string, val *string) *UpdateBuilder {
	if val != nil {
		b.Set(col, *val)
	}
	return b
}

// Empty reports whether no assignments were added.  Handlers use this to
// reject requests with nothing to update.
func (b *UpdateBuilder) Empty() bool { return len(b.cols) == 0 }

// Build returns the UPDATE statement and its arguments.  The where clause
// is appended verbatim and its args follow the assignment args.  Build on
// an empty builder returns ok=false.
func (b *UpdateBuilder) Build(where string, whereArgs ...interface{}) (string, []interface{}, bool) {
	if b.Empty() {
		return "", nil, false
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	for i, c := range b.cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c)
		sb.WriteString(" = ?")
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	args := make([]interface{}, 0, len(b.args)+len(whereArgs))
	args = append(args, b.args...)
	args = append(args, whereArgs...)
	return sb.String(), args, true
}
