package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvimp/internal/atlas"
)

// Param is one bound value of a Statement, in placeholder order. Name is the
// destination column it belongs to.
type Param struct {
	Name  string
	Value any
}

// Statement is a parameterised SQL statement ready for execution.
type Statement struct {
	SQL    string
	Params []Param
}

// Args returns the parameter values in placeholder order.
func (s Statement) Args() []any {
	args := make([]any, len(s.Params))
	for i, p := range s.Params {
		args[i] = p.Value
	}
	return args
}

// Named returns the parameters keyed by ":column", the form used in import
// logs.
func (s Statement) Named() map[string]any {
	named := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		named[":"+p.Name] = p.Value
	}
	return named
}

// assignment is a field that takes part in a record's statement.
type assignment struct {
	column string
	key    bool
	value  any
}

// record is the resolved form of one data row.
type record struct {
	assignments []assignment
	mimeType    string // last detected file MIME type
}

// resolveRecord resolves every field of m for row, dropping Skip results.
// warn is called for blob failures that were degraded to null.
func resolveRecord(m *atlas.Map, src DataSource, row int, blobs BlobLoader, warn func(atlas.Field, error)) record {
	var rec record
	for _, f := range m.Fields {
		res := Resolve(f, src, row, blobs)
		if res.Err != nil && warn != nil {
			warn(f, res.Err)
		}
		if res.Kind == Skip {
			continue
		}
		if res.MimeType != "" {
			rec.mimeType = res.MimeType
		}
		rec.assignments = append(rec.assignments, assignment{
			column: f.Name,
			key:    f.IsKey,
			value:  res.Arg(),
		})
	}
	return rec
}

// withMimeType adds the file_mime_type column when a blob was loaded and
// no assignment already targets that column.
func (r record) withMimeType() []assignment {
	if r.mimeType == "" {
		return r.assignments
	}
	for _, a := range r.assignments {
		if a.column == atlas.MimeTypeColumn {
			return r.assignments
		}
	}
	out := make([]assignment, len(r.assignments), len(r.assignments)+1)
	copy(out, r.assignments)
	return append(out, assignment{column: atlas.MimeTypeColumn, value: r.mimeType})
}

type binder struct {
	dialect Dialect
	params  []Param
}

func (b *binder) bind(column string, value any) string {
	b.params = append(b.params, Param{Name: column, Value: value})
	return b.dialect.Placeholder(len(b.params))
}

// buildStatement assembles the statement for rec under the map's action.
// It returns an ignoredError when nothing would be written and ErrNoKey when
// an Update or Append has no key value.
func buildStatement(d Dialect, m *atlas.Map, rec record) (Statement, error) {
	switch m.Action {
	case atlas.ActionInsert:
		return buildInsert(d, m.Table, rec)
	case atlas.ActionAppend:
		return buildAppend(d, m.Table, rec)
	case atlas.ActionUpdate:
		return buildUpdate(d, m.Table, rec)
	default:
		return Statement{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, m.Action)
	}
}

func buildInsert(d Dialect, table string, rec record) (Statement, error) {
	if len(rec.assignments) == 0 {
		return Statement{}, ignoredError{verb: "insert"}
	}

	b := &binder{dialect: d}
	cols, marks := insertLists(b, rec.withMimeType())
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return Statement{SQL: sql, Params: b.params}, nil
}

func buildAppend(d Dialect, table string, rec record) (Statement, error) {
	if len(rec.assignments) == 0 {
		return Statement{}, ignoredError{verb: "append"}
	}
	if !hasKey(rec.assignments) {
		return Statement{}, ErrNoKey
	}

	b := &binder{dialect: d}
	cols, marks := insertLists(b, rec.withMimeType())

	var where []string
	for _, a := range rec.assignments {
		if a.key {
			where = append(where, d.QuoteIdent(a.column)+" = "+b.bind(a.column, a.value))
		}
	}

	quoted := d.QuoteIdent(table)
	sql := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s%s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
		quoted, strings.Join(cols, ", "), strings.Join(marks, ", "), d.FromDual(),
		quoted, strings.Join(where, " AND "))
	return Statement{SQL: sql, Params: b.params}, nil
}

func buildUpdate(d Dialect, table string, rec record) (Statement, error) {
	if len(rec.assignments) == 0 {
		return Statement{}, ignoredError{verb: "update"}
	}
	if !hasKey(rec.assignments) {
		return Statement{}, ErrNoKey
	}

	b := &binder{dialect: d}
	var set, where []string
	for _, a := range rec.withMimeType() {
		if !a.key {
			set = append(set, d.QuoteIdent(a.column)+" = "+b.bind(a.column, a.value))
		}
	}
	if len(set) == 0 {
		return Statement{}, ignoredError{verb: "update"}
	}
	for _, a := range rec.assignments {
		if a.key {
			where = append(where, d.QuoteIdent(a.column)+" = "+b.bind(a.column, a.value))
		}
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.QuoteIdent(table), strings.Join(set, ", "), strings.Join(where, " AND "))
	return Statement{SQL: sql, Params: b.params}, nil
}

func insertLists(b *binder, assignments []assignment) (cols, marks []string) {
	for _, a := range assignments {
		cols = append(cols, b.dialect.QuoteIdent(a.column))
		marks = append(marks, b.bind(a.column, a.value))
	}
	return cols, marks
}

func hasKey(assignments []assignment) bool {
	for _, a := range assignments {
		if a.key {
			return true
		}
	}
	return false
}
