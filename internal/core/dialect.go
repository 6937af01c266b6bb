package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect renders the driver-specific parts of generated SQL.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string
	// QuoteIdent quotes a column name or a possibly schema-qualified table name.
	QuoteIdent(name string) string
	// FromDual is appended to a SELECT without a table (" FROM DUAL" on MySQL).
	FromDual() string
}

var (
	Postgres Dialect = quotingDialect{name: "postgres", quote: `"`, numbered: true}
	MySQL    Dialect = quotingDialect{name: "mysql", quote: "`", dual: true}
	SQLite   Dialect = quotingDialect{name: "sqlite", quote: `"`}
)

// DialectFor returns the dialect for a database driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type quotingDialect struct {
	name     string
	quote    string
	numbered bool // $1, $2 ... instead of ?
	dual     bool
}

func (d quotingDialect) Name() string { return d.name }

func (d quotingDialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d quotingDialect) FromDual() string {
	if d.dual {
		return " FROM DUAL"
	}
	return ""
}

func (d quotingDialect) QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.quote + strings.ReplaceAll(p, d.quote, d.quote+d.quote) + d.quote
	}
	return strings.Join(parts, ".")
}
