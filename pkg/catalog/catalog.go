// Package catalog implements the Schema Catalog Builder (spec §4.1): it
// parses a dumped DDL text file into an in-memory Catalog of tables and
// columns, without ever connecting to a live database.
//
// Grounded on pg_lineage.Catalog's Columns()/PrimaryKeys() interface shape
// (case-insensitive lookup keyed by table name) and on richcatalog.Column's
// {Name, Type, NotNull, DefaultSQL} struct, generalized from a live
// information_schema snapshot into a statically parsed one.
package catalog

import (
	"fmt"
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// Column is a single column of a Table.
type Column struct {
	Name       string
	Type       sqltype.Type
	Nullable   bool
	HasDefault bool
}

// Table holds an ordered column list (order matters for
// "INSERT ... VALUES" without an explicit column list, spec §3) plus a
// name-keyed lookup.
type Table struct {
	Name    string
	Columns []Column
	byName  map[string]int  // lower-cased column name -> index into Columns
	isPK    map[string]bool // lower-cased column name -> declared PRIMARY KEY
}

// Column looks up a column by name (case-insensitive).
func (t *Table) Column(name string) (Column, bool) {
	idx, ok := t.byName[strings.ToLower(name)]
	if !ok {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// PrimaryKeys returns the names of columns that are (individually) declared
// PRIMARY KEY, in declaration order. Multi-column PRIMARY KEY (...) table
// constraints are recorded the same way: every listed column is marked.
func (t *Table) PrimaryKeys() []string {
	var pks []string
	for _, c := range t.Columns {
		if t.isPK[strings.ToLower(c.Name)] {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// Catalog is a case-insensitive mapping from table name to Table (spec §3).
type Catalog struct {
	tables map[string]*Table // lower-cased name -> table
	order  []string          // insertion order, for deterministic iteration
}

// New returns an empty Catalog, useful for tests that build one by hand.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Table looks up a table by name (case-insensitive). A bare name also
// matches a "schema.name" entry whose suffix matches, the way
// pg_lineage.Catalog.Columns falls back to a suffix match.
func (c *Catalog) Table(name string) (*Table, bool) {
	key := strings.ToLower(name)
	if t, ok := c.tables[key]; ok {
		return t, true
	}
	for k, t := range c.tables {
		if strings.HasSuffix(k, "."+key) {
			return t, true
		}
	}
	return nil, false
}

// Tables returns table names in declaration order.
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) addTable(t *Table) {
	key := strings.ToLower(t.Name)
	if _, exists := c.tables[key]; !exists {
		c.order = append(c.order, key)
	}
	c.tables[key] = t
}

// ParseError is SchemaParse (spec §3 error taxonomy), carrying the 1-based
// line number of the offending statement.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema parse error at line %d: %s", e.Line, e.Message)
}

// Parse builds a Catalog from DDL text (spec §4.1). Only CREATE TABLE is
// required to be understood structurally; CREATE INDEX/SCHEMA, ALTER, SET,
// and comments are tolerated and skipped. A CREATE TABLE whose body cannot
// be parsed is a SchemaParse *ParseError; any other unrecognized top-level
// statement is silently skipped (spec §4.1, SPEC_FULL.md §11.1).
func Parse(ddl string) (*Catalog, error) {
	cat := New()
	for _, stmt := range splitStatements(ddl) {
		trimmed := strings.TrimSpace(stmt.text)
		if trimmed == "" {
			continue
		}
		if isCreateTable(trimmed) {
			tbl, err := parseCreateTable(trimmed)
			if err != nil {
				return nil, &ParseError{Line: stmt.line, Message: err.Error()}
			}
			cat.addTable(tbl)
			continue
		}
		// CREATE INDEX, CREATE SCHEMA, ALTER, SET, or anything else: skip.
	}
	return cat, nil
}

func isCreateTable(stmt string) bool {
	upper := strings.ToUpper(stmt)
	if !strings.HasPrefix(upper, "CREATE") {
		return false
	}
	rest := strings.TrimSpace(upper[len("CREATE"):])
	rest = strings.TrimPrefix(rest, "TEMP ")
	rest = strings.TrimPrefix(rest, "TEMPORARY ")
	rest = strings.TrimPrefix(rest, "UNLOGGED ")
	return strings.HasPrefix(strings.TrimSpace(rest), "TABLE")
}

type rawStatement struct {
	text string
	line int
}

// splitStatements splits DDL text into top-level statements on semicolons
// that are not inside a string literal, a quoted identifier, a
// parenthesized group, or a comment. It tracks line numbers so ParseError
// can report a useful position.
func splitStatements(ddl string) []rawStatement {
	var out []rawStatement
	var cur strings.Builder
	line := 1
	stmtStartLine := 1
	depth := 0
	runes := []rune(ddl)
	n := len(runes)

	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			out = append(out, rawStatement{text: cur.String(), line: stmtStartLine})
		}
		cur.Reset()
	}

	for i := 0; i < n; i++ {
		r := runes[i]
		if cur.Len() == 0 && strings.TrimSpace(string(r)) == "" {
			if r == '\n' {
				line++
			}
			continue
		}
		if cur.Len() == 0 {
			stmtStartLine = line
		}

		switch {
		case r == '\n':
			line++
			cur.WriteRune(r)
		case r == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
			if i < n {
				line++
			}
			cur.WriteRune(' ')
		case r == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			i++ // land on the closing '/'
			cur.WriteRune(' ')
		case r == '\'' || r == '"':
			quote := r
			cur.WriteRune(r)
			i++
			for i < n {
				cur.WriteRune(runes[i])
				if runes[i] == '\n' {
					line++
				}
				if runes[i] == quote {
					// doubled quote is an escaped quote, keep scanning
					if i+1 < n && runes[i+1] == quote {
						i++
						cur.WriteRune(runes[i])
						i++
						continue
					}
					break
				}
				i++
			}
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case r == ';' && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

