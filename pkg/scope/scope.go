// Package scope implements the Scope Resolver (spec §4.3): given a FROM/
// USING tree and an enclosing scope, it builds the set of visible table
// aliases and their columns, tracks outer-join nullability, and resolves
// column references against that set.
//
// Grounded on pg_lineage.buildScope/buildJoinScope's left-deep join walk and
// resolveColumn's qualified/unqualified lookup, generalized to read column
// types from a static Catalog instead of a live schema and to also draw
// sources from CTE result descriptors.
package scope

import (
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// Field is one column of a finished result: its output name, type, and
// whether it may be NULL (spec §3 ResultDescriptor).
type Field struct {
	Name     string
	Type     sqltype.Type
	Nullable bool
}

// ResultDescriptor is the ordered output shape of a finished query block
// (spec §3). CTE bodies produce one before the statement that refers to
// them is analyzed (spec §4.3: "ctes: mapping ... finalized before the
// referring block is analyzed").
type ResultDescriptor struct {
	Fields []Field
}

// Column looks up an output field by name (case-insensitive). Duplicate
// names resolve to the first occurrence, matching how an unqualified
// reference to a CTE's own output would pick the first match.
func (d *ResultDescriptor) Column(name string) (Field, bool) {
	lower := strings.ToLower(name)
	for _, f := range d.Fields {
		if strings.ToLower(f.Name) == lower {
			return f, true
		}
	}
	return Field{}, false
}

// source is one column a Table exposes to the scope, independent of
// whether it came from a catalog.Table or a CTE's ResultDescriptor.
type source struct {
	name     string
	typ      sqltype.Type
	nullable bool
}

// Table is one FROM/USING entry as seen by scope resolution: a visible
// alias bound either to a catalog table or a CTE/subquery result, plus
// whether an outer join makes its entire row nullable in this block.
type Table struct {
	Alias        string
	JoinNullable bool
	columns      []source
}

// Columns returns the table's columns in declaration order, for `*` /
// `alias.*` projection expansion (spec §4.5).
func (t *Table) Columns() []Field {
	out := make([]Field, len(t.columns))
	for i, c := range t.columns {
		out[i] = Field{Name: c.name, Type: c.typ, Nullable: c.nullable || t.JoinNullable}
	}
	return out
}

func (t *Table) column(name string) (Field, bool) {
	lower := strings.ToLower(name)
	for _, c := range t.columns {
		if strings.ToLower(c.name) == lower {
			return Field{Name: c.name, Type: c.typ, Nullable: c.nullable || t.JoinNullable}, true
		}
	}
	return Field{}, false
}

// FromCatalogTable builds a scope Table from a base table in the static
// catalog.
func FromCatalogTable(alias string, t *catalog.Table, joinNullable bool) *Table {
	cols := make([]source, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = source{name: c.Name, typ: c.Type, nullable: c.Nullable}
	}
	return &Table{Alias: alias, JoinNullable: joinNullable, columns: cols}
}

// FromDescriptor builds a scope Table from a CTE's or derived table's
// already-typed output.
func FromDescriptor(alias string, d *ResultDescriptor, joinNullable bool) *Table {
	cols := make([]source, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = source{name: f.Name, typ: f.Type, nullable: f.Nullable}
	}
	return &Table{Alias: alias, JoinNullable: joinNullable, columns: cols}
}

// Scope is one query block's visible tables, CTEs, and placeholder count
// (spec §3/§4.3). Scopes chain by reference into subquery analysis, so a
// correlated subquery can resolve a reference to an ancestor's alias. An
// ancestor's tables never take part in this block's `*` expansion, and an
// unqualified lookup reaches them only when no own-scope table has the
// column.
type Scope struct {
	parent   *Scope
	tables   []*Table
	ctes     map[string]*ResultDescriptor
	maxParam int
	seen     map[int]bool
}

// New returns a fresh scope chained off parent (nil for the top-level
// statement).
func New(parent *Scope) *Scope {
	return &Scope{parent: parent, ctes: make(map[string]*ResultDescriptor), seen: make(map[int]bool)}
}

// AddTable registers a FROM/USING source as alias, in left-to-right order.
func (s *Scope) AddTable(t *Table) {
	s.tables = append(s.tables, t)
}

// Tables returns this scope's own tables (not the ancestor chain), in
// FROM-clause order — the set `*` expansion draws from.
func (s *Scope) Tables() []*Table {
	out := make([]*Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// AddCTE records name's finalized result, visible to this scope and every
// scope nested under it (spec §4.3: "CTE names shadow catalog table names
// within the enclosing statement").
func (s *Scope) AddCTE(name string, d *ResultDescriptor) {
	s.ctes[strings.ToLower(name)] = d
}

// LookupCTE walks this scope then its ancestor chain for name.
func (s *Scope) LookupCTE(name string) (*ResultDescriptor, bool) {
	lower := strings.ToLower(name)
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.ctes[lower]; ok {
			return d, true
		}
	}
	return nil, false
}

// NoteParam records a placeholder index seen while walking this block's
// expressions. Placeholders in any nested scope count toward the same
// top-level statement's arity (spec §4.3 step 3), so NoteParam walks to
// the root of the chain before recording.
func (s *Scope) NoteParam(idx int) {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.seen[idx] = true
	if idx > root.maxParam {
		root.maxParam = idx
	}
}

// MaxParam returns the highest placeholder index seen via NoteParam,
// anywhere in this scope's statement.
func (s *Scope) MaxParam() int {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	return root.maxParam
}

// MissingParams returns, in ascending order, every index in 1..MaxParam()
// that NoteParam never saw (spec §4.3 step 3 / §8: "$1, $3 with no $2").
func (s *Scope) MissingParams() []int {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	var missing []int
	for i := 1; i <= root.maxParam; i++ {
		if !root.seen[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// ResolveQualified resolves `alias.column` (spec §4.3 step 4): exactly one
// alias named qualifier must be in scope (own tables first, then the
// ancestor chain for correlated references), and it must expose column.
func (s *Scope) ResolveQualified(qualifier, column string) (Field, error) {
	t, err := s.findAlias(qualifier)
	if err != nil {
		return Field{}, err
	}
	f, ok := t.column(column)
	if !ok {
		return Field{}, sqlerr.New(sqlerr.UnknownColumn, "column %q not found on %q", column, qualifier)
	}
	return f, nil
}

func (s *Scope) findAlias(qualifier string) (*Table, error) {
	lower := strings.ToLower(qualifier)
	for sc := s; sc != nil; sc = sc.parent {
		for _, t := range sc.tables {
			if strings.ToLower(t.Alias) == lower {
				return t, nil
			}
		}
	}
	return nil, sqlerr.New(sqlerr.UnknownTable, "no table or alias %q in scope", qualifier)
}

// ResolveUnqualified resolves a bare column name (spec §4.3 step 4): looked
// up across this scope's own tables first (ambiguity is judged within that
// set); if no own-scope table exposes it, the ancestor chain is tried next
// for a correlated reference.
func (s *Scope) ResolveUnqualified(column string) (Field, error) {
	if f, err := resolveAcross(s.tables, column); err == nil {
		return f, nil
	} else if _, ok := sqlerr.KindOf(err); ok && isAmbiguous(err) {
		return Field{}, err
	}
	for sc := s.parent; sc != nil; sc = sc.parent {
		if f, err := resolveAcross(sc.tables, column); err == nil {
			return f, nil
		} else if isAmbiguous(err) {
			return Field{}, err
		}
	}
	return Field{}, sqlerr.New(sqlerr.UnknownColumn, "column %q not found in scope", column)
}

func isAmbiguous(err error) bool {
	k, ok := sqlerr.KindOf(err)
	return ok && k == sqlerr.AmbiguousColumn
}

func resolveAcross(tables []*Table, column string) (Field, error) {
	var found Field
	count := 0
	for _, t := range tables {
		if f, ok := t.column(column); ok {
			found = f
			count++
		}
	}
	switch count {
	case 0:
		return Field{}, sqlerr.New(sqlerr.UnknownColumn, "column %q not found", column)
	case 1:
		return found, nil
	default:
		return Field{}, sqlerr.New(sqlerr.AmbiguousColumn, "column %q is ambiguous", column)
	}
}
