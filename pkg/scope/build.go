package scope

import (
	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
)

// SubqueryAnalyzer types a derived table's body into a ResultDescriptor.
// Scope building needs this to seed a *SubqueryRef*'s alias, but the
// analyzer that can actually run Select-statement analysis depends on
// scope itself — so the callback is supplied by the caller (the analyzer)
// rather than scope importing it, which would be a cycle.
type SubqueryAnalyzer func(query *sqlparse.SelectStmt, parent *Scope) (*ResultDescriptor, error)

// BuildFrom resolves a FROM/USING item list into a fresh Scope chained off
// parent (spec §4.3 steps 1-2). cat resolves base table names; analyze
// types any derived table (subquery in FROM).
func BuildFrom(parent *Scope, cat *catalog.Catalog, items []sqlparse.FromItem, analyze SubqueryAnalyzer) (*Scope, error) {
	s := New(parent)
	for _, item := range items {
		tables, err := resolveFromItem(s, cat, item, analyze)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			s.AddTable(t)
		}
	}
	return s, nil
}

// AddFromItems resolves items and adds their tables directly to the
// already-existing scope s, for UPDATE's optional FROM and DELETE's
// optional USING (spec §4.5): extra tables join the target table's own
// scope rather than starting a fresh one.
func AddFromItems(s *Scope, cat *catalog.Catalog, items []sqlparse.FromItem, analyze SubqueryAnalyzer) error {
	for _, item := range items {
		tables, err := resolveFromItem(s, cat, item, analyze)
		if err != nil {
			return err
		}
		for _, t := range tables {
			s.AddTable(t)
		}
	}
	return nil
}

func resolveFromItem(s *Scope, cat *catalog.Catalog, item sqlparse.FromItem, analyze SubqueryAnalyzer) ([]*Table, error) {
	switch v := item.(type) {
	case *sqlparse.TableRef:
		return resolveTableRef(s, cat, v)
	case *sqlparse.SubqueryRef:
		return resolveSubqueryRef(s, v, analyze)
	case *sqlparse.JoinItem:
		return resolveJoin(s, cat, v, analyze)
	}
	return nil, sqlerr.New(sqlerr.UnsupportedConstruct, "unrecognized FROM item")
}

func resolveTableRef(s *Scope, cat *catalog.Catalog, ref *sqlparse.TableRef) ([]*Table, error) {
	if d, ok := s.LookupCTE(ref.Name); ok {
		return []*Table{FromDescriptor(ref.Alias, d, false)}, nil
	}
	name := ref.Name
	if ref.Schema != "" {
		name = ref.Schema + "." + ref.Name
	}
	t, ok := cat.Table(name)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnknownTable, "unknown table %q", ref.Name)
	}
	return []*Table{FromCatalogTable(ref.Alias, t, false)}, nil
}

func resolveSubqueryRef(s *Scope, ref *sqlparse.SubqueryRef, analyze SubqueryAnalyzer) ([]*Table, error) {
	if analyze == nil {
		return nil, sqlerr.New(sqlerr.UnsupportedConstruct, "derived table")
	}
	desc, err := analyze(ref.Query, s)
	if err != nil {
		return nil, err
	}
	return []*Table{FromDescriptor(ref.Alias, desc, false)}, nil
}

func resolveJoin(s *Scope, cat *catalog.Catalog, j *sqlparse.JoinItem, analyze SubqueryAnalyzer) ([]*Table, error) {
	left, err := resolveFromItem(s, cat, j.Left, analyze)
	if err != nil {
		return nil, err
	}
	right, err := resolveFromItem(s, cat, j.Right, analyze)
	if err != nil {
		return nil, err
	}

	switch j.Type {
	case sqlparse.JoinInner, sqlparse.JoinCross:
		// inherit existing flags, no change
	case sqlparse.JoinLeft:
		markNullable(right)
	case sqlparse.JoinRight:
		markNullable(left)
	case sqlparse.JoinFull:
		markNullable(left)
		markNullable(right)
	}

	return append(left, right...), nil
}

func markNullable(tables []*Table) {
	for _, t := range tables {
		t.JoinNullable = true
	}
}
