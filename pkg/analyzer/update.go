package analyzer

import (
	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
)

// analyzeUpdate covers spec §4.5 UPDATE: scope is the target table
// optionally joined with FROM, each SET target must belong to the target
// table, and RETURNING is analyzed against the target table alone.
func (a *analyzer) analyzeUpdate(upd *sqlparse.UpdateStmt, parent *scope.Scope) (*ResultDescriptor, error) {
	tbl, ok := a.cat.Table(upd.Table)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnknownTable, "unknown table %q", upd.Table)
	}

	s := scope.New(parent)
	target := scope.FromCatalogTable(upd.Alias, tbl, false)
	s.AddTable(target)
	if len(upd.From) > 0 {
		if err := scope.AddFromItems(s, a.cat, upd.From, a.subqueryAnalyzer()); err != nil {
			return nil, err
		}
	}
	t := a.newTyper(s)

	for _, set := range upd.Set {
		if _, ok := tbl.Column(set.Column); !ok {
			return nil, sqlerr.New(sqlerr.UnknownColumn, "column %q does not belong to table %q", set.Column, upd.Table)
		}
		if _, _, err := t.Type(set.Value); err != nil {
			return nil, err
		}
	}

	if upd.Where != nil {
		if _, _, err := t.Type(upd.Where); err != nil {
			return nil, err
		}
	}

	if len(upd.Returning) == 0 {
		return &ResultDescriptor{}, nil
	}

	retScope := scope.New(parent)
	retScope.AddTable(scope.FromCatalogTable(tbl.Name, tbl, false))
	rt := a.newTyper(retScope)
	fields, err := a.projectTargets(upd.Returning, retScope, rt)
	if err != nil {
		return nil, err
	}
	return &ResultDescriptor{Fields: fields}, nil
}
