package analyzer

import (
	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
)

// analyzeDelete covers spec §4.5 DELETE: scope is the target table,
// optionally joined with USING for WHERE's sake, and RETURNING projects
// from the target table alone.
func (a *analyzer) analyzeDelete(del *sqlparse.DeleteStmt, parent *scope.Scope) (*ResultDescriptor, error) {
	tbl, ok := a.cat.Table(del.Table)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnknownTable, "unknown table %q", del.Table)
	}

	s := scope.New(parent)
	s.AddTable(scope.FromCatalogTable(del.Alias, tbl, false))
	if len(del.Using) > 0 {
		if err := scope.AddFromItems(s, a.cat, del.Using, a.subqueryAnalyzer()); err != nil {
			return nil, err
		}
	}

	if del.Where != nil {
		t := a.newTyper(s)
		if _, _, err := t.Type(del.Where); err != nil {
			return nil, err
		}
	}

	if len(del.Returning) == 0 {
		return &ResultDescriptor{}, nil
	}

	retScope := scope.New(parent)
	retScope.AddTable(scope.FromCatalogTable(tbl.Name, tbl, false))
	rt := a.newTyper(retScope)
	fields, err := a.projectTargets(del.Returning, retScope, rt)
	if err != nil {
		return nil, err
	}
	return &ResultDescriptor{Fields: fields}, nil
}
