package analyzer

import (
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
)

// analyzeInsert covers spec §4.5 INSERT: column-list / arity validation,
// the not-null-without-default check, and RETURNING projection from a
// scope holding only the target table.
func (a *analyzer) analyzeInsert(ins *sqlparse.InsertStmt, parent *scope.Scope) (*ResultDescriptor, error) {
	tbl, ok := a.cat.Table(ins.Table)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnknownTable, "unknown table %q", ins.Table)
	}

	columns := ins.Columns
	if columns == nil {
		for _, c := range tbl.Columns {
			columns = append(columns, c.Name)
		}
	} else {
		if err := validateInsertColumns(tbl, columns); err != nil {
			return nil, err
		}
	}

	if err := checkOmittedColumns(tbl, columns); err != nil {
		return nil, err
	}

	if ins.Rows != nil {
		for _, row := range ins.Rows {
			if len(row) != len(columns) {
				return nil, sqlerr.New(sqlerr.InvalidInsert, "VALUES row has %d values, expected %d", len(row), len(columns))
			}
			rowScope := scope.New(parent)
			t := a.newTyper(rowScope)
			for _, expr := range row {
				// Advisory only (spec §4.5): a mismatch against the target
				// column's type is not rejected here, only unresolvable
				// references (unknown column, bad placeholder count) are.
				if _, _, err := t.Type(expr); err != nil {
					return nil, err
				}
			}
		}
	} else if ins.Select != nil {
		selScope := scope.New(parent)
		desc, err := a.analyzeSelect(ins.Select, selScope)
		if err != nil {
			return nil, err
		}
		if len(desc.Fields) != len(columns) {
			return nil, sqlerr.New(sqlerr.InvalidInsert, "SELECT returns %d columns, expected %d", len(desc.Fields), len(columns))
		}
	}

	if len(ins.Returning) == 0 {
		return &ResultDescriptor{}, nil
	}

	retScope := scope.New(parent)
	retScope.AddTable(scope.FromCatalogTable(tbl.Name, tbl, false))
	t := a.newTyper(retScope)
	fields, err := a.projectTargets(ins.Returning, retScope, t)
	if err != nil {
		return nil, err
	}
	return &ResultDescriptor{Fields: fields}, nil
}

func validateInsertColumns(tbl *catalog.Table, columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		lower := strings.ToLower(name)
		if seen[lower] {
			return sqlerr.New(sqlerr.InvalidInsert, "duplicate column %q in INSERT column list", name)
		}
		seen[lower] = true
		if _, ok := tbl.Column(name); !ok {
			return sqlerr.New(sqlerr.UnknownColumn, "unknown column %q on table %q", name, tbl.Name)
		}
	}
	return nil
}

// checkOmittedColumns enforces spec §4.5: every target column absent from
// the effective column list must be nullable or have a default.
func checkOmittedColumns(tbl *catalog.Table, columns []string) error {
	listed := make(map[string]bool, len(columns))
	for _, name := range columns {
		listed[strings.ToLower(name)] = true
	}
	for _, c := range tbl.Columns {
		if listed[strings.ToLower(c.Name)] {
			continue
		}
		if !c.Nullable && !c.HasDefault {
			return sqlerr.New(sqlerr.InvalidInsert, "column %q is NOT NULL with no default and is omitted from INSERT", c.Name)
		}
	}
	return nil
}
