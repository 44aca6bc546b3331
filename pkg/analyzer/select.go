package analyzer

import (
	"strconv"
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
	"github.com/sqlcheck/sqlcheck/pkg/typer"
)

// analyzeSelect builds a fresh scope for sel (its own WITH bindings, its
// FROM/join tree) and projects its target list into a ResultDescriptor
// (spec §4.5 SELECT).
func (a *analyzer) analyzeSelect(sel *sqlparse.SelectStmt, parent *scope.Scope) (*ResultDescriptor, error) {
	cteParent := parent
	if sel.With != nil {
		cteParent = scope.New(parent)
		if err := a.bindCTEs(sel.With, cteParent); err != nil {
			return nil, err
		}
	}

	s, err := scope.BuildFrom(cteParent, a.cat, sel.From, a.subqueryAnalyzer())
	if err != nil {
		return nil, err
	}
	t := a.newTyper(s)

	if sel.Where != nil {
		if _, _, err := t.Type(sel.Where); err != nil {
			return nil, err
		}
	}
	for _, g := range sel.GroupBy {
		if _, _, err := t.Type(g); err != nil {
			return nil, err
		}
	}
	if sel.Having != nil {
		ht, _, err := t.Type(sel.Having)
		if err != nil {
			return nil, err
		}
		if ht.Kind != sqltype.Boolean {
			return nil, sqlerr.New(sqlerr.TypeMismatch, "HAVING must be boolean")
		}
	}
	for _, o := range sel.OrderBy {
		if _, _, err := t.Type(o); err != nil {
			return nil, err
		}
	}
	if sel.Limit != nil {
		if _, _, err := t.Type(sel.Limit); err != nil {
			return nil, err
		}
	}
	if sel.Offset != nil {
		if _, _, err := t.Type(sel.Offset); err != nil {
			return nil, err
		}
	}

	fields, err := a.projectTargets(sel.Targets, s, t)
	if err != nil {
		return nil, err
	}
	return &ResultDescriptor{Fields: fields}, nil
}

// projectTargets expands `*` / `alias.*` and types every plain expression
// target, assigning output names per spec §3 (explicit alias, else bare
// column name, else a positional "column_N" synthesized name).
func (a *analyzer) projectTargets(targets []sqlparse.ResTarget, s *scope.Scope, t *typer.Typer) ([]Field, error) {
	var fields []Field
	pos := 0
	for _, target := range targets {
		switch expr := target.Expr.(type) {
		case *sqlparse.Star:
			cols, err := expandStar(expr, s)
			if err != nil {
				return nil, err
			}
			for _, c := range cols {
				pos++
				fields = append(fields, c)
			}
		default:
			pos++
			typ, nullable, err := t.Type(target.Expr)
			if err != nil {
				return nil, err
			}
			name := target.Alias
			if name == "" {
				if cr, ok := target.Expr.(*sqlparse.ColumnRef); ok {
					name = cr.Name
				} else {
					name = "column_" + strconv.Itoa(pos)
				}
			}
			fields = append(fields, Field{Name: name, Type: typ, Nullable: nullable})
		}
	}
	return fields, nil
}

func expandStar(star *sqlparse.Star, s *scope.Scope) ([]Field, error) {
	if star.Qualifier == "" {
		var out []Field
		for _, tbl := range s.Tables() {
			out = append(out, tbl.Columns()...)
		}
		return out, nil
	}
	lower := strings.ToLower(star.Qualifier)
	for _, tbl := range s.Tables() {
		if strings.ToLower(tbl.Alias) == lower {
			return tbl.Columns(), nil
		}
	}
	return nil, sqlerr.New(sqlerr.UnknownTable, "no table or alias %q in scope for %q.*", star.Qualifier, star.Qualifier)
}
