// Package typer implements the Expression Typer (spec §4.4): recursive
// (sql_type, nullable) inference over a sqlparse.Expr tree.
//
// Grounded on pg_lineage's collectExprSources/renderExprKey expression
// walk, generalized from "what columns does this expression touch" to
// "what type and nullability does this expression carry".
package typer

import (
	"strconv"
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// Typer types expressions against one Scope.
type Typer struct {
	scope   *scope.Scope
	analyze scope.SubqueryAnalyzer
}

// New returns a Typer resolving column references and correlated
// subqueries against s. analyze may be nil if the expression surface being
// typed is known not to contain scalar subqueries.
func New(s *scope.Scope, analyze scope.SubqueryAnalyzer) *Typer {
	return &Typer{scope: s, analyze: analyze}
}

// Type infers (sql_type, nullable) for e (spec §4.4).
func (t *Typer) Type(e sqlparse.Expr) (sqltype.Type, bool, error) {
	switch v := e.(type) {
	case *sqlparse.Literal:
		return t.literal(v)
	case *sqlparse.ColumnRef:
		return t.columnRef(v)
	case *sqlparse.Placeholder:
		t.scope.NoteParam(v.Index)
		return sqltype.T_Unknown, true, nil
	case *sqlparse.BinaryOp:
		return t.binaryOp(v)
	case *sqlparse.BoolOp:
		return t.boolOp(v)
	case *sqlparse.IsNullTest:
		if _, _, err := t.Type(v.Operand); err != nil {
			return sqltype.Type{}, false, err
		}
		return sqltype.T_Boolean, false, nil
	case *sqlparse.Like:
		return t.anyNullable(sqltype.T_Boolean, v.Left, v.Right)
	case *sqlparse.Between:
		return t.anyNullable(sqltype.T_Boolean, v.Operand, v.Low, v.High)
	case *sqlparse.InList:
		exprs := append([]sqlparse.Expr{v.Operand}, v.List...)
		return t.anyNullable(sqltype.T_Boolean, exprs...)
	case *sqlparse.InSubquery:
		_, nullable, err := t.Type(v.Operand)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		if t.analyze != nil {
			if _, err := t.analyze(v.Query, t.scope); err != nil {
				return sqltype.Type{}, false, err
			}
		}
		return sqltype.T_Boolean, nullable, nil
	case *sqlparse.Exists:
		if t.analyze != nil {
			if _, err := t.analyze(v.Query, t.scope); err != nil {
				return sqltype.Type{}, false, err
			}
		}
		return sqltype.T_Boolean, false, nil
	case *sqlparse.CaseExpr:
		return t.caseExpr(v)
	case *sqlparse.Cast:
		return t.cast(v)
	case *sqlparse.Coalesce:
		return t.coalesce(v)
	case *sqlparse.FuncCall:
		return t.funcCall(v)
	case *sqlparse.SubqueryExpr:
		return t.scalarSubquery(v)
	case *sqlparse.Unsupported:
		return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "%s", v.Construct)
	case *sqlparse.Star:
		return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "* outside a projection list")
	}
	return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "expression")
}

func (t *Typer) literal(l *sqlparse.Literal) (sqltype.Type, bool, error) {
	switch l.Kind {
	case sqlparse.LitNull:
		return sqltype.T_Unknown, true, nil
	case sqlparse.LitInteger:
		if n, err := strconv.ParseInt(l.Text, 10, 64); err == nil && n >= -2147483648 && n <= 2147483647 {
			return sqltype.T_Integer, false, nil
		}
		return sqltype.T_BigInt, false, nil
	case sqlparse.LitNumeric:
		return sqltype.T_Numeric, false, nil
	case sqlparse.LitString:
		return sqltype.T_Text, false, nil
	case sqlparse.LitBoolean:
		return sqltype.T_Boolean, false, nil
	}
	return sqltype.T_Unknown, true, nil
}

func (t *Typer) columnRef(c *sqlparse.ColumnRef) (sqltype.Type, bool, error) {
	if c.Qualifier != "" {
		f, err := t.scope.ResolveQualified(c.Qualifier, c.Name)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		return f.Type, f.Nullable, nil
	}
	f, err := t.scope.ResolveUnqualified(c.Name)
	if err != nil {
		return sqltype.Type{}, false, err
	}
	return f.Type, f.Nullable, nil
}

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true}
var comparisonOps = map[string]bool{"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (t *Typer) binaryOp(b *sqlparse.BinaryOp) (sqltype.Type, bool, error) {
	lt, ln, err := t.Type(b.Left)
	if err != nil {
		return sqltype.Type{}, false, err
	}
	rt, rn, err := t.Type(b.Right)
	if err != nil {
		return sqltype.Type{}, false, err
	}

	if comparisonOps[b.Op] {
		return sqltype.T_Boolean, ln || rn, nil
	}
	if arithmeticOps[b.Op] {
		if lt.Kind == sqltype.Unknown {
			return rt, ln || rn, nil
		}
		if rt.Kind == sqltype.Unknown {
			return lt, ln || rn, nil
		}
		if !sqltype.IsNumeric(lt) || !sqltype.IsNumeric(rt) {
			return sqltype.Type{}, false, sqlerr.New(sqlerr.TypeMismatch, "non-numeric operand to %q", b.Op)
		}
		result := sqltype.Wider(lt, rt)
		if b.Op == "/" && lt.Kind == sqltype.Integer && rt.Kind == sqltype.Integer {
			result = sqltype.T_Integer
		}
		return result, ln || rn, nil
	}
	return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "operator %q", b.Op)
}

func (t *Typer) boolOp(b *sqlparse.BoolOp) (sqltype.Type, bool, error) {
	nullable := false
	for _, op := range b.Operands {
		_, n, err := t.Type(op)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		nullable = nullable || n
	}
	return sqltype.T_Boolean, nullable, nil
}

func (t *Typer) anyNullable(result sqltype.Type, exprs ...sqlparse.Expr) (sqltype.Type, bool, error) {
	nullable := false
	for _, e := range exprs {
		_, n, err := t.Type(e)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		nullable = nullable || n
	}
	return result, nullable, nil
}

func (t *Typer) caseExpr(c *sqlparse.CaseExpr) (sqltype.Type, bool, error) {
	var result sqltype.Type
	resultSet := false
	nullable := c.Else == nil
	for _, w := range c.Whens {
		if _, _, err := t.Type(w.Cond); err != nil {
			return sqltype.Type{}, false, err
		}
		rt, rn, err := t.Type(w.Result)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		nullable = nullable || rn
		result, resultSet, err = unify(result, resultSet, rt)
		if err != nil {
			return sqltype.Type{}, false, err
		}
	}
	if c.Else != nil {
		et, en, err := t.Type(c.Else)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		nullable = nullable || en
		result, resultSet, err = unify(result, resultSet, et)
		if err != nil {
			return sqltype.Type{}, false, err
		}
	}
	if !resultSet {
		return sqltype.T_Unknown, true, nil
	}
	return result, nullable, nil
}

func (t *Typer) cast(c *sqlparse.Cast) (sqltype.Type, bool, error) {
	_, nullable, err := t.Type(c.Operand)
	if err != nil {
		return sqltype.Type{}, false, err
	}
	typ, err := sqltype.FromTypeName(c.TypeName, c.ArrayDims)
	if err != nil {
		return sqltype.Type{}, false, sqlerr.Wrap(sqlerr.UnsupportedConstruct, err, "cast target type")
	}
	return typ, nullable, nil
}

func (t *Typer) coalesce(c *sqlparse.Coalesce) (sqltype.Type, bool, error) {
	var result sqltype.Type
	resultSet := false
	allNullable := true
	for _, arg := range c.Args {
		at, an, err := t.Type(arg)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		allNullable = allNullable && an
		result, resultSet, err = unify(result, resultSet, at)
		if err != nil {
			return sqltype.Type{}, false, err
		}
	}
	if !resultSet {
		return sqltype.T_Unknown, true, nil
	}
	return result, allNullable, nil
}

// unify folds one more branch type into the running common type: the
// first non-Unknown type wins, after which a mismatched non-numeric type
// is TypeMismatch and a numeric mismatch widens per the precision ranking.
func unify(running sqltype.Type, runningSet bool, next sqltype.Type) (sqltype.Type, bool, error) {
	if next.Kind == sqltype.Unknown {
		if !runningSet {
			return running, false, nil
		}
		return running, true, nil
	}
	if !runningSet {
		return next, true, nil
	}
	if sqltype.Equal(running, next) {
		return running, true, nil
	}
	if sqltype.IsNumeric(running) && sqltype.IsNumeric(next) {
		return sqltype.Wider(running, next), true, nil
	}
	return sqltype.Type{}, false, sqlerr.New(sqlerr.TypeMismatch, "branch types %s and %s do not unify", running, next)
}

var aggregateNames = map[string]bool{"COUNT": true, "MIN": true, "MAX": true, "SUM": true, "AVG": true, "NOW": true}

func (t *Typer) funcCall(f *sqlparse.FuncCall) (sqltype.Type, bool, error) {
	name := strings.ToUpper(f.Name)
	if !aggregateNames[name] {
		return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "function %s", f.Name)
	}
	switch name {
	case "COUNT":
		for _, a := range f.Args {
			if _, _, err := t.Type(a); err != nil {
				return sqltype.Type{}, false, err
			}
		}
		return sqltype.T_BigInt, false, nil
	case "MIN", "MAX":
		if len(f.Args) != 1 {
			return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "%s takes exactly one argument", name)
		}
		at, _, err := t.Type(f.Args[0])
		if err != nil {
			return sqltype.Type{}, false, err
		}
		return at, true, nil
	case "SUM", "AVG":
		if len(f.Args) != 1 {
			return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "%s takes exactly one argument", name)
		}
		if _, _, err := t.Type(f.Args[0]); err != nil {
			return sqltype.Type{}, false, err
		}
		return sqltype.T_Numeric, true, nil
	case "NOW":
		return sqltype.T_Timestamptz, false, nil
	}
	return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "function %s", f.Name)
}

func (t *Typer) scalarSubquery(s *sqlparse.SubqueryExpr) (sqltype.Type, bool, error) {
	if t.analyze == nil {
		return sqltype.Type{}, false, sqlerr.New(sqlerr.UnsupportedConstruct, "scalar subquery")
	}
	desc, err := t.analyze(s.Query, t.scope)
	if err != nil {
		return sqltype.Type{}, false, err
	}
	if len(desc.Fields) != 1 {
		return sqltype.Type{}, false, sqlerr.New(sqlerr.TypeMismatch, "scalar subquery must return exactly one column, got %d", len(desc.Fields))
	}
	return desc.Fields[0].Type, true, nil
}
