package typer

import (
	"testing"

	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

func newTyper() *Typer {
	return New(scope.New(nil), nil)
}

func lit(kind sqlparse.LiteralKind, text string) *sqlparse.Literal {
	return &sqlparse.Literal{Kind: kind, Text: text}
}

func TestLiteralTypes(t *testing.T) {
	cases := []struct {
		name     string
		expr     sqlparse.Expr
		wantKind sqltype.Kind
		nullable bool
	}{
		{"null", lit(sqlparse.LitNull, ""), sqltype.Unknown, true},
		{"small integer", lit(sqlparse.LitInteger, "42"), sqltype.Integer, false},
		{"overflowing integer", lit(sqlparse.LitInteger, "99999999999999"), sqltype.BigInt, false},
		{"numeric", lit(sqlparse.LitNumeric, "3.14"), sqltype.Numeric, false},
		{"string", lit(sqlparse.LitString, "hi"), sqltype.Text, false},
		{"boolean", lit(sqlparse.LitBoolean, "true"), sqltype.Boolean, false},
	}
	ty := newTyper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, nullable, err := ty.Type(c.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != c.wantKind {
				t.Errorf("got kind %v, want %v", got.Kind, c.wantKind)
			}
			if nullable != c.nullable {
				t.Errorf("got nullable=%v, want %v", nullable, c.nullable)
			}
		})
	}
}

func TestArithmeticWidening(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.BinaryOp{
		Op:    "+",
		Left:  lit(sqlparse.LitInteger, "1"),
		Right: lit(sqlparse.LitNumeric, "2.5"),
	}
	got, _, err := ty.Type(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != sqltype.Numeric {
		t.Errorf("got %v, want Numeric (wider of Integer and Numeric)", got.Kind)
	}
}

func TestIntegerDivisionStaysInteger(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.BinaryOp{
		Op:    "/",
		Left:  lit(sqlparse.LitInteger, "7"),
		Right: lit(sqlparse.LitInteger, "2"),
	}
	got, _, err := ty.Type(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != sqltype.Integer {
		t.Errorf("got %v, want Integer", got.Kind)
	}
}

func TestArithmeticRejectsNonNumeric(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.BinaryOp{
		Op:    "+",
		Left:  lit(sqlparse.LitString, "a"),
		Right: lit(sqlparse.LitInteger, "1"),
	}
	_, _, err := ty.Type(expr)
	if err == nil {
		t.Fatalf("expected TypeMismatch, got success")
	}
	if kind, _ := sqlerr.KindOf(err); kind != sqlerr.TypeMismatch {
		t.Errorf("got kind %v, want TypeMismatch", kind)
	}
}

func TestCoalesceUnifiesAndStripsNullability(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.Coalesce{Args: []sqlparse.Expr{
		lit(sqlparse.LitNull, ""),
		lit(sqlparse.LitString, "fallback"),
	}}
	got, nullable, err := ty.Type(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != sqltype.Text {
		t.Errorf("got %v, want Text", got.Kind)
	}
	if nullable {
		t.Errorf("expected nullable=false: a non-nullable operand exists")
	}
}

func TestCoalesceAllNullableStaysNullable(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.Coalesce{Args: []sqlparse.Expr{
		lit(sqlparse.LitNull, ""),
		lit(sqlparse.LitNull, ""),
	}}
	_, nullable, err := ty.Type(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nullable {
		t.Errorf("expected nullable=true when every operand is NULL")
	}
}

func TestCaseUnifiesBranchesAndElseOmissionIsNullable(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.CaseExpr{
		Whens: []sqlparse.CaseWhen{
			{Cond: lit(sqlparse.LitBoolean, "true"), Result: lit(sqlparse.LitInteger, "1")},
		},
	}
	got, nullable, err := ty.Type(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != sqltype.Integer {
		t.Errorf("got %v, want Integer", got.Kind)
	}
	if !nullable {
		t.Errorf("expected nullable=true: ELSE omitted implies an implicit NULL branch")
	}
}

func TestCoalesceMismatchedNonNumericTypesError(t *testing.T) {
	ty := newTyper()
	expr := &sqlparse.Coalesce{Args: []sqlparse.Expr{
		lit(sqlparse.LitString, "a"),
		lit(sqlparse.LitBoolean, "true"),
	}}
	_, _, err := ty.Type(expr)
	if err == nil {
		t.Fatalf("expected TypeMismatch, got success")
	}
	if kind, _ := sqlerr.KindOf(err); kind != sqlerr.TypeMismatch {
		t.Errorf("got kind %v, want TypeMismatch", kind)
	}
}

func TestAggregateRules(t *testing.T) {
	ty := newTyper()

	countStar, countNullable, err := ty.Type(&sqlparse.FuncCall{Name: "COUNT", Star: true})
	if err != nil {
		t.Fatalf("COUNT(*): unexpected error: %v", err)
	}
	if countStar.Kind != sqltype.BigInt || countNullable {
		t.Errorf("COUNT(*): got (%v, %v), want (BigInt, false)", countStar.Kind, countNullable)
	}

	minType, minNullable, err := ty.Type(&sqlparse.FuncCall{Name: "MIN", Args: []sqlparse.Expr{lit(sqlparse.LitInteger, "1")}})
	if err != nil {
		t.Fatalf("MIN: unexpected error: %v", err)
	}
	if minType.Kind != sqltype.Integer || !minNullable {
		t.Errorf("MIN: got (%v, %v), want (Integer, true)", minType.Kind, minNullable)
	}

	sumType, sumNullable, err := ty.Type(&sqlparse.FuncCall{Name: "SUM", Args: []sqlparse.Expr{lit(sqlparse.LitInteger, "1")}})
	if err != nil {
		t.Fatalf("SUM: unexpected error: %v", err)
	}
	if sumType.Kind != sqltype.Numeric || !sumNullable {
		t.Errorf("SUM: got (%v, %v), want (Numeric, true)", sumType.Kind, sumNullable)
	}

	nowType, nowNullable, err := ty.Type(&sqlparse.FuncCall{Name: "NOW"})
	if err != nil {
		t.Fatalf("NOW: unexpected error: %v", err)
	}
	if nowType.Kind != sqltype.Timestamptz || nowNullable {
		t.Errorf("NOW: got (%v, %v), want (Timestamptz, false)", nowType.Kind, nowNullable)
	}
}

func TestUnrecognizedFunctionIsUnsupported(t *testing.T) {
	ty := newTyper()
	_, _, err := ty.Type(&sqlparse.FuncCall{Name: "UPPER", Args: []sqlparse.Expr{lit(sqlparse.LitString, "x")}})
	if err == nil {
		t.Fatalf("expected UnsupportedConstruct, got success")
	}
	if kind, _ := sqlerr.KindOf(err); kind != sqlerr.UnsupportedConstruct {
		t.Errorf("got kind %v, want UnsupportedConstruct", kind)
	}
}
