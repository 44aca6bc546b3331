package sqlparse

import (
	"strconv"
	"strings"
)

// --- WITH clause / CTEs ---

func buildWithClause(stmt map[string]any) (*WithClause, error) {
	wcNode, ok := stmt["withClause"].(map[string]any)
	if !ok {
		return nil, nil
	}
	wc, ok := wcNode["WithClause"].(map[string]any)
	if !ok {
		return nil, nil
	}
	if recursive, _ := wc["recursive"].(bool); recursive {
		return nil, &UnsupportedConstructError{Construct: "recursive CTE"}
	}
	rawCtes, _ := wc["ctes"].([]any)
	out := &WithClause{}
	for _, raw := range rawCtes {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cte, ok := item["CommonTableExpr"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := cte["ctename"].(string)
		var cols []string
		if rawCols, ok := cte["aliascolnames"].([]any); ok {
			cols = stringList(rawCols)
		}
		qNode, ok := cte["ctequery"].(map[string]any)
		if !ok {
			continue
		}
		sel, ok := qNode["SelectStmt"].(map[string]any)
		if !ok {
			return nil, &UnsupportedConstructError{Construct: "non-SELECT CTE body"}
		}
		inner, err := buildSelect(sel, nil)
		if err != nil {
			return nil, err
		}
		out.CTEs = append(out.CTEs, CTE{Name: name, Columns: cols, Query: inner})
	}
	return out, nil
}

// UnsupportedConstructError names a specific expression/clause feature this
// analyzer chose not to model (spec §1/§7: the name is surfaced so the
// caller knows exactly what to rewrite).
type UnsupportedConstructError struct {
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return "unsupported construct: " + e.Construct
}

// --- SELECT ---

func buildSelect(sel map[string]any, with *WithClause) (*SelectStmt, error) {
	if with == nil {
		var err error
		with, err = buildWithClause(sel)
		if err != nil {
			return nil, err
		}
	}

	out := &SelectStmt{With: with}

	if _, ok := sel["distinctClause"]; ok {
		out.Distinct = true
	}

	if from, ok := sel["fromClause"].([]any); ok {
		items, err := buildFromList(from)
		if err != nil {
			return nil, err
		}
		out.From = items
	}

	if tlist, ok := sel["targetList"].([]any); ok {
		targets, err := buildResTargetList(tlist)
		if err != nil {
			return nil, err
		}
		out.Targets = targets
	}

	if whereNode, ok := sel["whereClause"].(map[string]any); ok {
		expr, err := buildExpr(whereNode)
		if err != nil {
			return nil, err
		}
		out.Where = expr
	}

	if grp, ok := sel["groupClause"].([]any); ok {
		exprs, err := buildExprList(grp)
		if err != nil {
			return nil, err
		}
		out.GroupBy = exprs
	}

	if having, ok := sel["havingClause"].(map[string]any); ok {
		expr, err := buildExpr(having)
		if err != nil {
			return nil, err
		}
		out.Having = expr
	}

	if sortList, ok := sel["sortClause"].([]any); ok {
		var exprs []Expr
		for _, raw := range sortList {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sb, ok := item["SortBy"].(map[string]any)
			if !ok {
				continue
			}
			nodeRaw, ok := sb["node"].(map[string]any)
			if !ok {
				continue
			}
			expr, err := buildExpr(nodeRaw)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		out.OrderBy = exprs
	}

	if lc, ok := sel["limitCount"].(map[string]any); ok {
		expr, err := buildExpr(lc)
		if err != nil {
			return nil, err
		}
		out.Limit = expr
	}
	if lo, ok := sel["limitOffset"].(map[string]any); ok {
		expr, err := buildExpr(lo)
		if err != nil {
			return nil, err
		}
		out.Offset = expr
	}

	if _, hasSet := sel["op"]; hasSet {
		if op, _ := sel["op"].(string); op != "" && op != "SETOP_NONE" {
			return nil, &UnsupportedConstructError{Construct: "set operation (UNION/INTERSECT/EXCEPT)"}
		}
	}

	return out, nil
}

// --- FROM clause / joins / subqueries ---

func buildFromList(from []any) ([]FromItem, error) {
	var out []FromItem
	for _, raw := range from {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		item, err := buildFromItem(node)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func buildFromItem(node map[string]any) (FromItem, error) {
	if rv, ok := node["RangeVar"].(map[string]any); ok {
		return buildTableRef(rv), nil
	}
	if je, ok := node["JoinExpr"].(map[string]any); ok {
		return buildJoin(je)
	}
	if rs, ok := node["RangeSubselect"].(map[string]any); ok {
		return buildSubqueryRef(rs)
	}
	if _, ok := node["RangeFunction"]; ok {
		return nil, &UnsupportedConstructError{Construct: "set-returning function in FROM"}
	}
	return nil, &UnsupportedConstructError{Construct: "FROM item"}
}

func buildTableRef(rv map[string]any) *TableRef {
	ref := &TableRef{}
	ref.Name, _ = rv["relname"].(string)
	ref.Schema, _ = rv["schemaname"].(string)
	ref.Alias = ref.Name
	if a, ok := rv["alias"].(map[string]any); ok {
		if an, ok := a["aliasname"].(string); ok && an != "" {
			ref.Alias = an
		}
	}
	return ref
}

func buildJoin(je map[string]any) (*JoinItem, error) {
	jt, _ := je["jointype"].(string)
	var joinType JoinType
	switch jt {
	case "JOIN_INNER", "":
		joinType = JoinInner
	case "JOIN_LEFT":
		joinType = JoinLeft
	case "JOIN_RIGHT":
		joinType = JoinRight
	case "JOIN_FULL":
		joinType = JoinFull
	default:
		joinType = JoinInner
	}
	if isNatural, _ := je["isNatural"].(bool); isNatural {
		return nil, &UnsupportedConstructError{Construct: "NATURAL JOIN"}
	}

	out := &JoinItem{Type: joinType}

	largNode, _ := je["larg"].(map[string]any)
	rargNode, _ := je["rarg"].(map[string]any)
	if largNode == nil || rargNode == nil {
		return nil, &UnsupportedConstructError{Construct: "join"}
	}
	left, err := buildFromItem(largNode)
	if err != nil {
		return nil, err
	}
	right, err := buildFromItem(rargNode)
	if err != nil {
		return nil, err
	}
	out.Left, out.Right = left, right

	if quals, ok := je["quals"].(map[string]any); ok {
		expr, err := buildExpr(quals)
		if err != nil {
			return nil, err
		}
		out.On = expr
	} else if usingList, ok := je["usingClause"].([]any); ok && len(usingList) > 0 {
		// USING (col, ...) without an explicit ON predicate: record a
		// column-equality expression per column so placeholder/column
		// walks still see the referenced names.
		cols := stringList(usingList)
		var conj Expr
		for _, c := range cols {
			eq := &BinaryOp{Op: "=", Left: &ColumnRef{Name: c}, Right: &ColumnRef{Name: c}}
			if conj == nil {
				conj = eq
			} else {
				conj = &BoolOp{Op: "AND", Operands: []Expr{conj, eq}}
			}
		}
		out.On = conj
	}

	return out, nil
}

func buildSubqueryRef(rs map[string]any) (*SubqueryRef, error) {
	alias := ""
	if a, ok := rs["alias"].(map[string]any); ok {
		alias, _ = a["aliasname"].(string)
	}
	sub, ok := rs["subquery"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "derived table"}
	}
	inner, ok := sub["SelectStmt"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "non-SELECT derived table"}
	}
	q, err := buildSelect(inner, nil)
	if err != nil {
		return nil, err
	}
	return &SubqueryRef{Alias: alias, Query: q}, nil
}

// --- projection / SET / RETURNING targets ---

func buildResTargetList(tlist []any) ([]ResTarget, error) {
	var out []ResTarget
	for _, raw := range tlist {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rt, ok := item["ResTarget"].(map[string]any)
		if !ok {
			continue
		}
		alias, _ := rt["name"].(string)
		valNode, ok := rt["val"].(map[string]any)
		if !ok {
			continue
		}
		expr, err := buildExpr(valNode)
		if err != nil {
			return nil, err
		}
		out = append(out, ResTarget{Alias: alias, Expr: expr})
	}
	return out, nil
}

// --- INSERT / UPDATE / DELETE ---

func buildInsert(ins map[string]any) (*InsertStmt, error) {
	out := &InsertStmt{}
	rv, ok := ins["relation"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "INSERT target"}
	}
	out.Table = buildTableRef(rv).Name

	if rawCols, ok := ins["cols"].([]any); ok {
		for _, raw := range rawCols {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			rt, ok := item["ResTarget"].(map[string]any)
			if !ok {
				continue
			}
			if name, ok := rt["name"].(string); ok {
				out.Columns = append(out.Columns, name)
			}
		}
	}

	if ss, ok := ins["selectStmt"].(map[string]any); ok {
		sel, ok := ss["SelectStmt"].(map[string]any)
		if !ok {
			return nil, &UnsupportedConstructError{Construct: "INSERT source"}
		}
		if valuesLists, ok := sel["valuesLists"].([]any); ok {
			for _, rowRaw := range valuesLists {
				row, err := buildValuesRow(rowRaw)
				if err != nil {
					return nil, err
				}
				out.Rows = append(out.Rows, row)
			}
		} else {
			inner, err := buildSelect(sel, nil)
			if err != nil {
				return nil, err
			}
			out.Select = inner
		}
	}

	if rl, ok := ins["returningList"].([]any); ok {
		targets, err := buildResTargetList(rl)
		if err != nil {
			return nil, err
		}
		out.Returning = targets
	}

	return out, nil
}

func buildValuesRow(rowRaw any) ([]Expr, error) {
	item, ok := rowRaw.(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "VALUES row"}
	}
	listRaw, ok := item["List"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "VALUES row"}
	}
	items, _ := listRaw["items"].([]any)
	return buildExprList(items)
}

func buildUpdate(upd map[string]any) (*UpdateStmt, error) {
	out := &UpdateStmt{}
	rv, ok := upd["relation"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "UPDATE target"}
	}
	tref := buildTableRef(rv)
	out.Table, out.Alias = tref.Name, tref.Alias

	if tlist, ok := upd["targetList"].([]any); ok {
		for _, raw := range tlist {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			rt, ok := item["ResTarget"].(map[string]any)
			if !ok {
				continue
			}
			name, _ := rt["name"].(string)
			valNode, ok := rt["val"].(map[string]any)
			if !ok {
				continue
			}
			expr, err := buildExpr(valNode)
			if err != nil {
				return nil, err
			}
			out.Set = append(out.Set, SetClause{Column: name, Value: expr})
		}
	}

	if from, ok := upd["fromClause"].([]any); ok {
		items, err := buildFromList(from)
		if err != nil {
			return nil, err
		}
		out.From = items
	}

	if whereNode, ok := upd["whereClause"].(map[string]any); ok {
		expr, err := buildExpr(whereNode)
		if err != nil {
			return nil, err
		}
		out.Where = expr
	}

	if rl, ok := upd["returningList"].([]any); ok {
		targets, err := buildResTargetList(rl)
		if err != nil {
			return nil, err
		}
		out.Returning = targets
	}

	return out, nil
}

func buildDelete(del map[string]any) (*DeleteStmt, error) {
	out := &DeleteStmt{}
	rv, ok := del["relation"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "DELETE target"}
	}
	tref := buildTableRef(rv)
	out.Table, out.Alias = tref.Name, tref.Alias

	if using, ok := del["usingClause"].([]any); ok {
		items, err := buildFromList(using)
		if err != nil {
			return nil, err
		}
		out.Using = items
	}

	if whereNode, ok := del["whereClause"].(map[string]any); ok {
		expr, err := buildExpr(whereNode)
		if err != nil {
			return nil, err
		}
		out.Where = expr
	}

	if rl, ok := del["returningList"].([]any); ok {
		targets, err := buildResTargetList(rl)
		if err != nil {
			return nil, err
		}
		out.Returning = targets
	}

	return out, nil
}

// --- expressions ---

func buildExprList(items []any) ([]Expr, error) {
	var out []Expr
	for _, raw := range items {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		expr, err := buildExpr(node)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func buildExpr(node map[string]any) (Expr, error) {
	switch {
	case has(node, "ColumnRef"):
		return buildColumnRef(node["ColumnRef"].(map[string]any))
	case has(node, "A_Const"):
		return buildAConst(node["A_Const"].(map[string]any))
	case has(node, "ParamRef"):
		pr := node["ParamRef"].(map[string]any)
		n, _ := pr["number"].(float64)
		return &Placeholder{Index: int(n)}, nil
	case has(node, "A_Expr"):
		return buildAExpr(node["A_Expr"].(map[string]any))
	case has(node, "BoolExpr"):
		return buildBoolExpr(node["BoolExpr"].(map[string]any))
	case has(node, "NullTest"):
		return buildNullTest(node["NullTest"].(map[string]any))
	case has(node, "SubLink"):
		return buildSubLink(node["SubLink"].(map[string]any))
	case has(node, "TypeCast"):
		return buildTypeCast(node["TypeCast"].(map[string]any))
	case has(node, "CaseExpr"):
		return buildCaseExpr(node["CaseExpr"].(map[string]any))
	case has(node, "CoalesceExpr"):
		return buildCoalesce(node["CoalesceExpr"].(map[string]any))
	case has(node, "FuncCall"):
		return buildFuncCall(node["FuncCall"].(map[string]any))
	}
	return nil, &UnsupportedConstructError{Construct: "expression (" + firstKey(node) + ")"}
}

func has(node map[string]any, key string) bool {
	_, ok := node[key]
	return ok
}

func buildColumnRef(cr map[string]any) (Expr, error) {
	fields, _ := cr["fields"].([]any)
	var parts []string
	for _, f := range fields {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := fm["A_Star"]; ok {
			if len(parts) == 0 {
				return &Star{}, nil
			}
			return &Star{Qualifier: strings.Join(parts, ".")}, nil
		}
		if s, ok := fm["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				parts = append(parts, v)
			} else if v, ok := s["str"].(string); ok {
				parts = append(parts, v)
			}
		}
	}
	if len(parts) == 0 {
		return nil, &UnsupportedConstructError{Construct: "column reference"}
	}
	if len(parts) == 1 {
		return &ColumnRef{Name: parts[0]}, nil
	}
	return &ColumnRef{Qualifier: strings.Join(parts[:len(parts)-1], "."), Name: parts[len(parts)-1]}, nil
}

func buildAConst(ac map[string]any) (Expr, error) {
	if isnull, _ := ac["isnull"].(bool); isnull {
		return &Literal{Kind: LitNull}, nil
	}
	if v, ok := ac["ival"].(map[string]any); ok {
		n, _ := v["ival"].(float64)
		return &Literal{Kind: LitInteger, Text: trimFloat(n)}, nil
	}
	if v, ok := ac["fval"].(map[string]any); ok {
		s, _ := v["fval"].(string)
		return &Literal{Kind: LitNumeric, Text: s}, nil
	}
	if v, ok := ac["sval"].(map[string]any); ok {
		s, _ := v["sval"].(string)
		return &Literal{Kind: LitString, Text: s}, nil
	}
	if v, ok := ac["boolval"].(map[string]any); ok {
		b, _ := v["boolval"].(bool)
		if b {
			return &Literal{Kind: LitBoolean, Text: "true"}, nil
		}
		return &Literal{Kind: LitBoolean, Text: "false"}, nil
	}
	// A bare "ival" with no value present means literal 0 in protojson's
	// zero-value-omitted encoding.
	if _, ok := ac["ival"]; ok {
		return &Literal{Kind: LitInteger, Text: "0"}, nil
	}
	return &Literal{Kind: LitNull}, nil
}

func trimFloat(f float64) string {
	i := int64(f)
	if float64(i) == f {
		return strconv.FormatInt(i, 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func buildAExpr(ae map[string]any) (Expr, error) {
	kind, _ := ae["kind"].(string)
	opName := operatorName(ae)

	var left, right Expr
	var err error
	if l, ok := ae["lexpr"].(map[string]any); ok {
		left, err = buildExpr(l)
		if err != nil {
			return nil, err
		}
	}
	rNode, hasR := ae["rexpr"].(map[string]any)

	switch kind {
	case "AEXPR_LIKE", "AEXPR_ILIKE":
		if !hasR {
			return nil, &UnsupportedConstructError{Construct: "LIKE"}
		}
		right, err = buildExpr(rNode)
		if err != nil {
			return nil, err
		}
		return &Like{Left: left, Right: right, Not: strings.HasPrefix(opName, "!")}, nil
	case "AEXPR_BETWEEN", "AEXPR_NOT_BETWEEN":
		bounds, _ := ae["rexpr"].(map[string]any)
		listNode, ok := bounds["List"].(map[string]any)
		if !ok {
			return nil, &UnsupportedConstructError{Construct: "BETWEEN"}
		}
		items, _ := listNode["items"].([]any)
		if len(items) != 2 {
			return nil, &UnsupportedConstructError{Construct: "BETWEEN"}
		}
		bExprs, err := buildExprList(items)
		if err != nil {
			return nil, err
		}
		return &Between{Operand: left, Low: bExprs[0], High: bExprs[1], Not: kind == "AEXPR_NOT_BETWEEN"}, nil
	case "AEXPR_IN":
		if !hasR {
			return nil, &UnsupportedConstructError{Construct: "IN"}
		}
		listNode, ok := rNode["List"].(map[string]any)
		if !ok {
			return nil, &UnsupportedConstructError{Construct: "IN"}
		}
		items, _ := listNode["items"].([]any)
		inList, err := buildExprList(items)
		if err != nil {
			return nil, err
		}
		return &InList{Operand: left, List: inList, Not: opName == "<>"}, nil
	default:
		if !hasR {
			return nil, &UnsupportedConstructError{Construct: "operator " + opName}
		}
		right, err = buildExpr(rNode)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: opName, Left: left, Right: right}, nil
	}
}

func operatorName(ae map[string]any) string {
	nameList, _ := ae["name"].([]any)
	for _, n := range nameList {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				return v
			}
			if v, ok := s["str"].(string); ok {
				return v
			}
		}
	}
	return "?"
}

func buildBoolExpr(be map[string]any) (Expr, error) {
	op, _ := be["boolop"].(string)
	args, _ := be["args"].([]any)
	exprs, err := buildExprList(args)
	if err != nil {
		return nil, err
	}
	switch op {
	case "AND_EXPR":
		return &BoolOp{Op: "AND", Operands: exprs}, nil
	case "OR_EXPR":
		return &BoolOp{Op: "OR", Operands: exprs}, nil
	case "NOT_EXPR":
		return &BoolOp{Op: "NOT", Operands: exprs}, nil
	}
	return nil, &UnsupportedConstructError{Construct: "boolean operator " + op}
}

func buildNullTest(nt map[string]any) (Expr, error) {
	argNode, ok := nt["arg"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "IS NULL"}
	}
	arg, err := buildExpr(argNode)
	if err != nil {
		return nil, err
	}
	kind, _ := nt["nulltesttype"].(string)
	return &IsNullTest{Operand: arg, Not: kind == "IS_NOT_NULL"}, nil
}

func buildSubLink(sl map[string]any) (Expr, error) {
	kind, _ := sl["subLinkType"].(string)
	subRaw, ok := sl["subselect"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "subquery"}
	}
	selNode, ok := subRaw["SelectStmt"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "non-SELECT subquery"}
	}
	sub, err := buildSelect(selNode, nil)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "EXISTS_SUBLINK":
		return &Exists{Query: sub}, nil
	case "ANY_SUBLINK", "ALL_SUBLINK":
		testNode, ok := sl["testexpr"].(map[string]any)
		if !ok {
			return nil, &UnsupportedConstructError{Construct: "IN (subquery)"}
		}
		operand, err := buildExpr(testNode)
		if err != nil {
			return nil, err
		}
		return &InSubquery{Operand: operand, Query: sub}, nil
	case "EXPR_SUBLINK", "":
		return &SubqueryExpr{Query: sub}, nil
	}
	return nil, &UnsupportedConstructError{Construct: "subquery form " + kind}
}

func buildTypeCast(tc map[string]any) (Expr, error) {
	argNode, ok := tc["arg"].(map[string]any)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "CAST"}
	}
	arg, err := buildExpr(argNode)
	if err != nil {
		return nil, err
	}
	tn, _ := tc["typeName"].(map[string]any)
	name, dims := typeNameOf(tn)
	return &Cast{Operand: arg, TypeName: name, ArrayDims: dims}, nil
}

func typeNameOf(tn map[string]any) (name string, arrayDims int) {
	namesRaw, _ := tn["names"].([]any)
	var parts []string
	for _, n := range namesRaw {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				if v == "pg_catalog" {
					continue
				}
				parts = append(parts, v)
			}
		}
	}
	if bounds, ok := tn["arrayBounds"].([]any); ok {
		arrayDims = len(bounds)
	}
	return strings.Join(parts, " "), arrayDims
}

func buildCaseExpr(ce map[string]any) (Expr, error) {
	out := &CaseExpr{}
	args, _ := ce["args"].([]any)
	for _, raw := range args {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cw, ok := item["CaseWhen"].(map[string]any)
		if !ok {
			continue
		}
		condNode, ok := cw["expr"].(map[string]any)
		if !ok {
			continue
		}
		resNode, ok := cw["result"].(map[string]any)
		if !ok {
			continue
		}
		cond, err := buildExpr(condNode)
		if err != nil {
			return nil, err
		}
		res, err := buildExpr(resNode)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, CaseWhen{Cond: cond, Result: res})
	}
	if defNode, ok := ce["defresult"].(map[string]any); ok {
		elseExpr, err := buildExpr(defNode)
		if err != nil {
			return nil, err
		}
		out.Else = elseExpr
	}
	return out, nil
}

func buildCoalesce(co map[string]any) (Expr, error) {
	args, _ := co["args"].([]any)
	exprs, err := buildExprList(args)
	if err != nil {
		return nil, err
	}
	return &Coalesce{Args: exprs}, nil
}

func buildFuncCall(fc map[string]any) (Expr, error) {
	out := &FuncCall{}
	nameList, _ := fc["funcname"].([]any)
	for _, n := range nameList {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				out.Name = strings.ToUpper(v)
			}
		}
	}
	if star, _ := fc["aggStar"].(bool); star {
		out.Star = true
	}
	if distinct, _ := fc["aggDistinct"].(bool); distinct {
		out.Distinct = true
	}
	if args, ok := fc["args"].([]any); ok {
		exprs, err := buildExprList(args)
		if err != nil {
			return nil, err
		}
		out.Args = exprs
	}
	return out, nil
}

func stringList(raw []any) []string {
	var out []string
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				out = append(out, v)
			}
		}
	}
	return out
}
