package sqlparse

import (
	"encoding/json"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseError is QueryParse (spec §3 error taxonomy). Position is best-effort:
// pg_query_go's raw-parser errors do not always carry a reliable byte
// offset, so Line/Column are left at zero when unknown rather than guessed
// (spec §7: "a source span ... where possible").
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("query parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("query parse error: %s", e.Message)
}

// Parse parses a single query string into the normalized AST (spec §4.2).
// A string containing more than one top-level statement is rejected with an
// *UnsupportedConstructError, which the analyzer reports as
// UnsupportedConstruct.
func Parse(query string) (*Query, error) {
	raw, err := pg_query.ParseToJSON(query)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid parser output: %v", err)}
	}

	stmts, _ := tree["stmts"].([]any)
	if len(stmts) == 0 {
		return nil, &ParseError{Message: "empty statement"}
	}
	if len(stmts) > 1 {
		return nil, &UnsupportedConstructError{Construct: "multiple statements"}
	}
	raw0, ok := stmts[0].(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "malformed parse tree"}
	}
	stmtNode, ok := raw0["stmt"].(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "malformed parse tree: missing stmt"}
	}

	return parseTopLevel(stmtNode)
}

func parseTopLevel(node map[string]any) (*Query, error) {
	if sel, ok := node["SelectStmt"].(map[string]any); ok {
		main, with, err := splitWith(sel)
		if err != nil {
			return nil, err
		}
		s, err := buildSelect(main, with)
		if err != nil {
			return nil, err
		}
		return &Query{With: s.With, Main: s}, nil
	}
	if ins, ok := node["InsertStmt"].(map[string]any); ok {
		with := withClauseFrom(ins)
		s, err := buildInsert(ins)
		if err != nil {
			return nil, err
		}
		return &Query{With: with, Main: s}, nil
	}
	if upd, ok := node["UpdateStmt"].(map[string]any); ok {
		with := withClauseFrom(upd)
		s, err := buildUpdate(upd)
		if err != nil {
			return nil, err
		}
		return &Query{With: with, Main: s}, nil
	}
	if del, ok := node["DeleteStmt"].(map[string]any); ok {
		with := withClauseFrom(del)
		s, err := buildDelete(del)
		if err != nil {
			return nil, err
		}
		return &Query{With: with, Main: s}, nil
	}
	return nil, &UnsupportedStatementError{Kind: firstKey(node)}
}

// UnsupportedStatementError names a top-level statement kind this analyzer
// does not cover (e.g. CREATE, VACUUM) — spec §1's "unsupported constructs"
// for whole statements rather than expressions.
type UnsupportedStatementError struct {
	Kind string
}

func (e *UnsupportedStatementError) Error() string {
	return fmt.Sprintf("unsupported statement: %s", e.Kind)
}

func firstKey(m map[string]any) string {
	for k := range m {
		return k
	}
	return "unknown"
}

// splitWith pulls a SelectStmt's own withClause out so recursive CTE bodies
// (each itself a SelectStmt node) can be built the same way as the main
// statement, per spec §4.2's "WITH name [(cols)] AS (select) [, ...] <main
// statement>".
func splitWith(sel map[string]any) (main map[string]any, with *WithClause, err error) {
	w, err := buildWithClause(sel)
	if err != nil {
		return nil, nil, err
	}
	return sel, w, nil
}

func withClauseFrom(stmt map[string]any) *WithClause {
	w, err := buildWithClause(stmt)
	if err != nil {
		return nil
	}
	return w
}
