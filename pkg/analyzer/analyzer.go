// Package analyzer implements the Statement Analyzer (spec §4.5) and the
// top-level Analyze entry point (spec §6): it orchestrates the Schema
// Catalog Builder, SQL Parser, Scope Resolver, and Expression Typer into
// one build-time check of an embedded query string against a static
// schema, producing a ResultDescriptor or a classified AnalysisError.
//
// Grounded on pg_lineage's ResolveProvenance orchestration (parse once,
// walk the statement, resolve every column reference against a catalog)
// and on rewrite_pks.go's dispatch-by-statement-kind / wrapped-error style.
package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/scope"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/sqlparse"
	"github.com/sqlcheck/sqlcheck/pkg/typer"
)

// ResultDescriptor and Field are scope's types re-exported under the name
// the rest of the spec uses; the Scope Resolver already owns their shape
// because CTE bodies must be typed before the statement referencing them.
type ResultDescriptor = scope.ResultDescriptor
type Field = scope.Field

// Warning is one entry of the side-channel the spec requires even on
// success (§7): duplicate output names, Unknown residues reaching the top
// of a descriptor. ID is a correlation id a caller can log alongside the
// generated code site.
type Warning struct {
	ID      string
	Message string
}

// Analyze is the entry point of spec §6: analyze(schema_text, query_text,
// declared_param_count) -> Result<ResultDescriptor, AnalysisError>.
// Warnings are returned alongside a success result, and alongside a
// failure too (whatever accumulated before the fatal error, per §7).
func Analyze(schemaText, queryText string, declaredParamCount int) (*ResultDescriptor, []Warning, error) {
	cat, err := catalog.Parse(schemaText)
	if err != nil {
		return nil, nil, sqlerr.Wrap(sqlerr.SchemaParse, err, "parsing schema")
	}

	query, err := sqlparse.Parse(queryText)
	if err != nil {
		var uc *sqlparse.UnsupportedConstructError
		var us *sqlparse.UnsupportedStatementError
		if errors.As(err, &uc) || errors.As(err, &us) {
			return nil, nil, sqlerr.Wrap(sqlerr.UnsupportedConstruct, err, "parsing query")
		}
		return nil, nil, sqlerr.Wrap(sqlerr.QueryParse, err, "parsing query")
	}

	a := &analyzer{cat: cat}
	root := scope.New(nil)

	// analyzeSelect binds a SELECT's own query.With itself (it also has to
	// do this for subqueries, which never pass through here), so only bind
	// it at this level for the statement kinds that don't do that.
	if query.With != nil {
		if _, ok := query.Main.(*sqlparse.SelectStmt); !ok {
			if err := a.bindCTEs(query.With, root); err != nil {
				return nil, a.warnings, err
			}
		}
	}

	var desc *ResultDescriptor
	switch stmt := query.Main.(type) {
	case *sqlparse.SelectStmt:
		desc, err = a.analyzeSelect(stmt, root)
	case *sqlparse.InsertStmt:
		desc, err = a.analyzeInsert(stmt, root)
	case *sqlparse.UpdateStmt:
		desc, err = a.analyzeUpdate(stmt, root)
	case *sqlparse.DeleteStmt:
		desc, err = a.analyzeDelete(stmt, root)
	default:
		err = sqlerr.New(sqlerr.UnsupportedConstruct, "top-level statement kind")
	}
	if err != nil {
		return nil, a.warnings, err
	}

	if missing := root.MissingParams(); len(missing) > 0 {
		return nil, a.warnings, sqlerr.New(sqlerr.ParameterArityMismatch,
			"declared %d parameters but indices %v were never used", declaredParamCount, missing)
	}
	if root.MaxParam() != declaredParamCount {
		return nil, a.warnings, sqlerr.New(sqlerr.ParameterArityMismatch,
			"expected %d parameters, query uses %d", declaredParamCount, root.MaxParam())
	}

	a.warnUnknownFields(desc)
	a.warnDuplicateNames(desc)

	return desc, a.warnings, nil
}

// analyzer carries the per-call catalog and the warnings side-channel
// (spec §7) that accumulates across an entire statement's analysis,
// including every CTE and nested subquery.
type analyzer struct {
	cat      *catalog.Catalog
	warnings []Warning
}

func (a *analyzer) warn(format string, args ...any) {
	a.warnings = append(a.warnings, Warning{ID: uuid.NewString(), Message: fmt.Sprintf(format, args...)})
}

func (a *analyzer) warnUnknownFields(desc *ResultDescriptor) {
	if desc == nil {
		return
	}
	for _, f := range desc.Fields {
		if f.Type.Tag() == "unknown" {
			a.warn("output column %q has an unresolved type and is emitted as unknown", f.Name)
		}
	}
}

func (a *analyzer) warnDuplicateNames(desc *ResultDescriptor) {
	if desc == nil {
		return
	}
	seen := make(map[string]bool)
	for _, f := range desc.Fields {
		lower := strings.ToLower(f.Name)
		if seen[lower] {
			a.warn("duplicate output column name %q", f.Name)
			continue
		}
		seen[lower] = true
	}
}

// subqueryAnalyzer adapts analyzeSelect to the scope.SubqueryAnalyzer
// shape scope and typer need for derived tables and scalar subqueries,
// without those packages importing analyzer (which would cycle back).
func (a *analyzer) subqueryAnalyzer() scope.SubqueryAnalyzer {
	return func(q *sqlparse.SelectStmt, parent *scope.Scope) (*ResultDescriptor, error) {
		return a.analyzeSelect(q, parent)
	}
}

func (a *analyzer) newTyper(s *scope.Scope) *typer.Typer {
	return typer.New(s, a.subqueryAnalyzer())
}

// bindCTEs analyzes each CTE body in order and records its ResultDescriptor
// on root (spec §4.5 CTE: "each CTE body is analyzed ... possibly
// recursively referring to previously-bound CTEs in the same WITH").
func (a *analyzer) bindCTEs(with *sqlparse.WithClause, root *scope.Scope) error {
	for _, cte := range with.CTEs {
		desc, err := a.analyzeSelect(cte.Query, root)
		if err != nil {
			return err
		}
		if len(cte.Columns) > 0 {
			desc = renameFields(desc, cte.Columns)
		}
		root.AddCTE(cte.Name, desc)
	}
	return nil
}

// renameFields applies an explicit CTE column-alias list: it renames
// outputs positionally but never retypes them (spec §4.5).
func renameFields(desc *ResultDescriptor, names []string) *ResultDescriptor {
	out := &ResultDescriptor{Fields: make([]Field, len(desc.Fields))}
	copy(out.Fields, desc.Fields)
	for i, name := range names {
		if i >= len(out.Fields) {
			break
		}
		out.Fields[i].Name = name
	}
	return out
}
