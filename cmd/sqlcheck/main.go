// Command sqlcheck is the build-time CLI entry point (spec §6): it
// resolves the schema file, analyzes one query string against it, and
// prints the resulting descriptor (or a classified error) as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sqlcheck/sqlcheck/internal/logutil"
	"github.com/sqlcheck/sqlcheck/pkg/analyzer"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/typemap"
)

func main() {
	schemaPath := flag.String("schema", "", "path to schema DDL (defaults to $SQL_CHECK_SCHEMA or ./schema.sql)")
	query := flag.String("query", "", "SQL query to analyze")
	params := flag.Int("params", 0, "number of positional parameters the caller declares")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if *query == "" {
		zap.L().Fatal("no query provided", zap.String("flag", "--query"))
	}

	path := resolveSchemaPath(*schemaPath)
	schemaText, err := os.ReadFile(path)
	if err != nil {
		zap.L().Fatal("reading schema file failed",
			logutil.Values(zap.String("path", path), zap.Error(err)))
	}

	desc, warnings, err := analyzer.Analyze(string(schemaText), *query, *params)
	if err != nil {
		kind, _ := sqlerr.KindOf(err)
		zap.L().Error("analysis failed",
			logutil.Values(zap.String("kind", kind.String()), zap.Error(err)))
		os.Exit(1)
	}

	for _, w := range warnings {
		zap.L().Warn("analysis warning", logutil.Values(zap.String("id", w.ID), zap.String("message", w.Message)))
	}

	out := toOutput(desc)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		zap.L().Fatal("encoding result failed", zap.Error(err))
	}
}

// resolveSchemaPath implements spec §6's schema path resolution: explicit
// flag, else $SQL_CHECK_SCHEMA, else ./schema.sql.
func resolveSchemaPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SQL_CHECK_SCHEMA"); env != "" {
		return env
	}
	return "schema.sql"
}

type fieldOutput struct {
	Name       string `json:"name"`
	SQLType    string `json:"sql_type_tag"`
	TargetType string `json:"target_type"`
	Nullable   bool   `json:"nullable"`
}

type descriptorOutput struct {
	Fields []fieldOutput `json:"fields"`
}

func toOutput(desc *analyzer.ResultDescriptor) descriptorOutput {
	out := descriptorOutput{Fields: make([]fieldOutput, len(desc.Fields))}
	for i, f := range desc.Fields {
		out.Fields[i] = fieldOutput{
			Name:       f.Name,
			SQLType:    f.Type.Tag(),
			TargetType: typemap.TargetTypeOf(f.Type),
			Nullable:   f.Nullable,
		}
	}
	return out
}
