// Command sqlcheck-dev is a small development server: it exposes the
// analyzer over HTTP for editor/IDE integrations (POST /analyze) and over
// a WebSocket watch mode (GET /watch) that re-analyzes a query each time
// the client pushes a new draft, so an editor can show live diagnostics
// without re-invoking the CLI per keystroke.
//
// Grounded on internal/api/routes.go's chi.Router setup and internal/api/
// ws.go's upgrade-then-message-loop shape, repointed at the static
// analyzer instead of a live database.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sqlcheck/sqlcheck/internal/logutil"
)

func main() {
	addr := flag.String("addr", ":8081", "address to listen on")
	schemaPath := flag.String("schema", "", "path to schema DDL (defaults to $SQL_CHECK_SCHEMA or ./schema.sql)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	path := *schemaPath
	if path == "" {
		path = resolveSchemaPath()
	}

	h := &devHandler{schemaPath: path}

	r := chi.NewRouter()
	r.Get("/watch", h.handleWatch)
	r.Group(func(r chi.Router) {
		r.Use(loggingMiddleware)
		r.Post("/analyze", h.handleAnalyze)
	})

	zap.L().Info("sqlcheck-dev listening", logutil.Values(zap.String("addr", *addr), zap.String("schema", path)))
	if err := http.ListenAndServe(*addr, r); err != nil {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}

func resolveSchemaPath() string {
	if env := os.Getenv("SQL_CHECK_SCHEMA"); env != "" {
		return env
	}
	return "schema.sql"
}
