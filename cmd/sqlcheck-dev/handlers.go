package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sqlcheck/sqlcheck/pkg/analyzer"
	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
	"github.com/sqlcheck/sqlcheck/pkg/typemap"
)

// devHandler holds the schema path shared by every request; the schema is
// re-read per request (spec §5: rebuilding the catalog is always correct,
// memoization is only a performance concern) so an edit to schema.sql is
// picked up without restarting the dev server.
type devHandler struct {
	schemaPath string
}

type analyzeRequest struct {
	Query  string `json:"query"`
	Params int    `json:"params"`
}

type fieldResponse struct {
	Name       string `json:"name"`
	SQLType    string `json:"sql_type_tag"`
	TargetType string `json:"target_type"`
	Nullable   bool   `json:"nullable"`
}

type warningResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type analyzeResponse struct {
	Fields   []fieldResponse   `json:"fields,omitempty"`
	Warnings []warningResponse `json:"warnings,omitempty"`
	Error    *errorResponse    `json:"error,omitempty"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (h *devHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	resp := h.analyze(req)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *devHandler) analyze(req analyzeRequest) analyzeResponse {
	schemaText, err := os.ReadFile(h.schemaPath)
	if err != nil {
		return analyzeResponse{Error: &errorResponse{Kind: sqlerr.SchemaParse.String(), Message: err.Error()}}
	}

	desc, warnings, err := analyzer.Analyze(string(schemaText), req.Query, req.Params)
	resp := analyzeResponse{}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{ID: warn.ID, Message: warn.Message})
	}
	if err != nil {
		kind, _ := sqlerr.KindOf(err)
		resp.Error = &errorResponse{Kind: kind.String(), Message: err.Error()}
		return resp
	}
	for _, f := range desc.Fields {
		resp.Fields = append(resp.Fields, fieldResponse{
			Name:       f.Name,
			SQLType:    f.Type.Tag(),
			TargetType: typemap.TargetTypeOf(f.Type),
			Nullable:   f.Nullable,
		})
	}
	return resp
}

// loggingMiddleware mirrors internal/api/middleware.go's status-capturing
// wrapper, swapped to zap's structured logger.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
