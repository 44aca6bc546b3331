package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlcheck/sqlcheck/pkg/sqlerr"
)

type fieldCase struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type analyzeCase struct {
	ID                string      `json:"id"`
	Query             string      `json:"query"`
	Params            int         `json:"params"`
	Expected          []fieldCase `json:"expected"`
	ExpectedErrorKind string      `json:"expected_error_kind"`
}

const testSchema = `
CREATE TABLE users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE profiles (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    bio TEXT,
    FOREIGN KEY (user_id) REFERENCES users (id)
);

CREATE TABLE categories (
    id INTEGER PRIMARY KEY,
    parent_id INTEGER,
    name TEXT NOT NULL,
    FOREIGN KEY (parent_id) REFERENCES categories (id)
);
`

func loadAnalyzeCases(t *testing.T) []analyzeCase {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "analyze_cases.json"))
	if err != nil {
		t.Fatalf("failed to read testdata: %v", err)
	}
	var cases []analyzeCase
	if err := json.Unmarshal(data, &cases); err != nil {
		t.Fatalf("failed to unmarshal testdata: %v", err)
	}
	return cases
}

func TestAnalyze(t *testing.T) {
	cases := loadAnalyzeCases(t)

	for _, c := range cases {
		t.Run(c.ID, func(t *testing.T) {
			desc, _, err := Analyze(testSchema, c.Query, c.Params)

			if c.ExpectedErrorKind != "" {
				if err == nil {
					t.Fatalf("expected error kind %s, got success", c.ExpectedErrorKind)
				}
				kind, ok := sqlerr.KindOf(err)
				if !ok || kind.String() != c.ExpectedErrorKind {
					t.Fatalf("expected error kind %s, got %v (%v)", c.ExpectedErrorKind, kind, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(desc.Fields) != len(c.Expected) {
				t.Fatalf("field count mismatch: got %d, want %d (%#v)", len(desc.Fields), len(c.Expected), desc.Fields)
			}
			for i, want := range c.Expected {
				got := desc.Fields[i]
				if got.Name != want.Name {
					t.Errorf("field %d name: got %q, want %q", i, got.Name, want.Name)
				}
				if got.Type.Tag() != want.Type {
					t.Errorf("field %d type: got %q, want %q", i, got.Type.Tag(), want.Type)
				}
				if got.Nullable != want.Nullable {
					t.Errorf("field %d nullable: got %v, want %v", i, got.Nullable, want.Nullable)
				}
			}
		})
	}
}

// TestIdempotence covers spec §8's idempotence invariant: analyzing the
// same query twice must yield structurally equal descriptors.
func TestIdempotence(t *testing.T) {
	const query = "SELECT u.name, p.bio FROM users u LEFT JOIN profiles p ON p.user_id = u.id"
	d1, _, err := Analyze(testSchema, query, 0)
	if err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	d2, _, err := Analyze(testSchema, query, 0)
	if err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}
	if len(d1.Fields) != len(d2.Fields) {
		t.Fatalf("field count differs across runs")
	}
	for i := range d1.Fields {
		if d1.Fields[i] != d2.Fields[i] {
			t.Fatalf("field %d differs across runs: %#v vs %#v", i, d1.Fields[i], d2.Fields[i])
		}
	}
}

func TestDuplicateOutputNameWarning(t *testing.T) {
	_, warnings, err := Analyze(testSchema, "SELECT u.id, p.id FROM users u JOIN profiles p ON p.user_id = u.id", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatalf("expected a duplicate-output-name warning")
	}
}
