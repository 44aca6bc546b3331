package catalog

import (
	"strings"
	"testing"
)

func TestParseTypeSpellings(t *testing.T) {
	ddl := `
CREATE TABLE widgets (
    a smallint,
    b int2,
    c integer,
    d int4,
    e int,
    f bigint,
    g int8,
    h real,
    i float4,
    j double precision,
    k float8,
    l numeric(10,2),
    m decimal,
    n text,
    o varchar(255),
    p char(4),
    q bytea,
    r boolean,
    s bool,
    t timestamp,
    u timestamp without time zone,
    v timestamp with time zone,
    w timestamptz,
    x date,
    y time,
    z uuid,
    aa json,
    ab jsonb,
    ac inet,
    ad text[]
);
`
	cat, err := Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	tbl, ok := cat.Table("widgets")
	if !ok {
		t.Fatalf("table widgets not found")
	}

	want := map[string]string{
		"a": "smallint", "b": "smallint",
		"c": "integer", "d": "integer", "e": "integer",
		"f": "bigint", "g": "bigint",
		"h": "real", "i": "real",
		"j": "double", "k": "double",
		"l": "numeric", "m": "numeric",
		"n": "text", "o": "text", "p": "text",
		"q": "bytea",
		"r": "boolean", "s": "boolean",
		"t": "timestamp", "u": "timestamp",
		"v": "timestamptz", "w": "timestamptz",
		"x": "date",
		"y": "time",
		"z": "uuid",
		"aa": "json", "ab": "jsonb",
		"ac": "inet",
		"ad": "array<text>",
	}
	for col, tag := range want {
		c, ok := tbl.Column(col)
		if !ok {
			t.Errorf("column %q not found", col)
			continue
		}
		if got := c.Type.Tag(); got != tag {
			t.Errorf("column %q: got tag %q, want %q", col, got, tag)
		}
	}
}

func TestNullabilityRule(t *testing.T) {
	ddl := `
CREATE TABLE t (
    id integer PRIMARY KEY,
    required text NOT NULL,
    optional text
);
`
	cat, err := Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	tbl, _ := cat.Table("t")

	cases := []struct {
		col      string
		nullable bool
	}{
		{"id", false},
		{"required", false},
		{"optional", true},
	}
	for _, c := range cases {
		col, ok := tbl.Column(c.col)
		if !ok {
			t.Fatalf("column %q not found", c.col)
		}
		if col.Nullable != c.nullable {
			t.Errorf("column %q: got nullable=%v, want %v", c.col, col.Nullable, c.nullable)
		}
	}
}

func TestToleratesNonTableStatements(t *testing.T) {
	ddl := `
-- a leading comment
CREATE SCHEMA app;

/* block comment
   spanning lines */
CREATE TABLE t (id integer PRIMARY KEY);

CREATE INDEX t_id_idx ON t (id);
ALTER TABLE t OWNER TO someone;
SET search_path = app, public;
`
	cat, err := Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if _, ok := cat.Table("t"); !ok {
		t.Fatalf("table t not found")
	}
	if len(cat.Tables()) != 1 {
		t.Fatalf("expected exactly one table, got %v", cat.Tables())
	}
}

func TestUnparseableCreateTableIsSchemaParse(t *testing.T) {
	ddl := `CREATE TABLE t (id not_a_real_type_spelling_xyz);`
	_, err := Parse(ddl)
	if err == nil {
		t.Fatalf("expected a SchemaParse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected error to report line 1, got: %v", err)
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	ddl := `CREATE TABLE Accounts (id integer PRIMARY KEY);`
	cat, err := Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if _, ok := cat.Table("ACCOUNTS"); !ok {
		t.Errorf("expected case-insensitive lookup to find accounts")
	}
}

func TestSuffixLookupForSchemaQualifiedEntries(t *testing.T) {
	cat := New()
	cat.addTable(&Table{Name: "public.accounts", byName: map[string]int{}, isPK: map[string]bool{}})
	if _, ok := cat.Table("accounts"); !ok {
		t.Errorf("expected bare name to suffix-match a schema-qualified entry")
	}
}
