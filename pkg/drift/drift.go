// Package drift implements the optional live schema drift check (spec
// §10.5 of the expanded spec): it introspects a real database's
// information_schema the way richcatalog.go does and reports where the
// live schema disagrees with the static catalog the analyzer actually
// uses, so a stale schema.sql dump is caught before it silently produces
// a confidently wrong ResultDescriptor.
//
// This package never executes, plans, or rewrites application SQL — it
// only reads information_schema. The caller supplies the connection
// string to Check.
package drift

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/lib/pq"

	"github.com/sqlcheck/sqlcheck/pkg/catalog"
	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// Mismatch describes one disagreement between the live database and the
// static catalog built from schema.sql.
type Mismatch struct {
	Table   string
	Column  string
	Kind    MismatchKind
	Live    string
	Static  string
}

type MismatchKind int

const (
	// MissingInStatic: the live database has a table/column the static
	// catalog has no entry for at all.
	MissingInStatic MismatchKind = iota
	// MissingInLive: the static catalog describes a table/column that
	// no longer exists in the live database.
	MissingInLive
	// TypeDiffers: both sides know the column but disagree on its type.
	TypeDiffers
	// NullableDiffers: both sides know the column but disagree on
	// whether it is nullable.
	NullableDiffers
)

func (k MismatchKind) String() string {
	switch k {
	case MissingInStatic:
		return "missing_in_static"
	case MissingInLive:
		return "missing_in_live"
	case TypeDiffers:
		return "type_differs"
	case NullableDiffers:
		return "nullable_differs"
	default:
		return "unknown"
	}
}

// liveColumn is one row of the information_schema introspection query.
type liveColumn struct {
	table      string
	column     string
	dataType   string
	isNullable bool
}

// Check opens dsn, introspects every base table in the public schema, and
// diffs it against cat (the catalog already parsed from schema.sql).
// It returns one Mismatch per disagreement found, in deterministic
// (table, column) order.
func Check(ctx context.Context, dsn string, cat *catalog.Catalog) ([]Mismatch, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening drift connection: %w", err)
	}
	defer db.Close()

	live, err := introspect(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("introspecting live schema: %w", err)
	}

	return diff(live, cat), nil
}

// introspect runs a single information_schema query, matching
// richcatalog.go's "one round-trip" posture.
func introspect(ctx context.Context, db *sql.DB) ([]liveColumn, error) {
	rows, err := db.QueryContext(ctx, `
SELECT c.table_name, c.column_name, c.data_type, c.is_nullable = 'YES'
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []liveColumn
	for rows.Next() {
		var lc liveColumn
		if err := rows.Scan(&lc.table, &lc.column, &lc.dataType, &lc.isNullable); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// diff compares the live columns against the static catalog. Type
// comparison uses sqltype.Tag() on both sides so that Postgres's own
// spelling ("character varying", "integer") and schema.sql's spelling
// compare under the same normalization the analyzer itself uses. A live
// spelling sqltype.FromTypeName does not recognize is not type-compared.
func diff(live []liveColumn, cat *catalog.Catalog) []Mismatch {
	var mismatches []Mismatch

	liveByTable := make(map[string][]liveColumn)
	for _, lc := range live {
		liveByTable[lc.table] = append(liveByTable[lc.table], lc)
	}

	for tableName, liveCols := range liveByTable {
		tbl, ok := cat.Table(tableName)
		if !ok {
			for _, lc := range liveCols {
				mismatches = append(mismatches, Mismatch{
					Table: tableName, Column: lc.column, Kind: MissingInStatic, Live: lc.dataType,
				})
			}
			continue
		}
		staticSeen := make(map[string]bool)
		for _, lc := range liveCols {
			staticSeen[lc.column] = true
			col, ok := tbl.Column(lc.column)
			if !ok {
				mismatches = append(mismatches, Mismatch{
					Table: tableName, Column: lc.column, Kind: MissingInStatic, Live: lc.dataType,
				})
				continue
			}
			liveType, err := sqltype.FromTypeName(lc.dataType, 0)
			if err == nil && liveType.Tag() != col.Type.Tag() {
				mismatches = append(mismatches, Mismatch{
					Table: tableName, Column: lc.column, Kind: TypeDiffers,
					Live: liveType.Tag(), Static: col.Type.Tag(),
				})
			}
			if lc.isNullable != col.Nullable {
				mismatches = append(mismatches, Mismatch{
					Table: tableName, Column: lc.column, Kind: NullableDiffers,
					Live: fmt.Sprintf("%v", lc.isNullable), Static: fmt.Sprintf("%v", col.Nullable),
				})
			}
		}
		for _, col := range tbl.Columns {
			if !staticSeen[col.Name] {
				mismatches = append(mismatches, Mismatch{
					Table: tableName, Column: col.Name, Kind: MissingInLive, Static: col.Type.Tag(),
				})
			}
		}
	}

	for _, name := range cat.Tables() {
		if _, ok := liveByTable[name]; !ok {
			mismatches = append(mismatches, Mismatch{Table: name, Kind: MissingInLive})
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if mismatches[i].Table != mismatches[j].Table {
			return mismatches[i].Table < mismatches[j].Table
		}
		return mismatches[i].Column < mismatches[j].Column
	})
	return mismatches
}
