package drift

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sqlcheck/sqlcheck/internal/fixturedb"
	"github.com/sqlcheck/sqlcheck/pkg/catalog"
)

// TestCheckAgainstLiveContainer boots a throwaway Postgres container,
// applies schema.sql, seeds a few fake rows, and asserts Check reports no
// mismatches when the static catalog was parsed from the same schema.sql.
// Needs Docker; skipped under -short.
func TestCheckAgainstLiveContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("requires Docker; skipped under -short")
	}

	schemaSQL, err := os.ReadFile("../../schema.sql")
	if err != nil {
		t.Fatalf("reading schema.sql: %v", err)
	}

	fixturedb.BootOnce(t, fixturedb.Config{}, string(schemaSQL))
	t.Cleanup(func() {
		if err := fixturedb.Shutdown(); err != nil {
			t.Logf("shutting down fixture container: %v", err)
		}
	})

	db, err := sql.Open("pgx", fixturedb.DSN())
	if err != nil {
		t.Fatalf("opening seed connection: %v", err)
	}
	defer db.Close()

	if err := fixturedb.SeedUsers(db, 5); err != nil {
		t.Fatalf("seeding fake users: %v", err)
	}

	cat, err := catalog.Parse(string(schemaSQL))
	if err != nil {
		t.Fatalf("parsing schema.sql: %v", err)
	}

	mismatches, err := Check(t.Context(), fixturedb.DSN(), cat)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches between schema.sql and the live container, got %v", mismatches)
	}
}
