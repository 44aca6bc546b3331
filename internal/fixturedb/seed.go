package fixturedb

import (
	"database/sql"
	"fmt"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
)

// fakeUser mirrors the users table in schema.sql. Struct tags drive
// go-faker's reflect-based generation the same way pkg/fixgres_demo's
// User type drove it, repointed at seeding rows pkg/drift's integration
// test can diff against instead of demonstrating faker/crypto init order.
type fakeUser struct {
	Name  string `faker:"name"`
	Email string `faker:"email"`
}

// SeedUsers inserts n fake rows into the users table, giving pkg/drift's
// integration test non-empty data to introspect against schema.sql.
func SeedUsers(db *sql.DB, n int) error {
	for i := 0; i < n; i++ {
		var u fakeUser
		if err := faker.FakeData(&u); err != nil {
			return fmt.Errorf("generating fake user: %w", err)
		}
		if _, err := db.Exec(
			`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
			uuid.New(), u.Name, u.Email,
		); err != nil {
			return fmt.Errorf("inserting fake user: %w", err)
		}
	}
	return nil
}
