// Package fixturedb boots a throwaway Postgres container and loads
// schema.sql into it as a single goose "up" migration, purely to hand
// pkg/drift's integration test a real database to diff against (spec
// SPEC_FULL.md §10.6). Goose is a one-shot fixture loader here, not a
// product feature: sqlcheck never migrates or evolves schema itself.
//
// Adapted from pkg/fixgres: same boot-once-per-package-run container
// lifecycle, repointed at loading a single
// schema.sql file instead of a directory of migration files authored for
// this repo.
package fixturedb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type Config struct {
	Image      string
	DBName     string
	User       string
	Password   string
	SchemaPath string
}

var (
	once       sync.Once
	container  *postgres.PostgresContainer
	connString string
	bootErr    error
)

// BootOnce starts the container and applies schemaSQL the first time it is
// called in a test binary's lifetime; later calls are no-ops that reuse
// the same container, the way fixgres.BootOnce does.
func BootOnce(t *testing.T, cfg Config, schemaSQL string) {
	t.Helper()
	once.Do(func() {
		if cfg.Image == "" {
			cfg.Image = "docker.io/postgres:16-alpine"
		}
		if cfg.DBName == "" {
			cfg.DBName = "sqlcheck_fixture"
		}
		if cfg.User == "" {
			cfg.User = "postgres"
		}
		if cfg.Password == "" {
			cfg.Password = "pass"
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		c, err := postgres.Run(ctx,
			cfg.Image,
			postgres.WithDatabase(cfg.DBName),
			postgres.WithUsername(cfg.User),
			postgres.WithPassword(cfg.Password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			bootErr = fmt.Errorf("starting postgres container: %w", err)
			return
		}
		container = c

		host, err := c.Host(ctx)
		if err != nil {
			bootErr = fmt.Errorf("reading container host: %w", err)
			return
		}
		port, err := c.MappedPort(ctx, "5432/tcp")
		if err != nil {
			bootErr = fmt.Errorf("reading mapped port: %w", err)
			return
		}
		connString = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.User, cfg.Password, host, port.Port(), cfg.DBName)

		db, err := sql.Open("pgx", connString)
		if err != nil {
			bootErr = fmt.Errorf("opening migration connection: %w", err)
			return
		}
		defer db.Close()

		goose.SetBaseFS(newSingleFileFS(schemaSQL))
		if err := goose.SetDialect("postgres"); err != nil {
			bootErr = fmt.Errorf("setting goose dialect: %w", err)
			return
		}
		if err := goose.Up(db, "."); err != nil {
			bootErr = fmt.Errorf("applying schema.sql as a migration: %w", err)
			return
		}
	})
	if bootErr != nil {
		t.Fatalf("fixturedb boot failed: %v", bootErr)
	}
}

// DSN returns the connection string for the booted container, passed
// directly to drift.Check by pkg/drift's integration test.
func DSN() string { return connString }

// Shutdown terminates the container; call it once from a TestMain after
// every test using BootOnce has run.
func Shutdown() error {
	if container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return container.Terminate(ctx)
}
