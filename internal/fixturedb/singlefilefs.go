package fixturedb

import (
	"io/fs"
	"testing/fstest"
)

// newSingleFileFS presents schemaSQL as a one-migration fs.FS so goose can
// apply it with goose.Up without a directory of numbered migration files.
// A "-- +goose Up" annotation is prepended because goose does not run a SQL
// migration file that lacks one.
// The filename embeds a fixed version so repeated boots within a test
// binary are idempotent from goose's point of view.
func newSingleFileFS(schemaSQL string) fs.FS {
	return fstest.MapFS{
		"00001_schema.sql": &fstest.MapFile{Data: []byte("-- +goose Up\n" + schemaSQL)},
	}
}
