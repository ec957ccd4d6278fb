package space

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var errClosed = errors.New("space: database is closed")

// migrator builds a goose provider over the embedded page schema. Providers
// carry no global state, so several spaces may migrate concurrently.
func (s *SQLiteSpace) migrator() (*goose.Provider, error) {
	if s.db == nil {
		return nil, errClosed
	}
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, s.db, sub)
}

// Migrate brings the page schema up to date.
func (s *SQLiteSpace) Migrate(ctx context.Context) error {
	p, err := s.migrator()
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate page schema: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func (s *SQLiteSpace) MigrationVersion(ctx context.Context) (int64, error) {
	p, err := s.migrator()
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
