package space

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteSpace stores pages in a SQLite database and keeps a revision row
// for every write that changes a page's text.
type SQLiteSpace struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Revision is a stored version of a page.
type Revision struct {
	ID      string    `json:"id"`
	Page    string    `json:"page"`
	Hash    string    `json:"hash"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// OpenSQLite opens (creating if needed) a SQLite space and migrates its
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteSpace, error) {
	if path == "" {
		path = ":memory:"
	}
	dsn := path + "?_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := newSQLiteSpace(db)
	s.path = path
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLiteSpace(db *sql.DB) *SQLiteSpace {
	return &SQLiteSpace{db: db, now: time.Now}
}

// Path returns the database path.
func (s *SQLiteSpace) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteSpace) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new revision id.
func generateID() string {
	return uuid.New().String()
}

// contentHash returns the hex BLAKE2b-256 digest of text.
func contentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ListPages implements Space.
func (s *SQLiteSpace) ListPages(ctx context.Context) ([]PageMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, text, created_at, modified_at FROM pages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var out []PageMeta
	for rows.Next() {
		var (
			name, text        string
			created, modified time.Time
		)
		if err := rows.Scan(&name, &text, &created, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		out = append(out, newMeta(name, text, created, modified))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return out, nil
}

// ReadPage implements Space.
func (s *SQLiteSpace) ReadPage(ctx context.Context, name string) (*Page, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	var (
		text              string
		created, modified time.Time
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT text, created_at, modified_at FROM pages WHERE name = ?`, name,
	).Scan(&text, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}
	return &Page{Meta: newMeta(name, text, created, modified), Text: text}, nil
}

// WritePage implements Space. A revision is recorded when the text differs
// from the latest revision.
func (s *SQLiteSpace) WritePage(ctx context.Context, name, text string) (PageMeta, error) {
	name, err := cleanName(name)
	if err != nil {
		return PageMeta{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()
	created := now
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM pages WHERE name = ?`, name).Scan(&created)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return PageMeta{}, fmt.Errorf("failed to read page %s: %w", name, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pages (name, text, created_at, modified_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET text = excluded.text, modified_at = excluded.modified_at`,
		name, text, created, now,
	)
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to write page %s: %w", name, err)
	}

	hash := contentHash(text)
	var latest string
	err = tx.QueryRowContext(ctx,
		`SELECT hash FROM page_revisions WHERE page = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, name,
	).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return PageMeta{}, fmt.Errorf("failed to read revisions of %s: %w", name, err)
	}
	if latest != hash {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO page_revisions (id, page, hash, text, created_at) VALUES (?, ?, ?, ?, ?)`,
			generateID(), name, hash, text, now,
		)
		if err != nil {
			return PageMeta{}, fmt.Errorf("failed to record revision of %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return PageMeta{}, fmt.Errorf("failed to commit page %s: %w", name, err)
	}
	return newMeta(name, text, created, now), nil
}

// DeletePage implements Space. Revisions are kept.
func (s *SQLiteSpace) DeletePage(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", name, err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

// Revisions returns the recorded versions of a page, newest first.
func (s *SQLiteSpace) Revisions(ctx context.Context, name string) ([]Revision, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, text, created_at FROM page_revisions WHERE page = ? ORDER BY created_at DESC, rowid DESC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions of %s: %w", name, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		r := Revision{Page: name}
		if err := rows.Scan(&r.ID, &r.Hash, &r.Text, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list revisions of %s: %w", name, err)
	}
	return out, nil
}
