package space

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var pagesBucket = []byte("pages")

// BoltSpace stores pages as JSON records in a single bbolt bucket keyed by
// page name. Keys are kept sorted by bbolt, so listing needs no sort.
type BoltSpace struct {
	db  *bolt.DB
	now func() time.Time
}

type boltRecord struct {
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// OpenBolt opens (creating if needed) a bbolt space file.
func OpenBolt(path string) (*BoltSpace, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt backend requires a path")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(pagesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create pages bucket: %w", err)
	}
	return &BoltSpace{db: db, now: time.Now}, nil
}

// Path returns the database file path.
func (s *BoltSpace) Path() string {
	return s.db.Path()
}

// ListPages implements Space.
func (s *BoltSpace) ListPages(ctx context.Context) ([]PageMeta, error) {
	var out []PageMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(pagesBucket).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record for %s: %w", k, err)
			}
			out = append(out, newMeta(string(k), rec.Text, rec.Created, rec.Modified))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return out, nil
}

// ReadPage implements Space.
func (s *BoltSpace) ReadPage(_ context.Context, name string) (*Page, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	var (
		rec   boltRecord
		found bool
	)
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(pagesBucket).Get([]byte(name))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}
	if !found {
		return nil, notFound(name)
	}
	return &Page{Meta: newMeta(name, rec.Text, rec.Created, rec.Modified), Text: rec.Text}, nil
}

// WritePage implements Space.
func (s *BoltSpace) WritePage(_ context.Context, name, text string) (PageMeta, error) {
	name, err := cleanName(name)
	if err != nil {
		return PageMeta{}, err
	}

	now := s.now().UTC()
	rec := boltRecord{Text: text, Created: now, Modified: now}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(pagesBucket)
		if v := b.Get([]byte(name)); v != nil {
			var old boltRecord
			if err := json.Unmarshal(v, &old); err == nil {
				rec.Created = old.Created
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), data)
	})
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to write page %s: %w", name, err)
	}
	return newMeta(name, text, rec.Created, rec.Modified), nil
}

// DeletePage implements Space.
func (s *BoltSpace) DeletePage(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	var found bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(pagesBucket)
		if b.Get([]byte(name)) == nil {
			return nil
		}
		found = true
		return b.Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", name, err)
	}
	if !found {
		return notFound(name)
	}
	return nil
}

// Close implements Space.
func (s *BoltSpace) Close() error {
	return s.db.Close()
}
