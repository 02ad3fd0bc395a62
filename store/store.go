// Package store keeps encoded bytecode units in a SQLite database, keyed
// by the sha256 of their encoding.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/noc/vm"
	"github.com/chazu/noc/vm/dist"
)

// ErrNotFound indicates the requested unit is not in the store
var ErrNotFound = errors.New("store: unit not found")

// Entry describes one stored unit.
type Entry struct {
	Hash    dist.Hash
	Name    string
	Size    int
	Created time.Time
}

// String formats the entry for listings.
func (e Entry) String() string {
	return fmt.Sprintf("%s  %-20s %8s  %s", e.Hash.Short(), e.Name,
		humanize.Bytes(uint64(e.Size)), humanize.Time(e.Created))
}

// Store is a content-addressed unit store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	log  commonlog.Logger
}

// Open opens or creates the store database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS units (
		hash    TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		data    BLOB NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating table: %w", err)
	}

	s := &Store{db: db, path: path, log: commonlog.GetLogger("noc.store")}
	s.log.Debugf("opened %s", path)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes u and stores it under name. Storing the same unit twice
// keeps the first entry.
func (s *Store) Put(name string, u *vm.Unit) (dist.Hash, error) {
	data, err := dist.MarshalUnit(u)
	if err != nil {
		return dist.Hash{}, err
	}
	return s.put(name, data)
}

// PutEncoded stores already encoded data after checking that it decodes.
func (s *Store) PutEncoded(name string, data []byte) (dist.Hash, error) {
	if _, err := dist.UnmarshalUnit(data); err != nil {
		return dist.Hash{}, err
	}
	return s.put(name, data)
}

func (s *Store) put(name string, data []byte) (dist.Hash, error) {
	h := dist.HashBytes(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO units (hash, name, data, created) VALUES (?, ?, ?, ?)",
		h.String(), name, data, time.Now().Unix(),
	)
	if err != nil {
		return dist.Hash{}, fmt.Errorf("store: saving unit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.log.Debugf("unit %s already stored", h.Short())
	} else {
		s.log.Infof("stored %s as %s (%s)", name, h.Short(), humanize.Bytes(uint64(len(data))))
	}
	return h, nil
}

// GetEncoded returns the stored bytes for h.
func (s *Store) GetEncoded(h dist.Hash) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM units WHERE hash = ?", h.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
		}
		return nil, fmt.Errorf("store: querying unit: %w", err)
	}
	return data, nil
}

// Get loads and decodes the unit stored under h, verifying its hash.
func (s *Store) Get(h dist.Hash) (*vm.Unit, error) {
	data, err := s.GetEncoded(h)
	if err != nil {
		return nil, err
	}
	return dist.VerifyUnit(data, h)
}

// Has reports whether h is stored.
func (s *Store) Has(h dist.Hash) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM units WHERE hash = ?", h.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: querying unit: %w", err)
	}
	return n > 0, nil
}

// List returns all entries, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT hash, name, length(data), created FROM units ORDER BY created DESC, hash")
	if err != nil {
		return nil, fmt.Errorf("store: listing units: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			hexHash string
			e       Entry
			created int64
		)
		if err := rows.Scan(&hexHash, &e.Name, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("store: scanning unit: %w", err)
		}
		if e.Hash, err = dist.ParseHash(hexHash); err != nil {
			return nil, fmt.Errorf("store: corrupt hash %q: %w", hexHash, err)
		}
		e.Created = time.Unix(created, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing units: %w", err)
	}
	return entries, nil
}

// Delete removes h from the store. Deleting a missing unit is not an error.
func (s *Store) Delete(h dist.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM units WHERE hash = ?", h.String()); err != nil {
		return fmt.Errorf("store: deleting unit: %w", err)
	}
	return nil
}
