// Package cache keeps TTL'd index responses (quotes, pairs, candles) in a
// local sqlite file shared by concurrent CLI invocations.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// DefaultRetention is how long an entry survives past its TTL before Open
// prunes it. Stale fallback can only serve entries inside this window.
const DefaultRetention = 24 * time.Hour

const lockTimeout = 5 * time.Second

// busyTimeoutDSN makes sqlite wait for a competing writer instead of failing
// with SQLITE_BUSY.
const busyTimeoutDSN = "?_pragma=busy_timeout(5000)"

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

type Result struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

func Open(path, lockPath string) (*Store, error) {
	for _, dir := range []string{filepath.Dir(path), filepath.Dir(lockPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+busyTimeoutDSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	store := &Store{db: db, lock: flock.New(lockPath), now: time.Now}
	schema := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS query_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			created_ms INTEGER NOT NULL,
			ttl_ms INTEGER NOT NULL
		);`,
	}
	// Concurrent invocations may open a fresh file at the same time; the
	// journal mode switch and table creation run under the file lock.
	err = store.withLock(func() error {
		for _, stmt := range schema {
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	_ = store.Prune(DefaultRetention)
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune deletes entries that expired more than retention ago.
func (s *Store) Prune(retention time.Duration) error {
	if s == nil || s.db == nil {
		return nil
	}
	if retention < 0 {
		retention = 0
	}
	cutoff := s.now().UnixMilli() - retention.Milliseconds()
	return s.withLock(func() error {
		if _, err := s.db.Exec("DELETE FROM query_cache WHERE created_ms + ttl_ms < ?", cutoff); err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		return nil
	})
}

// Get reports a hit together with its age. A negative maxStale never
// marks an entry too stale.
func (s *Store) Get(key string, maxStale time.Duration) (Result, error) {
	var (
		value     []byte
		createdMS int64
		ttlMS     int64
	)
	err := s.db.QueryRow("SELECT value, created_ms, ttl_ms FROM query_cache WHERE key = ?", key).Scan(&value, &createdMS, &ttlMS)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("cache read: %w", err)
	}

	age := time.Duration(s.now().UnixMilli()-createdMS) * time.Millisecond
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlMS) * time.Millisecond
	stale := age > ttl
	return Result{
		Hit:      true,
		Value:    value,
		Age:      age,
		Stale:    stale,
		TooStale: stale && maxStale >= 0 && age > ttl+maxStale,
	}, nil
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	ttlMS := ttl.Milliseconds()
	if ttlMS <= 0 {
		ttlMS = 1000
	}
	return s.withLock(func() error {
		_, err := s.db.Exec(`
			INSERT INTO query_cache (key, value, created_ms, ttl_ms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value=excluded.value,
				created_ms=excluded.created_ms,
				ttl_ms=excluded.ttl_ms
		`, key, value, s.now().UnixMilli(), ttlMS)
		if err != nil {
			return fmt.Errorf("cache write: %w", err)
		}
		return nil
	})
}

func (s *Store) withLock(fn func() error) error {
	locked, err := s.lock.TryLockContext(context.Background(), lockTimeout)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return errors.New("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}
