package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const (
	DefaultListLimit = 20
	storeLockTimeout = 5 * time.Second
	busyTimeoutDSN   = "?_pragma=busy_timeout(5000)"
)

// Store is the sqlite action journal. Every transaction id recorded on a
// step is indexed so an action can be found from an explorer link.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

var _ Journal = (*Store)(nil)

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status  string
	Intent  string
	Network string
	Limit   int
}

func OpenStore(path, lockPath string) (*Store, error) {
	for _, dir := range []string{filepath.Dir(path), filepath.Dir(lockPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create action store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+busyTimeoutDSN)
	if err != nil {
		return nil, fmt.Errorf("open action sqlite: %w", err)
	}

	schema := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS actions (
			action_id TEXT PRIMARY KEY,
			intent_type TEXT NOT NULL,
			status TEXT NOT NULL,
			network TEXT NOT NULL,
			chain_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_actions_status_updated ON actions(status, updated_at DESC);",
		`CREATE TABLE IF NOT EXISTS action_txs (
			tx_id TEXT PRIMARY KEY,
			action_id TEXT NOT NULL,
			step_id TEXT NOT NULL
		);`,
	}
	store := &Store{db: db, lock: flock.New(lockPath)}
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
		return nil, fmt.Errorf("init action schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the action and indexes its step transaction ids.
func (s *Store) Save(action Action) error {
	if strings.TrimSpace(action.ActionID) == "" {
		return errors.New("save action: missing action id")
	}
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	now := time.Now().UTC().Unix()
	createdUnix := unixOr(action.CreatedAt, now)
	updatedUnix := unixOr(action.UpdatedAt, now)

	return s.withLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("save action: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.Exec(`
			INSERT INTO actions (action_id, intent_type, status, network, chain_id, created_at, updated_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(action_id) DO UPDATE SET
				status=excluded.status,
				updated_at=excluded.updated_at,
				payload=excluded.payload
		`, action.ActionID, action.IntentType, string(action.Status), action.Network, action.ChainID, createdUnix, updatedUnix, payload)
		if err != nil {
			return fmt.Errorf("save action: %w", err)
		}
		for _, step := range action.Steps {
			if step.TxID == "" {
				continue
			}
			if _, err := tx.Exec(
				"INSERT OR REPLACE INTO action_txs (tx_id, action_id, step_id) VALUES (?, ?, ?)",
				step.TxID, action.ActionID, step.StepID,
			); err != nil {
				return fmt.Errorf("index action tx: %w", err)
			}
		}
		return tx.Commit()
	})
}

func (s *Store) Get(actionID string) (Action, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM actions WHERE action_id = ?", actionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Action{}, clierr.Newf(clierr.CodeNotFound, "action not found: %s", actionID)
	}
	if err != nil {
		return Action{}, fmt.Errorf("read action: %w", err)
	}
	return decodeAction(payload)
}

// FindByTxID returns the action that submitted txID.
func (s *Store) FindByTxID(txID string) (Action, error) {
	var actionID string
	err := s.db.QueryRow("SELECT action_id FROM action_txs WHERE tx_id = ?", strings.TrimSpace(txID)).Scan(&actionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Action{}, clierr.Newf(clierr.CodeNotFound, "no action recorded transaction %s", txID)
	}
	if err != nil {
		return Action{}, fmt.Errorf("read action tx: %w", err)
	}
	return s.Get(actionID)
}

// List returns matching actions, most recently updated first.
func (s *Store) List(filter ListFilter) ([]Action, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var (
		where []string
		args  []any
	)
	for _, c := range []struct{ column, value string }{
		{"status", filter.Status},
		{"intent_type", filter.Intent},
		{"network", filter.Network},
	} {
		if v := strings.TrimSpace(c.value); v != "" {
			where = append(where, c.column+" = ?")
			args = append(args, v)
		}
	}
	query := "SELECT payload FROM actions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, action_id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	actions := make([]Action, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}
		action, err := decodeAction(payload)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}
	return actions, nil
}

func (s *Store) withLock(fn func() error) error {
	locked, err := s.lock.TryLockContext(context.Background(), storeLockTimeout)
	if err != nil {
		return fmt.Errorf("lock action store: %w", err)
	}
	if !locked {
		return errors.New("lock action store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func decodeAction(payload []byte) (Action, error) {
	var action Action
	if err := json.Unmarshal(payload, &action); err != nil {
		return Action{}, fmt.Errorf("decode action payload: %w", err)
	}
	return action, nil
}

func unixOr(v string, fallback int64) int64 {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return fallback
	}
	return t.UTC().Unix()
}
