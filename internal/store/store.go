// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/typingfast/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Keys of the persisted auth entries.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store wraps SQLite access for auth state and local results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database without migrating it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			finished_at TEXT NOT NULL,
			words INTEGER NOT NULL,
			duration_s INTEGER NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			errors INTEGER NOT NULL,
			corrected_chars INTEGER NOT NULL,
			source TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveAuth writes the token and user entries in one transaction.
func (s *Store) SaveAuth(ctx context.Context, token string, user model.User) (err error) {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err = tx.ExecContext(ctx, upsert, KeyToken, token); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, upsert, KeyUser, string(encoded)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadAuth reads both auth entries. ok is false unless both are present.
func (s *Store) LoadAuth(ctx context.Context) (token string, user model.User, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser)
	if err != nil {
		return "", model.User{}, false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", model.User{}, false, err
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return "", model.User{}, false, err
	}

	token, hasToken := values[KeyToken]
	rawUser, hasUser := values[KeyUser]
	if !hasToken || !hasUser || token == "" {
		return "", model.User{}, false, nil
	}
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return "", model.User{}, false, fmt.Errorf("decode stored user: %w", err)
	}
	return token, user, true, nil
}

// ClearAuth removes both auth entries.
func (s *Store) ClearAuth(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser)
	return err
}

// InsertResult records a finished session.
func (s *Store) InsertResult(ctx context.Context, r model.LocalResult) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO results (finished_at, words, duration_s, wpm, accuracy, errors, corrected_chars, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Words,
		r.DurationS,
		r.Result.WPM,
		r.Result.Accuracy,
		r.Result.Errors,
		r.Result.CorrectedChars,
		string(r.Result.Source),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ErrNoResults is returned by LastResult when nothing has been recorded.
var ErrNoResults = errors.New("no results recorded")

// LastResult returns the most recently finished session.
func (s *Store) LastResult(ctx context.Context) (model.LocalResult, error) {
	results, err := s.ListResults(ctx, 1)
	if err != nil {
		return model.LocalResult{}, err
	}
	if len(results) == 0 {
		return model.LocalResult{}, ErrNoResults
	}
	return results[0], nil
}

// ListResults returns up to limit results, newest first. A limit <= 0
// returns everything.
func (s *Store) ListResults(ctx context.Context, limit int) ([]model.LocalResult, error) {
	query := `SELECT id, finished_at, words, duration_s, wpm, accuracy, errors, corrected_chars, source
		FROM results
		ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.LocalResult
	for rows.Next() {
		var r model.LocalResult
		var finishedAt, source string
		if err := rows.Scan(&r.ID, &finishedAt, &r.Words, &r.DurationS,
			&r.Result.WPM, &r.Result.Accuracy, &r.Result.Errors, &r.Result.CorrectedChars, &source); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, finishedAt)
		if err != nil {
			return nil, err
		}
		r.FinishedAt = parsed
		r.Result.Source = model.ResultSource(source)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
