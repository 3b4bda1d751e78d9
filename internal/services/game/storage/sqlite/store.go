// Package sqlite provides a SQLite-backed game storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/casefiles/interrogation/internal/platform/storage/sqlitemigrate"
	"github.com/casefiles/interrogation/internal/services/game/storage"
	"github.com/casefiles/interrogation/internal/services/game/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists game state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite game store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordAttempt increments the global and per-player attempt counters.
func (s *Store) RecordAttempt(ctx context.Context, playerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return 0, fmt.Errorf("player id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record attempt: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO players (player_id, attempts) VALUES (?, 1)
		 ON CONFLICT(player_id) DO UPDATE SET attempts = attempts + 1`,
		playerID,
	); err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}

	var total int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(attempts), 0) FROM players`,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum attempts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record attempt: %w", err)
	}
	return total, nil
}

// PlayerRecordFor returns a player's record, zero-valued when unseen.
func (s *Store) PlayerRecordFor(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlayerRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PlayerRecord{}, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.PlayerRecord{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT player_id, attempts, completed FROM players WHERE player_id = ?`,
		playerID,
	)

	var record storage.PlayerRecord
	var completed int
	err := row.Scan(&record.PlayerID, &record.Attempts, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PlayerRecord{PlayerID: playerID}, nil
		}
		return storage.PlayerRecord{}, fmt.Errorf("get player record: %w", err)
	}
	record.Completed = completed != 0
	return record, nil
}

// RecordCompletion appends a completion with the next ordinal, once per player.
func (s *Store) RecordCompletion(ctx context.Context, playerID string, at time.Time) (storage.CompletionRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.CompletionRecord{}, false, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CompletionRecord{}, false, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.CompletionRecord{}, false, fmt.Errorf("player id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.CompletionRecord{}, false, fmt.Errorf("begin record completion: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := true
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO completions (player_id, completed_at) VALUES (?, ?)`,
		playerID,
		toMillis(at),
	)
	if err != nil {
		if !isUniqueViolation(err) {
			return storage.CompletionRecord{}, false, fmt.Errorf("record completion: %w", err)
		}
		created = false
	}

	if created {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO players (player_id, completed) VALUES (?, 1)
			 ON CONFLICT(player_id) DO UPDATE SET completed = 1`,
			playerID,
		); err != nil {
			return storage.CompletionRecord{}, false, fmt.Errorf("mark player completed: %w", err)
		}
	}

	var completion storage.CompletionRecord
	var completedAt int64
	if err := tx.QueryRowContext(
		ctx,
		`SELECT player_id, ordinal, completed_at FROM completions WHERE player_id = ?`,
		playerID,
	).Scan(&completion.PlayerID, &completion.Ordinal, &completedAt); err != nil {
		return storage.CompletionRecord{}, false, fmt.Errorf("get completion: %w", err)
	}
	completion.CompletedAt = fromMillis(completedAt)

	if err := tx.Commit(); err != nil {
		return storage.CompletionRecord{}, false, fmt.Errorf("commit record completion: %w", err)
	}
	return completion, created, nil
}

// CompletionFor returns a player's completion record or ErrNotFound.
func (s *Store) CompletionFor(ctx context.Context, playerID string) (storage.CompletionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CompletionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CompletionRecord{}, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.CompletionRecord{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT player_id, ordinal, completed_at FROM completions WHERE player_id = ?`,
		playerID,
	)

	var completion storage.CompletionRecord
	var completedAt int64
	err := row.Scan(&completion.PlayerID, &completion.Ordinal, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CompletionRecord{}, storage.ErrNotFound
		}
		return storage.CompletionRecord{}, fmt.Errorf("get completion: %w", err)
	}
	completion.CompletedAt = fromMillis(completedAt)
	return completion, nil
}

// GlobalStats returns the aggregate counters.
func (s *Store) GlobalStats(ctx context.Context) (storage.GlobalStats, error) {
	if err := ctx.Err(); err != nil {
		return storage.GlobalStats{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GlobalStats{}, fmt.Errorf("storage is not configured")
	}

	var stats storage.GlobalStats
	if err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(attempts), 0) FROM players`,
	).Scan(&stats.TotalAttempts); err != nil {
		return storage.GlobalStats{}, fmt.Errorf("sum attempts: %w", err)
	}
	if err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM completions`,
	).Scan(&stats.TotalCompletions); err != nil {
		return storage.GlobalStats{}, fmt.Errorf("count completions: %w", err)
	}
	stats.UniqueCompletions = stats.TotalCompletions
	return stats, nil
}

// RecentCompletions returns up to limit completions, newest last.
func (s *Store) RecentCompletions(ctx context.Context, limit int) ([]storage.CompletionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT player_id, ordinal, completed_at
		   FROM (SELECT player_id, ordinal, completed_at
		           FROM completions
		          ORDER BY ordinal DESC
		          LIMIT ?)
		  ORDER BY ordinal ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent completions: %w", err)
	}
	defer rows.Close()

	var completions []storage.CompletionRecord
	for rows.Next() {
		var completion storage.CompletionRecord
		var completedAt int64
		if err := rows.Scan(&completion.PlayerID, &completion.Ordinal, &completedAt); err != nil {
			return nil, fmt.Errorf("list recent completions: %w", err)
		}
		completion.CompletedAt = fromMillis(completedAt)
		completions = append(completions, completion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent completions: %w", err)
	}
	return completions, nil
}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, player_id, created_at, outcome) VALUES (?, ?, ?, ?)`,
		sessionID,
		session.PlayerID,
		toMillis(createdAt),
		string(session.Outcome),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return storage.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, player_id, created_at, outcome FROM sessions WHERE id = ?`,
		strings.TrimSpace(id),
	)

	var session storage.Session
	var createdAt int64
	var outcome string
	err := row.Scan(&session.ID, &session.PlayerID, &createdAt, &outcome)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.Outcome = storage.Outcome(outcome)
	return session, nil
}

// SetSessionOutcome records the adjudication result for a session.
func (s *Store) SetSessionOutcome(ctx context.Context, id string, outcome storage.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET outcome = ? WHERE id = ?`,
		string(outcome),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("set session outcome: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set session outcome: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
