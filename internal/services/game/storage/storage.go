// Package storage defines persistence contracts for game session state.
//
// The engine owns all of this state; the only writers are the start and
// accuse operations. The default store is in-memory (persistence across
// restarts is out of scope), with a SQLite implementation behind the same
// contract for deployments that want a durable ledger.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Outcome is the terminal result of a session, set by adjudication.
type Outcome string

const (
	// OutcomeUnset marks a session with no accusation yet.
	OutcomeUnset Outcome = ""
	// OutcomeCorrect marks a session whose accusation named the culprit.
	OutcomeCorrect Outcome = "correct"
	// OutcomeIncorrect marks a session whose accusation missed.
	OutcomeIncorrect Outcome = "incorrect"
)

// Session is one playthrough instance.
type Session struct {
	ID        string
	PlayerID  string
	CreatedAt time.Time
	Outcome   Outcome
}

// PlayerRecord tracks per-player attempt and completion state.
type PlayerRecord struct {
	PlayerID  string
	Attempts  int
	Completed bool
}

// CompletionRecord is one player's first correct accusation. Ordinal is the
// 1-based position in global chronological completion order and defines the
// leaderboard ranking.
type CompletionRecord struct {
	PlayerID    string
	Ordinal     int
	CompletedAt time.Time
}

// GlobalStats aggregates attempt and completion counters.
type GlobalStats struct {
	TotalAttempts     int
	TotalCompletions  int
	UniqueCompletions int
}

// Store persists game session, attempt, and completion state.
type Store interface {
	// RecordAttempt increments the global and per-player attempt counters.
	// Every call counts, including repeats by the same player. It returns
	// the new global total.
	RecordAttempt(ctx context.Context, playerID string) (int, error)

	// PlayerRecordFor returns a player's record. Unseen players get a zero
	// record, not an error.
	PlayerRecordFor(ctx context.Context, playerID string) (PlayerRecord, error)

	// RecordCompletion appends a completion for the player with the next
	// ordinal, flipping the player record's Completed flag. It is
	// idempotent: a player who already completed keeps their original
	// record and the second return reports false.
	RecordCompletion(ctx context.Context, playerID string, at time.Time) (CompletionRecord, bool, error)

	// CompletionFor returns a player's completion record or ErrNotFound.
	CompletionFor(ctx context.Context, playerID string) (CompletionRecord, error)

	// GlobalStats returns the aggregate counters.
	GlobalStats(ctx context.Context) (GlobalStats, error)

	// RecentCompletions returns up to limit completions in chronological
	// order, newest last.
	RecentCompletions(ctx context.Context, limit int) ([]CompletionRecord, error)

	// CreateSession stores a new session. Duplicate ids return
	// ErrAlreadyExists.
	CreateSession(ctx context.Context, session Session) error

	// GetSession returns a session by id or ErrNotFound.
	GetSession(ctx context.Context, id string) (Session, error)

	// SetSessionOutcome records the adjudication result for a session.
	// Unknown ids return ErrNotFound.
	SetSessionOutcome(ctx context.Context, id string, outcome Outcome) error

	// Close releases store resources.
	Close() error
}
