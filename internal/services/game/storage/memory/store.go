// Package memory provides the in-memory game store.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/casefiles/interrogation/internal/services/game/storage"
)

// ErrPlayerIDRequired indicates a missing player id.
var ErrPlayerIDRequired = errors.New("player id is required")

// Store keeps all game state in process memory. Compound updates are atomic
// under one mutex, so ordinal assignment and counter increments cannot
// interleave across concurrent requests.
type Store struct {
	mu            sync.Mutex
	totalAttempts int
	players       map[string]storage.PlayerRecord
	completions   []storage.CompletionRecord
	completedBy   map[string]int // player id -> index into completions
	sessions      map[string]storage.Session
}

// NewStore creates an empty in-memory game store.
func NewStore() *Store {
	return &Store{
		players:     make(map[string]storage.PlayerRecord),
		completedBy: make(map[string]int),
		sessions:    make(map[string]storage.Session),
	}
}

// RecordAttempt increments the global and per-player attempt counters.
func (s *Store) RecordAttempt(ctx context.Context, playerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return 0, ErrPlayerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalAttempts++
	record := s.players[playerID]
	record.PlayerID = playerID
	record.Attempts++
	s.players[playerID] = record
	return s.totalAttempts, nil
}

// PlayerRecordFor returns a player's record, zero-valued when unseen.
func (s *Store) PlayerRecordFor(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlayerRecord{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.PlayerRecord{}, ErrPlayerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.players[playerID]
	if !ok {
		return storage.PlayerRecord{PlayerID: playerID}, nil
	}
	return record, nil
}

// RecordCompletion appends a completion with the next ordinal, once per player.
func (s *Store) RecordCompletion(ctx context.Context, playerID string, at time.Time) (storage.CompletionRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.CompletionRecord{}, false, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.CompletionRecord{}, false, ErrPlayerIDRequired
	}
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.completedBy[playerID]; ok {
		return s.completions[idx], false, nil
	}

	completion := storage.CompletionRecord{
		PlayerID:    playerID,
		Ordinal:     len(s.completions) + 1,
		CompletedAt: at.UTC(),
	}
	s.completions = append(s.completions, completion)
	s.completedBy[playerID] = len(s.completions) - 1

	record := s.players[playerID]
	record.PlayerID = playerID
	record.Completed = true
	s.players[playerID] = record

	return completion, true, nil
}

// CompletionFor returns a player's completion record or ErrNotFound.
func (s *Store) CompletionFor(ctx context.Context, playerID string) (storage.CompletionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CompletionRecord{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.CompletionRecord{}, ErrPlayerIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.completedBy[playerID]
	if !ok {
		return storage.CompletionRecord{}, storage.ErrNotFound
	}
	return s.completions[idx], nil
}

// GlobalStats returns the aggregate counters.
func (s *Store) GlobalStats(ctx context.Context) (storage.GlobalStats, error) {
	if err := ctx.Err(); err != nil {
		return storage.GlobalStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return storage.GlobalStats{
		TotalAttempts:     s.totalAttempts,
		TotalCompletions:  len(s.completions),
		UniqueCompletions: len(s.completedBy),
	}, nil
}

// RecentCompletions returns up to limit completions, newest last.
func (s *Store) RecentCompletions(ctx context.Context, limit int) ([]storage.CompletionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.completions) - limit
	if start < 0 {
		start = 0
	}
	out := make([]storage.CompletionRecord, len(s.completions)-start)
	copy(out, s.completions[start:])
	return out, nil
}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; exists {
		return storage.ErrAlreadyExists
	}
	session.ID = sessionID
	s.sessions[sessionID] = session
	return nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return storage.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return session, nil
}

// SetSessionOutcome records the adjudication result for a session.
func (s *Store) SetSessionOutcome(ctx context.Context, id string, outcome storage.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return storage.ErrNotFound
	}
	session.Outcome = outcome
	s.sessions[session.ID] = session
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

var _ storage.Store = (*Store)(nil)
