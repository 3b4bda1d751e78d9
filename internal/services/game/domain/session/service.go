// Package session implements the session ledger and accusation adjudicator.
//
// Starting a session and accusing are total operations over well-formed
// input: they have no business-logic failure path. All mutable state lives
// behind the injected store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casefiles/interrogation/internal/platform/id"
	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/storage"
)

// ErrCaseNotFound indicates an unknown case identifier.
var ErrCaseNotFound = errors.New("case not found")

// unknownPlayerID stands in for callers that supply no player token.
const unknownPlayerID = "unknown"

// recentCompletionsLimit bounds the recent-completions list in stats.
const recentCompletionsLimit = 10

// Service runs the session ledger and adjudication over a store and catalog.
type Service struct {
	store   storage.Store
	catalog *persona.Catalog
	clock   func() time.Time
	newID   func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the completion/session timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides the session id source.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates a session service.
func NewService(store storage.Store, catalog *persona.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		clock:   time.Now,
		newID:   id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	SessionID     string
	TotalAttempts int
}

// StartSession records an attempt and mints a fresh session. Every call
// counts as an attempt, including repeats by the same player. Callers
// without a player token are pooled under "unknown".
func (s *Service) StartSession(ctx context.Context, playerID string) (StartResult, error) {
	playerID = normalizePlayer(playerID)

	total, err := s.store.RecordAttempt(ctx, playerID)
	if err != nil {
		return StartResult{}, fmt.Errorf("record attempt: %w", err)
	}

	sessionID, err := s.newID()
	if err != nil {
		return StartResult{}, fmt.Errorf("mint session id: %w", err)
	}
	if err := s.store.CreateSession(ctx, storage.Session{
		ID:        sessionID,
		PlayerID:  playerID,
		CreatedAt: s.clock().UTC(),
	}); err != nil {
		return StartResult{}, fmt.Errorf("create session: %w", err)
	}

	return StartResult{SessionID: sessionID, TotalAttempts: total}, nil
}

// Verdict is the adjudication result for one accusation.
type Verdict struct {
	IsCorrect        bool
	TotalCompletions int
	PlayerRanking    int
	// CorrectAnswer is always nil: a wrong guess never reveals the answer,
	// and a correct one already holds it. Kept as a pointer so transports
	// can distinguish "withheld" from an explicit null.
	CorrectAnswer *int
}

// Accuse checks an accusation against the catalog's single guilty persona.
//
// A player's first correct accusation appends a completion record and
// assigns the next ranking ordinal. Repeats are harmless: the ordinal and
// totals do not change. The session id is recorded for bookkeeping but does
// not gate repeated accusations; an unknown session id still adjudicates.
func (s *Service) Accuse(ctx context.Context, sessionID string, personaID int, playerID string) (Verdict, error) {
	playerID = normalizePlayer(playerID)
	isCorrect := personaID == s.catalog.GuiltyID()

	verdict := Verdict{IsCorrect: isCorrect}
	if isCorrect {
		completion, _, err := s.store.RecordCompletion(ctx, playerID, s.clock().UTC())
		if err != nil {
			return Verdict{}, fmt.Errorf("record completion: %w", err)
		}
		verdict.PlayerRanking = completion.Ordinal
	}

	stats, err := s.store.GlobalStats(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("load stats: %w", err)
	}
	verdict.TotalCompletions = stats.TotalCompletions

	outcome := storage.OutcomeIncorrect
	if isCorrect {
		outcome = storage.OutcomeCorrect
	}
	if err := s.store.SetSessionOutcome(ctx, sessionID, outcome); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Verdict{}, fmt.Errorf("set session outcome: %w", err)
	}

	return verdict, nil
}

// RankingInfo is a player's leaderboard position.
type RankingInfo struct {
	TotalCompletions int
	PlayerRanking    int
	HasCompleted     bool
}

// Ranking returns a player's completion ordinal, 0 when they have none.
func (s *Service) Ranking(ctx context.Context, playerID string) (RankingInfo, error) {
	playerID = normalizePlayer(playerID)

	stats, err := s.store.GlobalStats(ctx)
	if err != nil {
		return RankingInfo{}, fmt.Errorf("load stats: %w", err)
	}
	info := RankingInfo{TotalCompletions: stats.TotalCompletions}

	completion, err := s.store.CompletionFor(ctx, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return info, nil
		}
		return RankingInfo{}, fmt.Errorf("load completion: %w", err)
	}
	info.PlayerRanking = completion.Ordinal
	info.HasCompleted = true
	return info, nil
}

// Stats aggregates the global counters with the recent completion tail.
type Stats struct {
	TotalAttempts     int
	TotalCompletions  int
	SuccessRate       float64
	UniqueCompletions int
	RecentCompletions []storage.CompletionRecord
}

// Stats returns the global game statistics.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	global, err := s.store.GlobalStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	recent, err := s.store.RecentCompletions(ctx, recentCompletionsLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("load recent completions: %w", err)
	}
	return Stats{
		TotalAttempts:     global.TotalAttempts,
		TotalCompletions:  global.TotalCompletions,
		SuccessRate:       successRate(global),
		UniqueCompletions: global.UniqueCompletions,
		RecentCompletions: recent,
	}, nil
}

// CaseSummary is the case card shown on listings, annotated with global and
// per-player progress.
type CaseSummary struct {
	Case            persona.Case
	Attempts        int
	Completions     int
	SuccessRate     float64
	PlayerCompleted bool
	PlayerAttempts  int
}

// CaseSummary returns the single case annotated for a player.
func (s *Service) CaseSummary(ctx context.Context, playerID string) (CaseSummary, error) {
	playerID = normalizePlayer(playerID)

	global, err := s.store.GlobalStats(ctx)
	if err != nil {
		return CaseSummary{}, fmt.Errorf("load stats: %w", err)
	}
	record, err := s.store.PlayerRecordFor(ctx, playerID)
	if err != nil {
		return CaseSummary{}, fmt.Errorf("load player record: %w", err)
	}
	return CaseSummary{
		Case:            s.catalog.Case(),
		Attempts:        global.TotalAttempts,
		Completions:     global.TotalCompletions,
		SuccessRate:     successRate(global),
		PlayerCompleted: record.Completed,
		PlayerAttempts:  record.Attempts,
	}, nil
}

// CaseDetail returns the case for an id, or ErrCaseNotFound for any id other
// than the fixed case.
func (s *Service) CaseDetail(ctx context.Context, caseID int, playerID string) (CaseSummary, error) {
	if caseID != s.catalog.Case().ID {
		return CaseSummary{}, ErrCaseNotFound
	}
	return s.CaseSummary(ctx, playerID)
}

func successRate(stats storage.GlobalStats) float64 {
	if stats.TotalAttempts == 0 {
		return 0
	}
	return float64(stats.TotalCompletions) / float64(stats.TotalAttempts) * 100
}

func normalizePlayer(playerID string) string {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return unknownPlayerID
	}
	return playerID
}
