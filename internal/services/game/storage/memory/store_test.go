package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casefiles/interrogation/internal/services/game/storage"
)

func TestRecordAttemptCounts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	total, err := store.RecordAttempt(ctx, "p1")
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}

	// Repeats by the same player still count.
	if total, err = store.RecordAttempt(ctx, "p1"); err != nil || total != 2 {
		t.Fatalf("expected total 2, got %d (%v)", total, err)
	}
	if total, err = store.RecordAttempt(ctx, "p2"); err != nil || total != 3 {
		t.Fatalf("expected total 3, got %d (%v)", total, err)
	}

	record, err := store.PlayerRecordFor(ctx, "p1")
	if err != nil {
		t.Fatalf("player record: %v", err)
	}
	if record.Attempts != 2 || record.Completed {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestRecordAttemptRequiresPlayer(t *testing.T) {
	store := NewStore()
	if _, err := store.RecordAttempt(context.Background(), "  "); !errors.Is(err, ErrPlayerIDRequired) {
		t.Fatalf("expected ErrPlayerIDRequired, got %v", err)
	}
}

func TestPlayerRecordForUnseenPlayer(t *testing.T) {
	store := NewStore()
	record, err := store.PlayerRecordFor(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("player record: %v", err)
	}
	if record.Attempts != 0 || record.Completed {
		t.Fatalf("expected zero record, got %+v", record)
	}
}

func TestRecordCompletionAssignsOrdinalsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, created, err := store.RecordCompletion(ctx, "p1", time.Now())
	if err != nil || !created {
		t.Fatalf("first completion: created=%v err=%v", created, err)
	}
	if first.Ordinal != 1 {
		t.Fatalf("expected ordinal 1, got %d", first.Ordinal)
	}

	second, created, err := store.RecordCompletion(ctx, "p2", time.Now())
	if err != nil || !created {
		t.Fatalf("second completion: created=%v err=%v", created, err)
	}
	if second.Ordinal != 2 {
		t.Fatalf("expected ordinal 2, got %d", second.Ordinal)
	}
}

func TestRecordCompletionIdempotentPerPlayer(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, _, err := store.RecordCompletion(ctx, "p1", time.Now())
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}
	repeat, created, err := store.RecordCompletion(ctx, "p1", time.Now())
	if err != nil {
		t.Fatalf("repeat completion: %v", err)
	}
	if created {
		t.Fatal("repeat completion must not create a new record")
	}
	if repeat.Ordinal != first.Ordinal {
		t.Fatalf("ordinal changed on repeat: %d != %d", repeat.Ordinal, first.Ordinal)
	}

	stats, err := store.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCompletions != 1 || stats.UniqueCompletions != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	record, err := store.PlayerRecordFor(ctx, "p1")
	if err != nil {
		t.Fatalf("player record: %v", err)
	}
	if !record.Completed {
		t.Fatal("expected completed flag")
	}
}

func TestCompletionForMissing(t *testing.T) {
	store := NewStore()
	_, err := store.CompletionFor(context.Background(), "p1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentCompletions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, player := range []string{"a", "b", "c"} {
		if _, _, err := store.RecordCompletion(ctx, player, time.Now()); err != nil {
			t.Fatalf("record completion: %v", err)
		}
	}

	recent, err := store.RecentCompletions(ctx, 2)
	if err != nil {
		t.Fatalf("recent completions: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(recent))
	}
	if recent[0].PlayerID != "b" || recent[1].PlayerID != "c" {
		t.Fatalf("expected chronological order newest last, got %+v", recent)
	}

	all, err := store.RecentCompletions(ctx, 10)
	if err != nil {
		t.Fatalf("recent completions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(all))
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	session := storage.Session{ID: "s1", PlayerID: "p1", CreatedAt: time.Now()}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.CreateSession(ctx, session); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Outcome != storage.OutcomeUnset {
		t.Fatalf("expected unset outcome, got %q", got.Outcome)
	}

	if err := store.SetSessionOutcome(ctx, "s1", storage.OutcomeCorrect); err != nil {
		t.Fatalf("set outcome: %v", err)
	}
	got, err = store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Outcome != storage.OutcomeCorrect {
		t.Fatalf("expected correct outcome, got %q", got.Outcome)
	}

	if err := store.SetSessionOutcome(ctx, "missing", storage.OutcomeCorrect); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAttemptsAndCompletions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var wg sync.WaitGroup
	players := []string{"a", "b", "c", "d"}
	for i := 0; i < 25; i++ {
		for _, player := range players {
			wg.Add(1)
			go func(p string) {
				defer wg.Done()
				if _, err := store.RecordAttempt(ctx, p); err != nil {
					t.Errorf("record attempt: %v", err)
				}
				if _, _, err := store.RecordCompletion(ctx, p, time.Now()); err != nil {
					t.Errorf("record completion: %v", err)
				}
			}(player)
		}
	}
	wg.Wait()

	stats, err := store.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAttempts != 100 {
		t.Fatalf("expected 100 attempts, got %d", stats.TotalAttempts)
	}
	if stats.TotalCompletions != len(players) || stats.UniqueCompletions != len(players) {
		t.Fatalf("unexpected completion stats %+v", stats)
	}

	// Ordinals must be a permutation of 1..len(players).
	seen := make(map[int]bool)
	for _, player := range players {
		completion, err := store.CompletionFor(ctx, player)
		if err != nil {
			t.Fatalf("completion for %s: %v", player, err)
		}
		if completion.Ordinal < 1 || completion.Ordinal > len(players) || seen[completion.Ordinal] {
			t.Fatalf("bad ordinal %d for %s", completion.Ordinal, player)
		}
		seen[completion.Ordinal] = true
	}
}
