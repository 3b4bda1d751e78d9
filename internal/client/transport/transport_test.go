package transport

import (
	"context"
	"errors"
	"testing"
)

func TestRunReturnsFirstSuccess(t *testing.T) {
	calls := []string{}
	attempts := []Attempt[int]{
		{Name: "a", Try: func(ctx context.Context) (int, error) {
			calls = append(calls, "a")
			return 0, errors.New("a down")
		}},
		{Name: "b", Try: func(ctx context.Context) (int, error) {
			calls = append(calls, "b")
			return 42, nil
		}},
		{Name: "c", Try: func(ctx context.Context) (int, error) {
			calls = append(calls, "c")
			return 0, errors.New("c should not run")
		}},
	}

	got, err := Run(context.Background(), attempts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != 42 {
		t.Fatalf("result = %d, want 42", got)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("calls = %v, want [a b]", calls)
	}
}

func TestRunExhausted(t *testing.T) {
	attempts := []Attempt[string]{
		{Name: "a", Try: func(ctx context.Context) (string, error) {
			return "", errors.New("a down")
		}},
		{Name: "b", Try: func(ctx context.Context) (string, error) {
			return "", errors.New("b down")
		}},
	}

	if _, err := Run(context.Background(), attempts); !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestRunEmptyList(t *testing.T) {
	if _, err := Run[int](context.Background(), nil); !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := []Attempt[int]{
		{Name: "a", Try: func(ctx context.Context) (int, error) {
			t.Fatal("attempt ran on cancelled context")
			return 0, nil
		}},
	}
	if _, err := Run(ctx, attempts); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunEachAttemptAtMostOnce(t *testing.T) {
	count := 0
	attempts := []Attempt[int]{
		{Name: "flaky", Try: func(ctx context.Context) (int, error) {
			count++
			return 0, errors.New("down")
		}},
	}

	_, _ = Run(context.Background(), attempts)
	if count != 1 {
		t.Fatalf("attempt ran %d times, want 1", count)
	}
}
