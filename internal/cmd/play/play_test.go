package play

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casefiles/interrogation/internal/services/game/api/httpapi"
	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/domain/session"
	"github.com/casefiles/interrogation/internal/services/game/storage/memory"
)

type cannedDialogue struct{ reply string }

func (c cannedDialogue) Converse(ctx context.Context, personaID int, playerMessage string) (string, error) {
	return c.reply, nil
}

func testEngine(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })
	catalog := persona.MustDefault()
	handler := httpapi.NewHandler(session.NewService(store, catalog), cannedDialogue{reply: "I was at my desk."}, catalog, true)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server
}

func runCommand(t *testing.T, cfg Config, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestStartCommand(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL, PlayerID: "p1"}

	out := runCommand(t, cfg, "start")
	if !strings.Contains(out, "investigation begins") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Session ") {
		t.Fatalf("output missing session id: %q", out)
	}
}

func TestAskCommand(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL, PlayerID: "p1"}

	out := runCommand(t, cfg, "ask", "1", "Where", "were", "you?")
	if !strings.Contains(out, "I was at my desk.") {
		t.Fatalf("output = %q", out)
	}
}

func TestAskCommandRejectsBadSuspectID(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL}

	cmd := newRootCmd(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ask", "sarah", "hello"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for non-numeric suspect id")
	}
}

func TestAccuseCommand(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL, PlayerID: "p1"}

	wrong := runCommand(t, cfg, "accuse", "1")
	if !strings.Contains(wrong, "Wrong suspect") {
		t.Fatalf("output = %q", wrong)
	}

	correct := runCommand(t, cfg, "accuse", "2")
	if !strings.Contains(correct, "Case closed") {
		t.Fatalf("output = %q", correct)
	}
}

func TestSuspectsCommand(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL}

	out := runCommand(t, cfg, "suspects")
	for _, name := range []string{"Sarah", "David", "Janet"} {
		if !strings.Contains(out, name) {
			t.Fatalf("output missing %s: %q", name, out)
		}
	}
}

func TestCaseCommand(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL}

	out := runCommand(t, cfg, "case")
	if !strings.Contains(out, "Office Party Murder") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Letter Opener") {
		t.Fatalf("output missing weapon: %q", out)
	}
}

func TestStatsAndRankingCommands(t *testing.T) {
	engine := testEngine(t)
	cfg := Config{ServerURL: engine.URL, PlayerID: "p1"}

	runCommand(t, cfg, "start")
	runCommand(t, cfg, "accuse", "2")

	stats := runCommand(t, cfg, "stats")
	if !strings.Contains(stats, "Attempts:") || !strings.Contains(stats, "p1") {
		t.Fatalf("stats output = %q", stats)
	}

	ranking := runCommand(t, cfg, "ranking")
	if !strings.Contains(ranking, "#1") {
		t.Fatalf("ranking output = %q", ranking)
	}
}
