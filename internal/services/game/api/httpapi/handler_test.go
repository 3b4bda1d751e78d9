package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/domain/session"
	"github.com/casefiles/interrogation/internal/services/game/storage/memory"
)

type fakeDialogue struct {
	reply string
	err   error
}

func (f *fakeDialogue) Converse(ctx context.Context, personaID int, playerMessage string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testServer(t *testing.T, dialogue Conversationalist) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })
	catalog := persona.MustDefault()
	sessions := session.NewService(store, catalog)
	if dialogue == nil {
		dialogue = &fakeDialogue{reply: "I was in the break room."}
	}
	server := httptest.NewServer(NewHandler(sessions, dialogue, catalog, true).Routes())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, wantStatus int, dst any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func postJSON(t *testing.T, url, body string, wantStatus int, dst any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestHealth(t *testing.T) {
	server := testServer(t, nil)

	var body map[string]any
	getJSON(t, server.URL+"/health", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Fatalf("status = %v, want ok", body["status"])
	}
	if body["openai_configured"] != true {
		t.Fatalf("openai_configured = %v, want true", body["openai_configured"])
	}
}

func TestStartGame(t *testing.T) {
	server := testServer(t, nil)

	var body struct {
		Success       bool   `json:"success"`
		GameID        string `json:"gameId"`
		TotalAttempts int    `json:"totalAttempts"`
	}
	postJSON(t, server.URL+"/api/game/start", `{"playerAddress":"p1"}`, http.StatusOK, &body)
	if !body.Success || body.GameID == "" || body.TotalAttempts != 1 {
		t.Fatalf("response = %+v", body)
	}

	postJSON(t, server.URL+"/api/game/start", `{"playerAddress":"p1"}`, http.StatusOK, &body)
	if body.TotalAttempts != 2 {
		t.Fatalf("total attempts = %d, want 2", body.TotalAttempts)
	}
}

func TestAccuseWithholdsAnswerOnWrongGuess(t *testing.T) {
	server := testServer(t, nil)

	var raw map[string]json.RawMessage
	postJSON(t, server.URL+"/api/game/accuse", `{"gameId":"g1","characterId":1,"playerAddress":"p1"}`, http.StatusOK, &raw)
	if string(raw["isCorrect"]) != "false" {
		t.Fatalf("isCorrect = %s, want false", raw["isCorrect"])
	}
	if _, ok := raw["correctAnswer"]; ok {
		t.Fatal("wrong accusation must not carry correctAnswer")
	}

	postJSON(t, server.URL+"/api/game/accuse", `{"gameId":"g1","characterId":2,"playerAddress":"p1"}`, http.StatusOK, &raw)
	if string(raw["isCorrect"]) != "true" {
		t.Fatalf("isCorrect = %s, want true", raw["isCorrect"])
	}
	if string(raw["correctAnswer"]) != "null" {
		t.Fatalf("correctAnswer = %s, want null", raw["correctAnswer"])
	}
	if string(raw["totalCompletions"]) != "1" || string(raw["playerRanking"]) != "1" {
		t.Fatalf("completions = %s ranking = %s", raw["totalCompletions"], raw["playerRanking"])
	}
}

func TestRanking(t *testing.T) {
	server := testServer(t, nil)

	postJSON(t, server.URL+"/api/game/accuse", `{"characterId":2,"playerAddress":"p1"}`, http.StatusOK, nil)

	var body struct {
		TotalCompletions int  `json:"totalCompletions"`
		PlayerRanking    int  `json:"playerRanking"`
		HasCompleted     bool `json:"hasCompleted"`
	}
	getJSON(t, server.URL+"/api/game/ranking/p1", http.StatusOK, &body)
	if !body.HasCompleted || body.PlayerRanking != 1 || body.TotalCompletions != 1 {
		t.Fatalf("ranking = %+v", body)
	}

	getJSON(t, server.URL+"/api/game/ranking/p2", http.StatusOK, &body)
	if body.HasCompleted || body.PlayerRanking != 0 {
		t.Fatalf("ranking for fresh player = %+v", body)
	}
}

func TestChat(t *testing.T) {
	server := testServer(t, &fakeDialogue{reply: "I already told you everything."})

	var body struct {
		Success     bool   `json:"success"`
		Response    string `json:"response"`
		CharacterID int    `json:"characterId"`
	}
	postJSON(t, server.URL+"/api/chat", `{"characterId":1,"message":"Where were you?"}`, http.StatusOK, &body)
	if !body.Success || body.CharacterID != 1 {
		t.Fatalf("response = %+v", body)
	}
	if body.Response != "I already told you everything." {
		t.Fatalf("reply = %q", body.Response)
	}
}

func TestChatValidation(t *testing.T) {
	server := testServer(t, nil)

	postJSON(t, server.URL+"/api/chat", `{"message":"hello"}`, http.StatusBadRequest, nil)
	postJSON(t, server.URL+"/api/chat", `{"characterId":1,"message":"  "}`, http.StatusBadRequest, nil)
	postJSON(t, server.URL+"/api/chat", `not json`, http.StatusBadRequest, nil)
}

func TestChatUnknownPersona(t *testing.T) {
	server := testServer(t, &fakeDialogue{err: persona.ErrPersonaNotFound})

	postJSON(t, server.URL+"/api/chat", `{"characterId":99,"message":"hello"}`, http.StatusNotFound, nil)
}

func TestListCases(t *testing.T) {
	server := testServer(t, nil)

	postJSON(t, server.URL+"/api/game/start", `{"playerAddress":"p1"}`, http.StatusOK, nil)

	var cases []map[string]any
	getJSON(t, server.URL+"/api/cases?player=p1", http.StatusOK, &cases)
	if len(cases) != 1 {
		t.Fatalf("cases = %d, want 1", len(cases))
	}
	if cases[0]["id"] != float64(1) {
		t.Fatalf("case id = %v, want 1", cases[0]["id"])
	}
	if cases[0]["playerAttempts"] != float64(1) {
		t.Fatalf("playerAttempts = %v, want 1", cases[0]["playerAttempts"])
	}
	if _, ok := cases[0]["victim"]; ok {
		t.Fatal("case list must not carry detail fields")
	}
}

func TestGetCase(t *testing.T) {
	server := testServer(t, nil)

	var detail map[string]any
	getJSON(t, server.URL+"/api/cases/1", http.StatusOK, &detail)
	if detail["victim"] == nil || detail["weapon"] == nil {
		t.Fatalf("detail missing victim/weapon: %v", detail)
	}

	getJSON(t, server.URL+"/api/cases/2", http.StatusNotFound, nil)
	getJSON(t, server.URL+"/api/cases/abc", http.StatusNotFound, nil)
}

func TestCharacters(t *testing.T) {
	server := testServer(t, nil)

	var all []map[string]any
	getJSON(t, server.URL+"/api/characters", http.StatusOK, &all)
	if len(all) != 3 {
		t.Fatalf("characters = %d, want 3", len(all))
	}
	for _, c := range all {
		if _, ok := c["secretFacts"]; ok {
			t.Fatal("public view leaked secret facts")
		}
		if _, ok := c["guilty"]; ok {
			t.Fatal("public view leaked guilt flag")
		}
	}

	var one map[string]any
	getJSON(t, server.URL+"/api/characters/2", http.StatusOK, &one)
	if one["name"] != "David" {
		t.Fatalf("character 2 = %v, want David", one["name"])
	}

	getJSON(t, server.URL+"/api/characters/99", http.StatusNotFound, nil)
	getJSON(t, server.URL+"/api/characters/abc", http.StatusNotFound, nil)
}

func TestStats(t *testing.T) {
	server := testServer(t, nil)

	for range 2 {
		postJSON(t, server.URL+"/api/game/start", `{"playerAddress":"p1"}`, http.StatusOK, nil)
	}
	postJSON(t, server.URL+"/api/game/accuse", `{"characterId":2,"playerAddress":"p1"}`, http.StatusOK, nil)

	var body struct {
		TotalAttempts     int     `json:"totalAttempts"`
		TotalCompletions  int     `json:"totalCompletions"`
		SuccessRate       float64 `json:"successRate"`
		UniqueCompletions int     `json:"uniqueCompletions"`
		RecentCompletions []struct {
			PlayerID         string `json:"playerId"`
			Timestamp        int64  `json:"timestamp"`
			CompletionNumber int    `json:"completionNumber"`
		} `json:"recentCompletions"`
	}
	getJSON(t, server.URL+"/api/stats", http.StatusOK, &body)
	if body.TotalAttempts != 2 || body.TotalCompletions != 1 || body.UniqueCompletions != 1 {
		t.Fatalf("stats = %+v", body)
	}
	if body.SuccessRate != 50 {
		t.Fatalf("successRate = %v, want 50", body.SuccessRate)
	}
	if len(body.RecentCompletions) != 1 || body.RecentCompletions[0].PlayerID != "p1" || body.RecentCompletions[0].CompletionNumber != 1 {
		t.Fatalf("recentCompletions = %+v", body.RecentCompletions)
	}
}
