// Package httpapi exposes the interrogation engine over REST.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/domain/session"
	"github.com/casefiles/interrogation/internal/services/game/storage"
)

// Conversationalist produces a suspect's reply to one player message.
type Conversationalist interface {
	Converse(ctx context.Context, personaID int, playerMessage string) (string, error)
}

// Handler serves the game REST API.
type Handler struct {
	sessions *session.Service
	dialogue Conversationalist
	catalog  *persona.Catalog

	// providerConfigured is surfaced on the health endpoint so operators can
	// spot a missing provider key without triggering a chat.
	providerConfigured bool
}

// NewHandler creates the API handler.
func NewHandler(sessions *session.Service, dialogue Conversationalist, catalog *persona.Catalog, providerConfigured bool) *Handler {
	return &Handler{
		sessions:           sessions,
		dialogue:           dialogue,
		catalog:            catalog,
		providerConfigured: providerConfigured,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/cases", h.listCases)
	mux.HandleFunc("GET /api/cases/{id}", h.getCase)
	mux.HandleFunc("POST /api/game/start", h.startGame)
	mux.HandleFunc("POST /api/game/accuse", h.accuse)
	mux.HandleFunc("GET /api/game/ranking/{player}", h.ranking)
	mux.HandleFunc("POST /api/chat", h.chat)
	mux.HandleFunc("GET /api/characters", h.listCharacters)
	mux.HandleFunc("GET /api/characters/{id}", h.getCharacter)
	mux.HandleFunc("GET /api/stats", h.stats)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"message":           "interrogation engine is running",
		"openai_configured": h.providerConfigured,
	})
}

type caseResponse struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Victim          string  `json:"victim,omitempty"`
	Location        string  `json:"location,omitempty"`
	Time            string  `json:"time,omitempty"`
	Weapon          string  `json:"weapon,omitempty"`
	Difficulty      string  `json:"difficulty"`
	EstimatedTime   string  `json:"estimatedTime"`
	Attempts        int     `json:"attempts"`
	Completions     int     `json:"completions"`
	SuccessRate     float64 `json:"successRate"`
	PlayerCompleted bool    `json:"playerCompleted"`
	PlayerAttempts  int     `json:"playerAttempts"`
}

func newCaseResponse(summary session.CaseSummary, detail bool) caseResponse {
	resp := caseResponse{
		ID:              summary.Case.ID,
		Title:           summary.Case.Title,
		Description:     summary.Case.Description,
		Difficulty:      summary.Case.Difficulty,
		EstimatedTime:   summary.Case.EstimatedTime,
		Attempts:        summary.Attempts,
		Completions:     summary.Completions,
		SuccessRate:     summary.SuccessRate,
		PlayerCompleted: summary.PlayerCompleted,
		PlayerAttempts:  summary.PlayerAttempts,
	}
	if detail {
		resp.Victim = summary.Case.Victim
		resp.Location = summary.Case.Location
		resp.Time = summary.Case.Time
		resp.Weapon = summary.Case.Weapon
	}
	return resp
}

func (h *Handler) listCases(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.CaseSummary(r.Context(), r.URL.Query().Get("player"))
	if err != nil {
		writeInternalError(w, "list cases", err)
		return
	}
	writeJSON(w, http.StatusOK, []caseResponse{newCaseResponse(summary, false)})
}

func (h *Handler) getCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Case not found")
		return
	}
	summary, err := h.sessions.CaseDetail(r.Context(), caseID, r.URL.Query().Get("player"))
	if err != nil {
		if errors.Is(err, session.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "Case not found")
			return
		}
		writeInternalError(w, "get case", err)
		return
	}
	writeJSON(w, http.StatusOK, newCaseResponse(summary, true))
}

type startGameRequest struct {
	PlayerAddress string `json:"playerAddress"`
}

type startGameResponse struct {
	Success       bool   `json:"success"`
	GameID        string `json:"gameId"`
	TotalAttempts int    `json:"totalAttempts"`
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.sessions.StartSession(r.Context(), req.PlayerAddress)
	if err != nil {
		writeInternalError(w, "start game", err)
		return
	}
	writeJSON(w, http.StatusOK, startGameResponse{
		Success:       true,
		GameID:        result.SessionID,
		TotalAttempts: result.TotalAttempts,
	})
}

type accuseRequest struct {
	GameID        string `json:"gameId"`
	CharacterID   int    `json:"characterId"`
	PlayerAddress string `json:"playerAddress"`
}

type accuseResponse struct {
	Success          bool `json:"success"`
	IsCorrect        bool `json:"isCorrect"`
	TotalCompletions int  `json:"totalCompletions"`
	PlayerRanking    int  `json:"playerRanking"`
	// CorrectAnswer is null on a correct accusation and omitted on a wrong
	// one. The guilty id is never sent to a failed accuser.
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
}

func (h *Handler) accuse(w http.ResponseWriter, r *http.Request) {
	var req accuseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	verdict, err := h.sessions.Accuse(r.Context(), req.GameID, req.CharacterID, req.PlayerAddress)
	if err != nil {
		writeInternalError(w, "accuse", err)
		return
	}
	resp := accuseResponse{
		Success:          true,
		IsCorrect:        verdict.IsCorrect,
		TotalCompletions: verdict.TotalCompletions,
		PlayerRanking:    verdict.PlayerRanking,
	}
	if verdict.IsCorrect {
		resp.CorrectAnswer = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, resp)
}

type rankingResponse struct {
	TotalCompletions int  `json:"totalCompletions"`
	PlayerRanking    int  `json:"playerRanking"`
	HasCompleted     bool `json:"hasCompleted"`
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.Ranking(r.Context(), r.PathValue("player"))
	if err != nil {
		writeInternalError(w, "ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{
		TotalCompletions: info.TotalCompletions,
		PlayerRanking:    info.PlayerRanking,
		HasCompleted:     info.HasCompleted,
	})
}

type chatRequest struct {
	CharacterID int    `json:"characterId"`
	Message     string `json:"message"`
	GameID      string `json:"gameId"`
}

type chatResponse struct {
	Success     bool   `json:"success"`
	Response    string `json:"response"`
	CharacterID int    `json:"characterId"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CharacterID == 0 || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Character ID and message are required")
		return
	}
	reply, err := h.dialogue.Converse(r.Context(), req.CharacterID, req.Message)
	if err != nil {
		if errors.Is(err, persona.ErrPersonaNotFound) {
			writeError(w, http.StatusNotFound, "Character not found")
			return
		}
		writeInternalError(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Success:     true,
		Response:    reply,
		CharacterID: req.CharacterID,
	})
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	personas := h.catalog.All()
	views := make([]persona.PublicView, 0, len(personas))
	for _, p := range personas {
		views = append(views, p.Public())
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	characterID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Character not found")
		return
	}
	p, err := h.catalog.Lookup(characterID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Character not found")
		return
	}
	writeJSON(w, http.StatusOK, p.Public())
}

type completionResponse struct {
	PlayerID         string `json:"playerId"`
	Timestamp        int64  `json:"timestamp"`
	CompletionNumber int    `json:"completionNumber"`
}

type statsResponse struct {
	TotalAttempts     int                  `json:"totalAttempts"`
	TotalCompletions  int                  `json:"totalCompletions"`
	SuccessRate       float64              `json:"successRate"`
	UniqueCompletions int                  `json:"uniqueCompletions"`
	RecentCompletions []completionResponse `json:"recentCompletions"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.Stats(r.Context())
	if err != nil {
		writeInternalError(w, "stats", err)
		return
	}
	recent := make([]completionResponse, 0, len(stats.RecentCompletions))
	for _, completion := range stats.RecentCompletions {
		recent = append(recent, newCompletionResponse(completion))
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalAttempts:     stats.TotalAttempts,
		TotalCompletions:  stats.TotalCompletions,
		SuccessRate:       stats.SuccessRate,
		UniqueCompletions: stats.UniqueCompletions,
		RecentCompletions: recent,
	})
}

func newCompletionResponse(completion storage.CompletionRecord) completionResponse {
	return completionResponse{
		PlayerID:         completion.PlayerID,
		Timestamp:        completion.CompletedAt.UnixMilli(),
		CompletionNumber: completion.Ordinal,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeInternalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
