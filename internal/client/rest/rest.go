// Package rest is the HTTP client for the interrogation engine API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client calls the engine's REST endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for a base URL such as "http://localhost:3001".
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// StartResult is the response to starting a game.
type StartResult struct {
	Success       bool   `json:"success"`
	GameID        string `json:"gameId"`
	TotalAttempts int    `json:"totalAttempts"`
}

// StartGame opens a new game session for a player.
func (c *Client) StartGame(ctx context.Context, playerID string) (StartResult, error) {
	var out StartResult
	err := c.post(ctx, "/api/game/start", map[string]any{"playerAddress": playerID}, &out)
	return out, err
}

// AccuseResult is the adjudication response for one accusation.
type AccuseResult struct {
	Success          bool `json:"success"`
	IsCorrect        bool `json:"isCorrect"`
	TotalCompletions int  `json:"totalCompletions"`
	PlayerRanking    int  `json:"playerRanking"`
}

// Accuse names a suspect for a game.
func (c *Client) Accuse(ctx context.Context, gameID string, characterID int, playerID string) (AccuseResult, error) {
	var out AccuseResult
	err := c.post(ctx, "/api/game/accuse", map[string]any{
		"gameId":        gameID,
		"characterId":   characterID,
		"playerAddress": playerID,
	}, &out)
	return out, err
}

// ChatResult is one suspect reply.
type ChatResult struct {
	Success     bool   `json:"success"`
	Response    string `json:"response"`
	CharacterID int    `json:"characterId"`
}

// Chat sends one interrogation message to a suspect.
func (c *Client) Chat(ctx context.Context, characterID int, message, gameID string) (ChatResult, error) {
	var out ChatResult
	err := c.post(ctx, "/api/chat", map[string]any{
		"characterId": characterID,
		"message":     message,
		"gameId":      gameID,
	}, &out)
	return out, err
}

// RankingResult is a player's leaderboard position.
type RankingResult struct {
	TotalCompletions int  `json:"totalCompletions"`
	PlayerRanking    int  `json:"playerRanking"`
	HasCompleted     bool `json:"hasCompleted"`
}

// Ranking fetches a player's completion ordinal.
func (c *Client) Ranking(ctx context.Context, playerID string) (RankingResult, error) {
	var out RankingResult
	err := c.get(ctx, "/api/game/ranking/"+url.PathEscape(playerID), &out)
	return out, err
}

// Completion is one entry on the recent-completions tail.
type Completion struct {
	PlayerID         string `json:"playerId"`
	Timestamp        int64  `json:"timestamp"`
	CompletionNumber int    `json:"completionNumber"`
}

// StatsResult is the global stats payload.
type StatsResult struct {
	TotalAttempts     int          `json:"totalAttempts"`
	TotalCompletions  int          `json:"totalCompletions"`
	SuccessRate       float64      `json:"successRate"`
	UniqueCompletions int          `json:"uniqueCompletions"`
	RecentCompletions []Completion `json:"recentCompletions"`
}

// Stats fetches the global game statistics.
func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	var out StatsResult
	err := c.get(ctx, "/api/stats", &out)
	return out, err
}

// Case is the case card with progress annotations.
type Case struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Victim          string  `json:"victim"`
	Location        string  `json:"location"`
	Time            string  `json:"time"`
	Weapon          string  `json:"weapon"`
	Difficulty      string  `json:"difficulty"`
	EstimatedTime   string  `json:"estimatedTime"`
	Attempts        int     `json:"attempts"`
	Completions     int     `json:"completions"`
	SuccessRate     float64 `json:"successRate"`
	PlayerCompleted bool    `json:"playerCompleted"`
	PlayerAttempts  int     `json:"playerAttempts"`
}

// Cases lists the available cases annotated for a player.
func (c *Client) Cases(ctx context.Context, playerID string) ([]Case, error) {
	var out []Case
	err := c.get(ctx, "/api/cases?player="+url.QueryEscape(playerID), &out)
	return out, err
}

// CaseDetail fetches one case with full detail fields.
func (c *Client) CaseDetail(ctx context.Context, caseID int, playerID string) (Case, error) {
	var out Case
	err := c.get(ctx, fmt.Sprintf("/api/cases/%d?player=%s", caseID, url.QueryEscape(playerID)), &out)
	return out, err
}

// Character is the public suspect view.
type Character struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
}

// Characters lists the suspects.
func (c *Client) Characters(ctx context.Context) ([]Character, error) {
	var out []Character
	err := c.get(ctx, "/api/characters", &out)
	return out, err
}

// Character fetches one suspect.
func (c *Client) Character(ctx context.Context, characterID int) (Character, error) {
	var out Character
	err := c.get(ctx, fmt.Sprintf("/api/characters/%d", characterID), &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, dst)
}

func (c *Client) post(ctx context.Context, path string, body any, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dst)
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("engine returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("engine returned %d", resp.StatusCode)
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
