// Package chain defines the ledger-backed game actions contract and a
// liveness probe for the remote ledger gateway.
//
// The gateway itself is an external deployment. The engine only depends on
// the two-method Actions surface and a cheap reachability check; everything
// else about the ledger stays behind the interface.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Actions is the ledger contract surface the game uses.
type Actions interface {
	// StartGame registers a new game on the ledger and returns its id.
	StartGame(ctx context.Context) (string, error)
	// MakeAccusation records an accusation and reports whether it was correct.
	MakeAccusation(ctx context.Context, gameID string, characterID int) (bool, error)
}

// defaultProbeTimeout bounds the liveness check so a dead gateway cannot
// stall client startup.
const defaultProbeTimeout = 5 * time.Second

// Prober checks whether the ledger gateway answers JSON-RPC.
type Prober struct {
	url        string
	httpClient *http.Client
}

// NewProber creates a liveness prober for a gateway URL.
func NewProber(url string, httpClient *http.Client) *Prober {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &Prober{url: url, httpClient: httpClient}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Live reports whether the gateway answers a starknet_chainId call. Any
// transport or RPC failure counts as not live.
func (p *Prober) Live(ctx context.Context) bool {
	if p == nil || p.url == "" {
		return false
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "starknet_chainId",
		Params:  []any{},
		ID:      1,
	})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return false
	}
	return rpc.Error == nil && len(rpc.Result) > 0
}

// URL returns the configured gateway URL.
func (p *Prober) URL() string {
	if p == nil {
		return ""
	}
	return p.url
}
