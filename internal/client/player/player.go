// Package player composes the ledger, REST, and local transports into the
// client-side game surface.
//
// Every operation degrades tier by tier: the ledger runs only when its
// gateway probes live, the REST engine is the workhorse, and a local tier
// keeps the game playable offline. Local adjudication knows the case, so a
// fully offline accusation still resolves.
package player

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/casefiles/interrogation/internal/client/chain"
	"github.com/casefiles/interrogation/internal/client/rest"
	"github.com/casefiles/interrogation/internal/client/transport"
	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
)

// Config assembles a player client.
type Config struct {
	// Rest is the engine client. Required.
	Rest *rest.Client
	// Actions is the optional ledger contract surface.
	Actions chain.Actions
	// Prober gates the ledger tier; the tier is skipped when nil or not live.
	Prober *chain.Prober
	// PlayerID identifies the player to the engine. Blank pools the player
	// under the engine's anonymous bucket.
	PlayerID string
	// GuiltyID is the local adjudication rule. Zero defaults to the shipped
	// case's guilty persona.
	GuiltyID int
}

// Client is the player-facing game client.
type Client struct {
	rest     *rest.Client
	actions  chain.Actions
	prober   *chain.Prober
	playerID string
	guiltyID int
	now      func() time.Time
}

// New creates a player client.
func New(cfg Config) (*Client, error) {
	if cfg.Rest == nil {
		return nil, errors.New("rest client is required")
	}
	guiltyID := cfg.GuiltyID
	if guiltyID == 0 {
		guiltyID = persona.MustDefault().GuiltyID()
	}
	return &Client{
		rest:     cfg.Rest,
		actions:  cfg.Actions,
		prober:   cfg.Prober,
		playerID: cfg.PlayerID,
		guiltyID: guiltyID,
		now:      time.Now,
	}, nil
}

// PlayerID returns the configured player identity.
func (c *Client) PlayerID() string {
	return c.playerID
}

// StartSession opens a game session, falling back tier by tier. The local
// tier derives the id from the clock, so starting never fails.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	attempts := []transport.Attempt[string]{}
	if c.ledgerLive(ctx) {
		attempts = append(attempts, transport.Attempt[string]{
			Name: "ledger",
			Try: func(ctx context.Context) (string, error) {
				return c.actions.StartGame(ctx)
			},
		})
	}
	attempts = append(attempts,
		transport.Attempt[string]{
			Name: "rest",
			Try: func(ctx context.Context) (string, error) {
				result, err := c.rest.StartGame(ctx, c.playerID)
				if err != nil {
					return "", err
				}
				return result.GameID, nil
			},
		},
		transport.Attempt[string]{
			Name: "local",
			Try: func(ctx context.Context) (string, error) {
				return strconv.FormatInt(c.now().UnixMilli(), 10), nil
			},
		},
	)
	return transport.Run(ctx, attempts)
}

// Accuse names a suspect, falling back tier by tier. The local tier checks
// the accusation against the case directly.
func (c *Client) Accuse(ctx context.Context, gameID string, characterID int) (bool, error) {
	attempts := []transport.Attempt[bool]{}
	if c.ledgerLive(ctx) {
		attempts = append(attempts, transport.Attempt[bool]{
			Name: "ledger",
			Try: func(ctx context.Context) (bool, error) {
				return c.actions.MakeAccusation(ctx, gameID, characterID)
			},
		})
	}
	attempts = append(attempts,
		transport.Attempt[bool]{
			Name: "rest",
			Try: func(ctx context.Context) (bool, error) {
				result, err := c.rest.Accuse(ctx, gameID, characterID, c.playerID)
				if err != nil {
					return false, err
				}
				return result.IsCorrect, nil
			},
		},
		transport.Attempt[bool]{
			Name: "local",
			Try: func(ctx context.Context) (bool, error) {
				return characterID == c.guiltyID, nil
			},
		},
	)
	return transport.Run(ctx, attempts)
}

// Interrogate sends one message to a suspect. Dialogue has no ledger or
// local tier; only the engine can speak for a suspect.
func (c *Client) Interrogate(ctx context.Context, characterID int, message, gameID string) (string, error) {
	reply, err := c.rest.Chat(ctx, characterID, message, gameID)
	if err != nil {
		return "", err
	}
	return reply.Response, nil
}

func (c *Client) ledgerLive(ctx context.Context) bool {
	return c.actions != nil && c.prober.Live(ctx)
}
