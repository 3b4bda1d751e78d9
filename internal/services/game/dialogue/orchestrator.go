package dialogue

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
	"github.com/casefiles/interrogation/internal/services/game/domain/prompt"
)

// defaultProviderTimeout caps one provider call so a stalled provider
// degrades to the scripted line instead of holding the request open.
const defaultProviderTimeout = 30 * time.Second

// Orchestrator executes question/answer turns. It keeps no state between
// calls; transcript history is the caller's responsibility, and calls may run
// concurrently.
type Orchestrator struct {
	catalog  *persona.Catalog
	provider Provider
	timeout  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProviderTimeout overrides the per-call provider timeout.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// NewOrchestrator builds a conversation orchestrator over a catalog and
// provider.
func NewOrchestrator(catalog *persona.Catalog, provider Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  catalog,
		provider: provider,
		timeout:  defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Converse runs one interrogation turn with a persona and returns the reply
// trimmed of surrounding whitespace.
//
// An unknown persona id is the caller's error and returns
// persona.ErrPersonaNotFound. Provider failures are not: they degrade to the
// persona's scripted deflection so a conversation never hard-fails once the
// persona is known.
func (o *Orchestrator) Converse(ctx context.Context, personaID int, playerMessage string) (string, error) {
	p, err := o.catalog.Lookup(personaID)
	if err != nil {
		return "", err
	}

	instruction := prompt.Build(p, o.catalog.Case(), playerMessage)

	invokeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	result, err := o.provider.Invoke(invokeCtx, InvokeInput{
		Instructions: instruction.System,
		Input:        instruction.User,
	})
	if err != nil {
		log.Printf("dialogue provider failed for persona %d: %v", personaID, err)
		return o.catalog.FallbackLine(personaID), nil
	}

	reply := strings.TrimSpace(result.OutputText)
	if reply == "" {
		return o.catalog.FallbackLine(personaID), nil
	}
	return reply, nil
}
