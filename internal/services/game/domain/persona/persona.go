// Package persona models the fixed cast of suspects for the interrogation
// case and the declarative catalog they are loaded from.
//
// Personas are metadata-first: the dialogue layer decides how facts reach the
// text-generation provider, and the public API strips secrets and guilt
// before anything leaves the engine.
package persona

import (
	"errors"
	"strings"
)

var (
	// ErrPersonaNotFound indicates an unknown persona identifier.
	ErrPersonaNotFound = errors.New("persona not found")
	// ErrNoGuiltyPersona indicates a catalog with no guilty persona.
	ErrNoGuiltyPersona = errors.New("catalog requires exactly one guilty persona, found none")
	// ErrMultipleGuiltyPersonas indicates a catalog with more than one guilty persona.
	ErrMultipleGuiltyPersonas = errors.New("catalog requires exactly one guilty persona, found several")
	// ErrEmptyFacts indicates a persona with an empty basic- or secret-fact list.
	ErrEmptyFacts = errors.New("persona requires at least one basic fact and one secret fact")
	// ErrDuplicateID indicates two personas sharing an identifier.
	ErrDuplicateID = errors.New("persona ids must be unique and positive")
	// ErrEmptyName indicates a persona without a display name.
	ErrEmptyName = errors.New("persona name is required")
)

// defaultFallbackLine answers conversations for ids without a scripted line.
const defaultFallbackLine = "I'd rather not discuss this right now."

// Persona is one suspect in the case.
type Persona struct {
	ID           int      `yaml:"id"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Description  string   `yaml:"description"`
	Gender       string   `yaml:"gender"`
	Personality  string   `yaml:"personality"`
	BasicFacts   []string `yaml:"basic_facts"`
	SecretFacts  []string `yaml:"secret_facts"`
	Guilty       bool     `yaml:"guilty"`
	FallbackLine string   `yaml:"fallback_line"`
}

// PublicView is the persona shape exposed over the API. Secret facts,
// personality, and the guilt flag never appear here.
type PublicView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
}

// Public strips the interrogation-only fields from a persona.
func (p Persona) Public() PublicView {
	return PublicView{
		ID:          p.ID,
		Name:        p.Name,
		Role:        p.Role,
		Description: p.Description,
		Gender:      p.Gender,
	}
}

// validate checks the invariants an individual persona must hold.
func (p Persona) validate() error {
	if p.ID <= 0 {
		return ErrDuplicateID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.BasicFacts) == 0 || len(p.SecretFacts) == 0 {
		return ErrEmptyFacts
	}
	return nil
}
