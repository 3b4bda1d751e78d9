package persona

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Case carries the fixed case metadata shown to players.
type Case struct {
	ID            int    `yaml:"id"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Victim        string `yaml:"victim"`
	Location      string `yaml:"location"`
	Time          string `yaml:"time"`
	Weapon        string `yaml:"weapon"`
	Difficulty    string `yaml:"difficulty"`
	EstimatedTime string `yaml:"estimated_time"`
}

// Catalog is the validated, read-only suspect table for the case.
type Catalog struct {
	caseInfo Case
	byID     map[int]Persona
	ordered  []Persona
	guiltyID int
}

type catalogFile struct {
	Case     Case      `yaml:"case"`
	Personas []Persona `yaml:"personas"`
}

// Load parses and validates a YAML catalog. It fails fast when the catalog
// holds zero or more than one guilty persona, when any persona has an empty
// basic- or secret-fact list, or when ids collide.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("catalog has no personas")
	}

	byID := make(map[int]Persona, len(file.Personas))
	guiltyID := 0
	for _, p := range file.Personas {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("persona %d (%s): %w", p.ID, p.Name, err)
		}
		if _, exists := byID[p.ID]; exists {
			return nil, fmt.Errorf("persona %d (%s): %w", p.ID, p.Name, ErrDuplicateID)
		}
		if p.Guilty {
			if guiltyID != 0 {
				return nil, ErrMultipleGuiltyPersonas
			}
			guiltyID = p.ID
		}
		byID[p.ID] = p
	}
	if guiltyID == 0 {
		return nil, ErrNoGuiltyPersona
	}

	ordered := make([]Persona, 0, len(byID))
	for _, p := range byID {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	return &Catalog{
		caseInfo: file.Case,
		byID:     byID,
		ordered:  ordered,
		guiltyID: guiltyID,
	}, nil
}

// Default loads the embedded catalog for the shipped case.
func Default() (*Catalog, error) {
	return Load(defaultCatalogYAML)
}

// MustDefault loads the embedded catalog and panics on failure. The embedded
// data is validated by tests, so a failure here is a build defect.
func MustDefault() *Catalog {
	catalog, err := Default()
	if err != nil {
		panic(fmt.Sprintf("load embedded persona catalog: %v", err))
	}
	return catalog
}

// Case returns the case metadata.
func (c *Catalog) Case() Case {
	return c.caseInfo
}

// Lookup returns the persona for an id or ErrPersonaNotFound.
func (c *Catalog) Lookup(id int) (Persona, error) {
	p, ok := c.byID[id]
	if !ok {
		return Persona{}, ErrPersonaNotFound
	}
	return p, nil
}

// All returns the personas ordered by id.
func (c *Catalog) All() []Persona {
	out := make([]Persona, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// GuiltyID returns the identifier of the single guilty persona.
func (c *Catalog) GuiltyID() int {
	return c.guiltyID
}

// FallbackLine returns the scripted deflection for a persona. The mapping is
// total: unknown ids and personas without a scripted line get a generic
// deflection instead of an error.
func (c *Catalog) FallbackLine(id int) string {
	p, ok := c.byID[id]
	if !ok || p.FallbackLine == "" {
		return defaultFallbackLine
	}
	return p.FallbackLine
}
