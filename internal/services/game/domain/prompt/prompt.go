// Package prompt assembles the instruction payload the text-generation
// provider receives for each interrogation turn.
//
// The payload is deterministic for a given persona and message: all
// variability in replies is the provider's responsibility. Secret facts are
// always included with a natural-language gating instruction; disclosure is
// instruction-controlled, not access-controlled.
package prompt

import (
	"fmt"
	"strings"

	"github.com/casefiles/interrogation/internal/services/game/domain/persona"
)

// Instruction is the provider payload for one turn: a system preamble that
// fixes the persona and a user part carrying the player's message.
type Instruction struct {
	System string
	User   string
}

// Build returns the instruction payload for questioning p about the case.
func Build(p persona.Persona, c persona.Case, playerMessage string) Instruction {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a %s being questioned about your boss %s's murder. %s\n\n",
		p.Name, p.Role, victimName(c), caseContext(c))
	fmt.Fprintf(&b, "PERSONALITY: %s\n\n", p.Personality)

	b.WriteString("BASIC INFORMATION YOU CAN SHARE:\n")
	for _, fact := range p.BasicFacts {
		fmt.Fprintf(&b, "- %s\n", fact)
	}

	b.WriteString("\nSECRET INFORMATION (only reveal under pressure or with good rapport):\n")
	for _, fact := range p.SecretFacts {
		fmt.Fprintf(&b, "- %s\n", fact)
	}
	b.WriteString("\n")

	if p.Guilty {
		b.WriteString("YOU ARE GUILTY. You committed the murder but don't want to confess. Be defensive and try to redirect suspicion.\n")
	} else {
		b.WriteString("YOU ARE INNOCENT. You want to help find the real killer but protect yourself from false accusations.\n")
	}

	b.WriteString(`
INSTRUCTIONS:
- Stay in character at all times
- Start with basic information, only reveal secrets if the detective is skilled
- Be defensive if directly accused (especially if innocent)
- Keep responses to 2-3 sentences maximum
- Don't volunteer information too easily - make the detective work for it
- If accused and you're innocent, show appropriate offense and suspicion
- If guilty, be evasive and defensive without obvious tells`)

	return Instruction{
		System: b.String(),
		User:   playerMessage,
	}
}

func victimName(c persona.Case) string {
	victim := strings.TrimSpace(c.Victim)
	if victim == "" {
		return "the victim"
	}
	// Drop a trailing role qualifier like "(CEO)".
	if idx := strings.Index(victim, "("); idx > 0 {
		victim = strings.TrimSpace(victim[:idx])
	}
	return victim
}

func caseContext(c persona.Case) string {
	parts := make([]string, 0, 2)
	if loc := strings.TrimSpace(c.Location); loc != "" {
		parts = append(parts, "The scene is the "+strings.ToLower(loc)+".")
	}
	if when := strings.TrimSpace(c.Time); when != "" {
		parts = append(parts, "It happened "+strings.ToLower(when)+".")
	}
	return strings.Join(parts, " ")
}
