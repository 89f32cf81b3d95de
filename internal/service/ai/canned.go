package ai

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kittenspace/meowchat/backend/internal/model/persona"
)

// Canned is the responder used when no model credentials are
// configured: every turn is a line from the persona's fallback set.
type Canned struct {
	personas persona.Store
}

// NewCanned returns a responder drawing from the store's fallback lines.
func NewCanned(personas persona.Store) *Canned {
	return &Canned{personas: personas}
}

// Generate picks a random canned line for the persona.
func (c *Canned) Generate(_ context.Context, _, personaTag, _ string) (string, error) {
	p, ok := c.personas.FindByID(personaTag)
	if !ok {
		return "", fmt.Errorf("unknown persona tag %q", personaTag)
	}
	if len(p.FallbackLines) == 0 {
		return "", fmt.Errorf("persona %q has no fallback lines", personaTag)
	}
	return p.FallbackLines[rand.Intn(len(p.FallbackLines))], nil
}

// ClearHistory is a no-op: canned responses carry no context.
func (c *Canned) ClearHistory(string) {}
