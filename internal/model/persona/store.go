package persona

import "math/rand"

// Store exposes persona retrieval for the responder and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	RandomID() string
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// RandomID picks a persona tag uniformly from the supported set.
func (s *MemoryStore) RandomID() string {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[rand.Intn(len(s.items))].ID
}
