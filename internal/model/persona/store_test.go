package persona_test

import (
	"testing"

	"github.com/kittenspace/meowchat/backend/internal/model/persona"
)

func TestFindByID(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	p, ok := store.FindByID("cat")
	if !ok {
		t.Fatal("cat persona missing")
	}
	if len(p.FallbackLines) == 0 {
		t.Fatal("cat persona has no fallback lines")
	}

	if _, ok := store.FindByID("dog"); ok {
		t.Fatal("unexpected persona found")
	}
}

func TestRandomIDStaysInSupportedSet(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	for i := 0; i < 50; i++ {
		id := store.RandomID()
		if _, ok := store.FindByID(id); !ok {
			t.Fatalf("RandomID returned unknown tag %q", id)
		}
	}
}
