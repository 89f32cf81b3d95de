package chat

import "testing"

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleHuman, RoleCat, RoleAI} {
		if !role.Valid() {
			t.Fatalf("%s should be valid", role)
		}
	}
	if RoleRandom.Valid() {
		t.Fatal("random is a selection, not a concrete role")
	}
	if Role("alien").Valid() {
		t.Fatal("unknown role accepted")
	}
}

func TestPickRandomRoleIsConcrete(t *testing.T) {
	for i := 0; i < 50; i++ {
		if role := PickRandomRole(); !role.Valid() {
			t.Fatalf("picked non-concrete role %q", role)
		}
	}
}
