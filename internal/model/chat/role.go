package chat

import "math/rand"

// Role is the nature a party presents as during a chat.
type Role string

const (
	RoleHuman Role = "human"
	RoleCat   Role = "cat"
	RoleAI    Role = "ai"

	// RoleRandom is only valid as a join request; it resolves to one
	// of the concrete roles above.
	RoleRandom Role = "random"
)

var concreteRoles = []Role{RoleHuman, RoleCat, RoleAI}

// Valid reports whether r is a concrete role.
func (r Role) Valid() bool {
	return r == RoleHuman || r == RoleCat || r == RoleAI
}

// PickRandomRole resolves the "random" selection uniformly at call time.
func PickRandomRole() Role {
	return concreteRoles[rand.Intn(len(concreteRoles))]
}
