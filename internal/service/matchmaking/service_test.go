package matchmaking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittenspace/meowchat/backend/internal/model/chat"
	"github.com/kittenspace/meowchat/backend/internal/model/persona"
	"github.com/kittenspace/meowchat/backend/internal/service/matchmaking"
)

func newService(fallbackWait time.Duration) *matchmaking.Service {
	return matchmaking.NewService(persona.NewMemoryStore(persona.Seed()), fallbackWait)
}

func queued(handle string, role chat.Role) *matchmaking.Party {
	return &matchmaking.Party{Handle: handle, Role: role, JoinedAt: time.Now()}
}

func TestAssignRoleConcrete(t *testing.T) {
	svc := newService(time.Second)

	for _, selection := range []string{"human", "cat", "ai"} {
		role, err := svc.AssignRole(selection)
		require.NoError(t, err)
		assert.Equal(t, chat.Role(selection), role)
	}
}

func TestAssignRoleRandom(t *testing.T) {
	svc := newService(time.Second)

	for i := 0; i < 50; i++ {
		role, err := svc.AssignRole("random")
		require.NoError(t, err)
		assert.True(t, role.Valid(), "random resolved to %q", role)
	}
}

func TestAssignRoleUnknown(t *testing.T) {
	svc := newService(time.Second)

	_, err := svc.AssignRole("alien")
	assert.ErrorIs(t, err, matchmaking.ErrUnknownRole)
}

func TestHumanMatchesAnyRole(t *testing.T) {
	for _, partnerRole := range []chat.Role{chat.RoleHuman, chat.RoleCat, chat.RoleAI} {
		svc := newService(time.Hour)

		partner := queued("partner", partnerRole)
		svc.Enqueue(partner)

		human := queued("human-1", chat.RoleHuman)
		svc.Enqueue(human)

		m, ok := svc.ProcessMatchmaking(human)
		require.True(t, ok, "human should match a waiting %s", partnerRole)
		assert.NotEmpty(t, m.ChatID)
		assert.Equal(t, "partner", m.Parties[1].Handle)
	}
}

func TestNonHumansOnlyMatchHumans(t *testing.T) {
	for _, a := range []chat.Role{chat.RoleCat, chat.RoleAI} {
		for _, b := range []chat.Role{chat.RoleCat, chat.RoleAI} {
			svc := newService(time.Hour)

			svc.Enqueue(queued("first", a))
			second := queued("second", b)
			svc.Enqueue(second)

			_, ok := svc.ProcessMatchmaking(second)
			assert.False(t, ok, "%s must not match %s", b, a)
		}
	}
}

func TestMatchedPairAlwaysContainsHuman(t *testing.T) {
	roles := []chat.Role{chat.RoleHuman, chat.RoleCat, chat.RoleAI}
	for _, a := range roles {
		for _, b := range roles {
			svc := newService(time.Hour)

			svc.Enqueue(queued("a", a))
			second := queued("b", b)
			svc.Enqueue(second)

			if m, ok := svc.ProcessMatchmaking(second); ok {
				humanPresent := m.Parties[0].Role == chat.RoleHuman || m.Parties[1].Role == chat.RoleHuman
				assert.True(t, humanPresent, "pair %s/%s lacks a human", a, b)
			}
		}
	}
}

func TestNoSelfMatch(t *testing.T) {
	svc := newService(time.Hour)

	human := queued("solo", chat.RoleHuman)
	svc.Enqueue(human)

	_, ok := svc.ProcessMatchmaking(human)
	assert.False(t, ok)
}

func TestFirstFitTakesEarliestCompatible(t *testing.T) {
	svc := newService(time.Hour)

	svc.Enqueue(queued("cat-early", chat.RoleCat))
	svc.Enqueue(queued("cat-late", chat.RoleCat))

	human := queued("human-1", chat.RoleHuman)
	svc.Enqueue(human)

	m, ok := svc.ProcessMatchmaking(human)
	require.True(t, ok)
	assert.Equal(t, "cat-early", m.Parties[1].Handle)
}

func TestSyntheticFallbackForWaitingHuman(t *testing.T) {
	svc := newService(time.Millisecond)

	human := &matchmaking.Party{
		Handle:   "human-1",
		Role:     chat.RoleHuman,
		JoinedAt: time.Now().Add(-time.Second),
	}
	svc.Enqueue(human)

	m, ok := svc.ProcessMatchmaking(human)
	require.True(t, ok, "waiting human must receive a synthetic partner")

	synthetic := m.Parties[1]
	assert.True(t, synthetic.Synthetic)
	assert.Equal(t, chat.RoleAI, synthetic.Role)
	assert.Contains(t, []string{"cat", "human"}, synthetic.PersonaTag)

	// Consumed from the queue: a later attempt finds nothing.
	_, ok = svc.ProcessMatchmaking(human)
	assert.False(t, ok)
}

func TestNoSyntheticFallbackBeforeWait(t *testing.T) {
	svc := newService(time.Hour)

	human := queued("human-1", chat.RoleHuman)
	svc.Enqueue(human)

	_, ok := svc.ProcessMatchmaking(human)
	assert.False(t, ok)
}

func TestNonHumansNeverGetSyntheticFallback(t *testing.T) {
	for _, role := range []chat.Role{chat.RoleCat, chat.RoleAI} {
		svc := newService(time.Millisecond)

		party := &matchmaking.Party{
			Handle:   "party-1",
			Role:     role,
			JoinedAt: time.Now().Add(-time.Second),
		}
		svc.Enqueue(party)

		_, ok := svc.ProcessMatchmaking(party)
		assert.False(t, ok, "%s should wait indefinitely", role)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc := newService(time.Hour)

	svc.Enqueue(queued("human-1", chat.RoleHuman))
	svc.Remove("human-1")
	svc.Remove("human-1")
	svc.Remove("never-seen")

	_, ok := svc.GetUser("human-1")
	assert.False(t, ok)
}

func TestMarkInSession(t *testing.T) {
	svc := newService(time.Hour)

	svc.Enqueue(queued("human-1", chat.RoleHuman))
	svc.MarkInSession("human-1", "chat-42")

	rec, ok := svc.GetUser("human-1")
	require.True(t, ok)
	assert.False(t, rec.InQueue)
	assert.Equal(t, "chat-42", rec.ChatID)
	assert.Equal(t, chat.RoleHuman, rec.Role)
}

func TestSetPartnerRoleClearsActiveChat(t *testing.T) {
	svc := newService(time.Hour)

	svc.Enqueue(queued("human-1", chat.RoleHuman))
	svc.MarkInSession("human-1", "chat-42")
	svc.SetPartnerRole("human-1", chat.RoleCat)

	rec, ok := svc.GetUser("human-1")
	require.True(t, ok)
	assert.Empty(t, rec.ChatID, "ended chat must release the record")

	role, ok := svc.TakePartnerRole("human-1")
	require.True(t, ok)
	assert.Equal(t, chat.RoleCat, role)
}

func TestTakePartnerRoleIsSingleUse(t *testing.T) {
	svc := newService(time.Hour)

	svc.Enqueue(queued("human-1", chat.RoleHuman))
	svc.SetPartnerRole("human-1", chat.RoleCat)

	role, ok := svc.TakePartnerRole("human-1")
	require.True(t, ok)
	assert.Equal(t, chat.RoleCat, role)

	_, ok = svc.TakePartnerRole("human-1")
	assert.False(t, ok)
}
