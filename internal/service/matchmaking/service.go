// Package matchmaking owns the waiting queue, the pairing rules and the
// per-connection user records.
package matchmaking

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kittenspace/meowchat/backend/internal/model/chat"
)

// ErrUnknownRole rejects a join request whose role selection is not one
// of human, cat, ai or random.
var ErrUnknownRole = errors.New("unknown role selection")

// Party is a connection-scoped identity able to queue and chat. A
// synthetic party has no connection of its own; PersonaTag selects the
// profile it generates text with.
type Party struct {
	Handle     string
	Role       chat.Role
	PersonaTag string
	Synthetic  bool
	JoinedAt   time.Time
}

// UserRecord tracks a connected party independently of the queue and the
// session registry. PartnerRole is persisted at session end so a guess
// can still be resolved after the session object is gone.
type UserRecord struct {
	Role        chat.Role
	InQueue     bool
	ChatID      string
	PartnerRole chat.Role
}

// Match is a successful pairing ready to become a session.
type Match struct {
	ChatID  string
	Parties [2]*Party
}

// PersonaSource supplies persona tags for manufactured synthetic parties.
type PersonaSource interface {
	RandomID() string
}

// Service implements the matchmaking queue. All collections are guarded
// by one mutex; callers never observe partial transitions.
type Service struct {
	mu       sync.Mutex
	queue    []*Party
	users    map[string]*UserRecord
	personas PersonaSource
	wait     time.Duration
}

// NewService builds a queue whose lone-human fallback triggers after
// fallbackWait.
func NewService(personas PersonaSource, fallbackWait time.Duration) *Service {
	return &Service{
		users:    make(map[string]*UserRecord),
		personas: personas,
		wait:     fallbackWait,
	}
}

// AssignRole resolves a requested selection into a concrete role.
// "random" resolves uniformly at call time.
func (s *Service) AssignRole(selection string) (chat.Role, error) {
	role := chat.Role(selection)
	if role == chat.RoleRandom {
		return chat.PickRandomRole(), nil
	}
	if !role.Valid() {
		return "", ErrUnknownRole
	}
	return role, nil
}

// Enqueue appends the party to the waiting collection and creates its
// user record.
func (s *Service) Enqueue(party *Party) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, party)
	s.users[party.Handle] = &UserRecord{Role: party.Role, InQueue: true}
	log.Printf("[match] %s joined queue as %s", party.Handle, party.Role)
}

// ProcessMatchmaking attempts to pair the party. On success both sides
// are consumed from the queue and a fresh chat id is issued. An
// unmatched human past the fallback wait is paired with a manufactured
// synthetic partner instead. Otherwise the party keeps waiting and the
// caller schedules a retry.
func (s *Service) ProcessMatchmaking(party *Party) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if candidate := s.findMatchLocked(party); candidate != nil {
		s.dequeueLocked(party.Handle)
		log.Printf("[match] paired %s (%s) with %s (%s)", party.Handle, party.Role, candidate.Handle, candidate.Role)
		return &Match{ChatID: uuid.NewString(), Parties: [2]*Party{party, candidate}}, true
	}

	// Only humans get the synthetic fallback; cat and ai parties exist
	// to be matched against humans and wait until disconnect.
	if party.Role == chat.RoleHuman && time.Since(party.JoinedAt) > s.wait {
		s.dequeueLocked(party.Handle)
		synthetic := &Party{
			Handle:     "ai-" + uuid.NewString(),
			Role:       chat.RoleAI,
			PersonaTag: s.personas.RandomID(),
			Synthetic:  true,
			JoinedAt:   time.Now(),
		}
		log.Printf("[match] synthetic fallback for %s, persona=%s", party.Handle, synthetic.PersonaTag)
		return &Match{ChatID: uuid.NewString(), Parties: [2]*Party{party, synthetic}}, true
	}

	return nil, false
}

// findMatchLocked scans the waiting collection in arrival order and
// consumes the first compatible candidate: a human matches any role, a
// cat or ai matches only a human.
func (s *Service) findMatchLocked(party *Party) *Party {
	for i, candidate := range s.queue {
		if candidate.Handle == party.Handle {
			continue
		}
		if party.Role == chat.RoleHuman || candidate.Role == chat.RoleHuman {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return candidate
		}
	}
	return nil
}

// Remove drops a party from the waiting collection and deletes its user
// record. Safe to call for unknown handles.
func (s *Service) Remove(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dequeueLocked(handle)
	if _, ok := s.users[handle]; ok {
		delete(s.users, handle)
		log.Printf("[match] %s removed from tracking", handle)
	}
}

// MarkInSession transitions a user record from queued to in-chat.
func (s *Service) MarkInSession(handle, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[handle]; ok {
		rec.InQueue = false
		rec.ChatID = chatID
	}
}

// GetUser returns a copy of the user record for the handle.
func (s *Service) GetUser(handle string) (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[handle]
	if !ok {
		return UserRecord{}, false
	}
	return *rec, true
}

// SetPartnerRole persists the counterpart role on the user record at
// session end, enabling post-destruction guess resolution. The active
// chat id is cleared at the same time so the party can queue again.
func (s *Service) SetPartnerRole(handle string, role chat.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[handle]; ok {
		rec.PartnerRole = role
		rec.ChatID = ""
	}
}

// TakePartnerRole consumes the persisted counterpart role. The value is
// single-use: a second take without a new session finds nothing.
func (s *Service) TakePartnerRole(handle string) (chat.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[handle]
	if !ok || rec.PartnerRole == "" {
		return "", false
	}
	role := rec.PartnerRole
	rec.PartnerRole = ""
	return role, true
}

func (s *Service) dequeueLocked(handle string) {
	for i, waiting := range s.queue {
		if waiting.Handle == handle {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
