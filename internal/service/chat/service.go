// Package chat implements the session lifecycle engine: message relay,
// typing relay, synthetic turn injection, limit enforcement and
// termination.
package chat

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/kittenspace/meowchat/backend/internal/config"
	"github.com/kittenspace/meowchat/backend/internal/model/chat"
	"github.com/kittenspace/meowchat/backend/internal/model/persona"
	"github.com/kittenspace/meowchat/backend/internal/service/matchmaking"
	"github.com/kittenspace/meowchat/backend/internal/service/moderation"
)

// ErrNoGuessContext rejects a guess submitted when neither a live
// session nor a stored counterpart role exists for the party.
var ErrNoGuessContext = errors.New("no active chat or stored result to guess against")

const generateTimeout = 15 * time.Second

// Outbound event names emitted by the session engine.
const (
	EventReceiveMessage = "receive_message"
	EventPartnerTyping  = "partner_typing"
	EventChatEnded      = "chat_ended"
)

// MessagePayload is a delivered chat message.
type MessagePayload struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// TypingPayload is a forwarded typing indicator.
type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// EndedPayload is the termination notice sent to human participants.
type EndedPayload struct {
	Reason      chat.EndReason `json:"reason"`
	PartnerType chat.Role      `json:"partnerType"`
}

// GuessResult reports a resolved partner-type guess.
type GuessResult struct {
	PartnerType chat.Role `json:"partnerType"`
	Correct     bool      `json:"correct"`
}

// Emitter delivers an event to the party behind a connection handle.
// Deliveries to unknown handles are silently dropped.
type Emitter interface {
	Emit(handle, event string, payload any)
}

// Responder produces the next line of dialogue for a synthetic
// participant. Implementations keep their own bounded per-session
// history and must be told to discard it when a session ends.
type Responder interface {
	Generate(ctx context.Context, sessionID, personaTag, message string) (string, error)
	ClearHistory(sessionID string)
}

// Records is the slice of user-record state the engine needs for
// post-destruction guess resolution.
type Records interface {
	SetPartnerRole(handle string, role chat.Role)
	TakePartnerRole(handle string) (chat.Role, bool)
}

type participant struct {
	handle     string
	role       chat.Role
	personaTag string
	synthetic  bool
	messages   int
}

type session struct {
	id           string
	participants [2]*participant
	total        int
	startedAt    time.Time
	ended        bool
	timer        *time.Timer
}

// counterpartOf returns the sender and the other participant, or nils
// when the handle belongs to neither.
func (s *session) counterpartOf(handle string) (*participant, *participant) {
	if s.participants[0].handle == handle {
		return s.participants[0], s.participants[1]
	}
	if s.participants[1].handle == handle {
		return s.participants[1], s.participants[0]
	}
	return nil, nil
}

// Service owns the active-session registry.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	byHandle map[string]string

	cfg       config.ChatConfig
	emitter   Emitter
	responder Responder
	records   Records
	personas  persona.Store
	filter    *moderation.Filter
}

// NewService wires the session engine to its collaborators.
func NewService(cfg config.ChatConfig, emitter Emitter, responder Responder, records Records, personas persona.Store, filter *moderation.Filter) *Service {
	return &Service{
		sessions:  make(map[string]*session),
		byHandle:  make(map[string]string),
		cfg:       cfg,
		emitter:   emitter,
		responder: responder,
		records:   records,
		personas:  personas,
		filter:    filter,
	}
}

// CreateSession instantiates a bounded session for a matched pair and
// arms its expiry timer.
func (s *Service) CreateSession(m *matchmaking.Match) {
	sess := &session{
		id:        m.ChatID,
		startedAt: time.Now(),
	}
	for i, p := range m.Parties {
		sess.participants[i] = &participant{
			handle:     p.Handle,
			role:       p.Role,
			personaTag: p.PersonaTag,
			synthetic:  p.Synthetic,
		}
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	for _, p := range sess.participants {
		s.byHandle[p.handle] = sess.id
	}
	sess.timer = time.AfterFunc(s.cfg.SessionDuration, func() {
		s.End(sess.id, chat.EndTimeLimit)
	})
	s.mu.Unlock()

	log.Printf("[chat] session %s created: %s & %s", sess.id, m.Parties[0].Role, m.Parties[1].Role)
}

// HandleMessage relays a message from the party behind senderHandle.
// Missing or ended sessions make it a no-op.
func (s *Service) HandleMessage(senderHandle, text string) {
	s.mu.Lock()
	sess := s.sessionByHandleLocked(senderHandle)
	if sess == nil || sess.ended {
		s.mu.Unlock()
		return
	}

	sender, counterpart := sess.counterpartOf(senderHandle)
	if sender == nil {
		s.mu.Unlock()
		return
	}

	filtered := s.filter.Clean(text)
	sender.messages++
	sess.total++

	deliverTo := ""
	if !counterpart.synthetic {
		deliverTo = counterpart.handle
	}
	scheduleReply := counterpart.synthetic
	personaTag := counterpart.personaTag
	sessionID := sess.id
	limitReached := sess.total >= s.cfg.MaxMessages
	s.mu.Unlock()

	if deliverTo != "" {
		s.emitter.Emit(deliverTo, EventReceiveMessage, MessagePayload{
			Message:   filtered,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	if scheduleReply {
		delay := s.replyDelay()
		time.AfterFunc(delay, func() {
			s.deliverSyntheticReply(sessionID, personaTag, senderHandle, filtered)
		})
	}

	if limitReached {
		s.End(sessionID, chat.EndMessageLimit)
	}
}

// deliverSyntheticReply runs after the randomized typing-latency delay:
// it asks the responder for the next line, falls back to a canned line
// on failure, and delivers the result to the human as an incoming
// message. Replies to sessions that ended in the meantime are dropped.
func (s *Service) deliverSyntheticReply(sessionID, personaTag, senderHandle, userText string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.ended {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	reply, err := s.responder.Generate(ctx, sessionID, personaTag, userText)
	if err != nil {
		log.Printf("[chat] generation failed for session %s: %v", sessionID, err)
		reply = s.fallbackLine(personaTag)
	}

	s.mu.Lock()
	sess, ok = s.sessions[sessionID]
	if !ok || sess.ended {
		s.mu.Unlock()
		return
	}
	_, synthetic := sess.counterpartOf(senderHandle)
	if synthetic == nil {
		s.mu.Unlock()
		return
	}
	synthetic.messages++
	sess.total++
	limitReached := sess.total >= s.cfg.MaxMessages
	s.mu.Unlock()

	s.emitter.Emit(senderHandle, EventReceiveMessage, MessagePayload{
		Message:   reply,
		Timestamp: time.Now().UnixMilli(),
	})

	if limitReached {
		s.End(sessionID, chat.EndMessageLimit)
	}
}

// HandleTyping forwards a typing indicator to the counterpart, only if
// the counterpart is human and the session is still active.
func (s *Service) HandleTyping(senderHandle string, isTyping bool) {
	s.mu.Lock()
	sess := s.sessionByHandleLocked(senderHandle)
	if sess == nil || sess.ended {
		s.mu.Unlock()
		return
	}

	sender, counterpart := sess.counterpartOf(senderHandle)
	if sender == nil || counterpart.synthetic {
		s.mu.Unlock()
		return
	}
	target := counterpart.handle
	s.mu.Unlock()

	s.emitter.Emit(target, EventPartnerTyping, TypingPayload{IsTyping: isTyping})
}

// End transitions a session to ended. The transition happens at most
// once; later triggers are no-ops. The expiry timer is cancelled, each
// human participant learns its counterpart's role, and the session is
// destroyed after the grace delay.
func (s *Service) End(sessionID string, reason chat.EndReason) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.ended {
		s.mu.Unlock()
		return
	}
	sess.ended = true
	if sess.timer != nil {
		sess.timer.Stop()
	}

	type notice struct {
		handle  string
		partner chat.Role
	}
	var notices []notice
	for i, p := range sess.participants {
		if p.synthetic {
			continue
		}
		partner := sess.participants[1-i]
		notices = append(notices, notice{handle: p.handle, partner: partner.role})
	}
	s.mu.Unlock()

	for _, n := range notices {
		s.records.SetPartnerRole(n.handle, n.partner)
		s.emitter.Emit(n.handle, EventChatEnded, EndedPayload{Reason: reason, PartnerType: n.partner})
	}

	s.responder.ClearHistory(sessionID)

	// Grace period before the registry forgets the session, so
	// in-flight lookups still resolve.
	time.AfterFunc(s.cfg.DestroyGrace, func() {
		s.destroy(sessionID)
	})

	log.Printf("[chat] session %s ended (%s)", sessionID, reason)
}

// EndFor ends the session the handle participates in, if any.
func (s *Service) EndFor(handle string, reason chat.EndReason) {
	s.mu.Lock()
	sess := s.sessionByHandleLocked(handle)
	s.mu.Unlock()

	if sess != nil {
		s.End(sess.id, reason)
	}
}

// HandleDisconnect ends the handle's session with the disconnect reason.
func (s *Service) HandleDisconnect(handle string) {
	s.EndFor(handle, chat.EndDisconnect)
}

// ResolveGuess compares a guess against the counterpart's actual role.
// While the session is resolvable the live role is used without
// mutating anything; afterwards the role persisted at end-of-session is
// consumed. With neither available the guess is a protocol error.
func (s *Service) ResolveGuess(senderHandle string, guess chat.Role) (GuessResult, error) {
	s.mu.Lock()
	sess := s.sessionByHandleLocked(senderHandle)
	if sess != nil {
		sender, counterpart := sess.counterpartOf(senderHandle)
		if sender != nil {
			result := GuessResult{PartnerType: counterpart.role, Correct: guess == counterpart.role}
			s.mu.Unlock()
			return result, nil
		}
	}
	s.mu.Unlock()

	role, ok := s.records.TakePartnerRole(senderHandle)
	if !ok {
		return GuessResult{}, ErrNoGuessContext
	}
	return GuessResult{PartnerType: role, Correct: guess == role}, nil
}

func (s *Service) sessionByHandleLocked(handle string) *session {
	id, ok := s.byHandle[handle]
	if !ok {
		return nil
	}
	return s.sessions[id]
}

func (s *Service) destroy(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
		for _, p := range sess.participants {
			if s.byHandle[p.handle] == sessionID {
				delete(s.byHandle, p.handle)
			}
		}
	}
	s.mu.Unlock()

	if ok {
		log.Printf("[chat] session %s destroyed", sessionID)
	}
}

func (s *Service) replyDelay() time.Duration {
	min, max := s.cfg.ReplyDelayMin, s.cfg.ReplyDelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

func (s *Service) fallbackLine(personaTag string) string {
	p, ok := s.personas.FindByID(personaTag)
	if !ok || len(p.FallbackLines) == 0 {
		return "..."
	}
	return p.FallbackLines[rand.Intn(len(p.FallbackLines))]
}
