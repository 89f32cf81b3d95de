package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/kittenspace/meowchat/backend/internal/model/chat"
	chatservice "github.com/kittenspace/meowchat/backend/internal/service/chat"
	"github.com/kittenspace/meowchat/backend/internal/service/matchmaking"
)

// Hub tracks connected clients and turns inbound events into engine
// calls. It implements the session engine's Emitter.
type Hub struct {
	match *matchmaking.Service
	chat  *chatservice.Service
	retry time.Duration

	mu      sync.Mutex
	clients map[string]*client
}

// NewHub creates a hub over the matchmaking queue. The session engine
// is attached afterwards since it needs the hub as its emitter.
func NewHub(match *matchmaking.Service, retryInterval time.Duration) *Hub {
	return &Hub{
		match:   match,
		retry:   retryInterval,
		clients: make(map[string]*client),
	}
}

// SetChatService attaches the session engine. Must be called before the
// hub accepts connections.
func (h *Hub) SetChatService(chat *chatservice.Service) {
	h.chat = chat
}

// Emit delivers an event to the party behind handle. Unknown handles
// are silently dropped.
func (h *Hub) Emit(handle, event string, payload any) {
	h.mu.Lock()
	c, ok := h.clients[handle]
	h.mu.Unlock()
	if !ok {
		return
	}
	c.enqueue(newOutbound(event, payload))
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Printf("[ws] client %s connected", c.id)
}

// unregister runs exactly once per client: the party leaves the queue,
// its session (if any) ends with the disconnect reason, and the write
// pump is shut down.
func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()

		c.shutdown()
		h.match.Remove(c.id)
		h.chat.HandleDisconnect(c.id)
		log.Printf("[ws] client %s disconnected", c.id)
	})
}

func (h *Hub) dispatch(c *client, evt inboundEvent) {
	switch evt.Type {
	case eventJoinQueue:
		var p joinPayload
		if !decode(c, evt.Data, &p) {
			return
		}
		h.handleJoin(c, p.Role)

	case eventSendMessage:
		var p sendMessagePayload
		if !decode(c, evt.Data, &p) {
			return
		}
		h.chat.HandleMessage(c.id, p.Message)

	case eventTyping:
		var p typingPayload
		if !decode(c, evt.Data, &p) {
			return
		}
		h.chat.HandleTyping(c.id, p.IsTyping)

	case eventEndChat:
		h.chat.EndFor(c.id, chat.EndManual)

	case eventSubmitGuess:
		var p guessPayload
		if !decode(c, evt.Data, &p) {
			return
		}
		h.handleGuess(c, p.Guess)

	default:
		c.enqueue(newOutbound(eventError, errorPayload{Message: "unknown event type"}))
	}
}

func (h *Hub) handleJoin(c *client, selection string) {
	role, err := h.match.AssignRole(selection)
	if err != nil {
		c.enqueue(newOutbound(eventError, errorPayload{Message: "unknown role selection"}))
		return
	}

	if rec, ok := h.match.GetUser(c.id); ok && (rec.InQueue || rec.ChatID != "") {
		c.enqueue(newOutbound(eventError, errorPayload{Message: "already waiting or in a chat"}))
		return
	}

	party := &matchmaking.Party{Handle: c.id, Role: role, JoinedAt: time.Now()}
	h.match.Enqueue(party)
	c.enqueue(newOutbound(eventWaiting, waitingPayload{Role: role}))

	h.tryMatch(c, party)
}

// tryMatch runs one matchmaking attempt and, while the party is still
// queued, keeps rescheduling itself every retry interval. The repeat is
// what guarantees a lone human eventually receives the synthetic
// fallback.
func (h *Hub) tryMatch(c *client, party *matchmaking.Party) {
	if m, ok := h.match.ProcessMatchmaking(party); ok {
		c.stopRetry()
		h.startSession(m)
		return
	}

	c.setRetry(time.AfterFunc(h.retry, func() {
		rec, ok := h.match.GetUser(party.Handle)
		if !ok || !rec.InQueue {
			return
		}
		h.tryMatch(c, party)
	}))
}

func (h *Hub) startSession(m *matchmaking.Match) {
	h.chat.CreateSession(m)

	for _, p := range m.Parties {
		if p.Synthetic {
			continue
		}
		h.match.MarkInSession(p.Handle, m.ChatID)
		h.Emit(p.Handle, eventMatched, matchedPayload{ChatID: m.ChatID})
	}
}

func (h *Hub) handleGuess(c *client, guess string) {
	role := chat.Role(guess)
	if !role.Valid() {
		c.enqueue(newOutbound(eventError, errorPayload{Message: "unknown guess value"}))
		return
	}

	result, err := h.chat.ResolveGuess(c.id, role)
	if err != nil {
		c.enqueue(newOutbound(eventError, errorPayload{Message: err.Error()}))
		return
	}
	c.enqueue(newOutbound(eventRevealAnswer, result))
}

func decode(c *client, raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		c.enqueue(newOutbound(eventError, errorPayload{Message: "missing event payload"}))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.enqueue(newOutbound(eventError, errorPayload{Message: "invalid event payload"}))
		return false
	}
	return true
}
