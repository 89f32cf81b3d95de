package ws

import (
	"encoding/json"

	"github.com/kittenspace/meowchat/backend/internal/model/chat"
)

// inboundEvent is the envelope a connected party sends.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// outboundEvent is the envelope delivered to a connected party.
type outboundEvent struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Inbound event names.
const (
	eventJoinQueue   = "join_queue"
	eventSendMessage = "send_message"
	eventTyping      = "typing"
	eventEndChat     = "end_chat"
	eventSubmitGuess = "submit_guess"
)

// Outbound event names owned by the gateway. The session engine emits
// its own (receive_message, partner_typing, chat_ended).
const (
	eventWaiting      = "waiting"
	eventMatched      = "matched"
	eventRevealAnswer = "reveal_answer"
	eventError        = "error"
)

type joinPayload struct {
	Role string `json:"role"`
}

type sendMessagePayload struct {
	Message string `json:"message"`
}

type typingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type guessPayload struct {
	Guess string `json:"guess"`
}

type waitingPayload struct {
	Role chat.Role `json:"role"`
}

type matchedPayload struct {
	ChatID string `json:"chatId"`
}

type errorPayload struct {
	Message string `json:"message"`
}
