package chat

import "time"

// Message is one exchanged turn, kept as generation context for
// synthetic participants.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
