// Package ai implements the persona responder: given a persona tag and
// the conversation so far, it produces the synthetic participant's next
// line.
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/kittenspace/meowchat/backend/internal/config"
	"github.com/kittenspace/meowchat/backend/internal/model/chat"
	"github.com/kittenspace/meowchat/backend/internal/model/persona"
)

// Service generates persona responses through an LLM chain, keeping a
// bounded per-session conversation history as context.
type Service struct {
	personas     persona.Store
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int

	mu        sync.Mutex
	histories map[string][]chat.Message
}

// NewService builds the prompt→model chain from configuration.
func NewService(ctx context.Context, personas persona.Store, cfg config.AIConfig, historyLimit int) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	if historyLimit < 1 {
		historyLimit = 1
	}

	return &Service{
		personas:     personas,
		chain:        runnable,
		historyLimit: historyLimit,
		histories:    make(map[string][]chat.Message),
	}, nil
}

// Generate produces the next line for the persona behind tag. The
// user's message and the reply are appended to the session history on
// success.
func (s *Service) Generate(ctx context.Context, sessionID, personaTag, message string) (string, error) {
	p, ok := s.personas.FindByID(personaTag)
	if !ok {
		return "", fmt.Errorf("unknown persona tag %q", personaTag)
	}

	input := map[string]any{
		"system":  p.SystemPrompt,
		"history": s.historyMessages(sessionID),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	s.appendHistory(sessionID, message, reply)

	log.Printf("[ai] generated reply for session=%s persona=%s length=%d", sessionID, personaTag, len(reply))
	return reply, nil
}

// ClearHistory discards the conversation context of an ended session.
func (s *Service) ClearHistory(sessionID string) {
	s.mu.Lock()
	delete(s.histories, sessionID)
	s.mu.Unlock()
}

func (s *Service) historyMessages(sessionID string) []*schema.Message {
	s.mu.Lock()
	turns := s.histories[sessionID]
	history := make([]*schema.Message, 0, len(turns))
	for _, msg := range turns {
		switch msg.Sender {
		case "user":
			history = append(history, schema.UserMessage(msg.Content))
		case "assistant":
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	s.mu.Unlock()

	if len(history) == 0 {
		return nil
	}
	return history
}

func (s *Service) appendHistory(sessionID, userMessage, reply string) {
	now := time.Now()

	s.mu.Lock()
	turns := append(s.histories[sessionID],
		chat.Message{Sender: "user", Content: userMessage, CreatedAt: now},
		chat.Message{Sender: "assistant", Content: reply, CreatedAt: now},
	)
	if len(turns) > s.historyLimit {
		turns = turns[len(turns)-s.historyLimit:]
	}
	s.histories[sessionID] = turns
	s.mu.Unlock()
}
