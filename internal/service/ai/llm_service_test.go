package ai

import (
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/kittenspace/meowchat/backend/internal/model/chat"
)

func historyService(limit int) *Service {
	return &Service{
		historyLimit: limit,
		histories:    make(map[string][]chat.Message),
	}
}

func TestHistoryIsBoundedToNewestTurns(t *testing.T) {
	s := historyService(4)

	for i := 0; i < 10; i++ {
		s.appendHistory("chat-1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	msgs := s.historyMessages("chat-1")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 retained entries, got %d", len(msgs))
	}

	wantContent := []string{"q8", "a8", "q9", "a9"}
	wantRole := []schema.RoleType{schema.User, schema.Assistant, schema.User, schema.Assistant}
	for i, msg := range msgs {
		if msg.Content != wantContent[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, wantContent[i], msg.Content)
		}
		if msg.Role != wantRole[i] {
			t.Fatalf("entry %d: expected role %s, got %s", i, wantRole[i], msg.Role)
		}
	}
}

func TestHistoryKeepsSessionsSeparate(t *testing.T) {
	s := historyService(6)

	s.appendHistory("chat-1", "hello", "meow")
	s.appendHistory("chat-2", "hey", "hiss")

	if msgs := s.historyMessages("chat-1"); len(msgs) != 2 || msgs[0].Content != "hello" {
		t.Fatalf("unexpected chat-1 history: %v", msgs)
	}
	if msgs := s.historyMessages("chat-2"); len(msgs) != 2 || msgs[0].Content != "hey" {
		t.Fatalf("unexpected chat-2 history: %v", msgs)
	}
}

func TestClearHistoryDropsSessionContext(t *testing.T) {
	s := historyService(6)

	s.appendHistory("chat-1", "hi", "meow")
	s.ClearHistory("chat-1")

	if msgs := s.historyMessages("chat-1"); msgs != nil {
		t.Fatalf("expected no history, got %d entries", len(msgs))
	}
}
