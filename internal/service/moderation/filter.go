// Package moderation provides the text transform applied to every
// relayed chat message.
package moderation

import "strings"

// DefaultWords is the seed word list. Deployments extend it via
// NewFilter; matching is case-insensitive substring replacement.
var DefaultWords = []string{
	"badword1", "badword2", "badword3",
}

// Filter replaces listed words with asterisks of equal length.
type Filter struct {
	words []string
}

// NewFilter builds a filter over the supplied word list.
func NewFilter(words []string) *Filter {
	return &Filter{words: append([]string(nil), words...)}
}

// Clean returns message with every listed word masked.
func (f *Filter) Clean(message string) string {
	filtered := message
	for _, word := range f.words {
		if word == "" {
			continue
		}
		filtered = maskWord(filtered, word)
	}
	return filtered
}

// HasProfanity reports whether message contains any listed word.
func (f *Filter) HasProfanity(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range f.words {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

func maskWord(message, word string) string {
	lowerMsg := strings.ToLower(message)
	lowerWord := strings.ToLower(word)
	mask := strings.Repeat("*", len(word))

	var b strings.Builder
	for {
		idx := strings.Index(lowerMsg, lowerWord)
		if idx < 0 {
			b.WriteString(message)
			return b.String()
		}
		b.WriteString(message[:idx])
		b.WriteString(mask)
		message = message[idx+len(word):]
		lowerMsg = lowerMsg[idx+len(word):]
	}
}
