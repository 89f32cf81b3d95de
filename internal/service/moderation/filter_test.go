package moderation

import "testing"

func TestCleanMasksListedWords(t *testing.T) {
	f := NewFilter([]string{"darn"})

	got := f.Clean("well darn it")
	if got != "well **** it" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCleanIsCaseInsensitive(t *testing.T) {
	f := NewFilter([]string{"darn"})

	got := f.Clean("DARN and Darn")
	if got != "**** and ****" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCleanLeavesCleanTextAlone(t *testing.T) {
	f := NewFilter(DefaultWords)

	msg := "hello there, how are you?"
	if got := f.Clean(msg); got != msg {
		t.Fatalf("clean text was altered: %q", got)
	}
}

func TestHasProfanity(t *testing.T) {
	f := NewFilter([]string{"darn"})

	if !f.HasProfanity("oh DaRn") {
		t.Fatal("expected profanity to be detected")
	}
	if f.HasProfanity("all good") {
		t.Fatal("false positive on clean text")
	}
}
