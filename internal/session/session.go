// Package session manages conversation sessions: creation, activation,
// message history, title derivation, deletion, and plain-text export.
// All state flows through a Store backed by durable key-value storage.
package session

import (
	"fmt"
	"time"
)

// DefaultTitle is the placeholder title for a session that has not yet
// received its first user message.
const DefaultTitle = "New Chat"

// WelcomeMessage opens every fresh session.
const WelcomeMessage = "Hello! I'm NeuraBot, your AI assistant. How can I help you today?"

// titleMaxRunes caps auto-derived titles before the ellipsis marker.
const titleMaxRunes = 30

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single conversation entry. Timestamp is the display string
// captured at append time, not a machine timestamp.
type Message struct {
	Content   string `json:"content"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// Session is one conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// HasDefaultTitle reports whether the title is still the placeholder.
func (s *Session) HasDefaultTitle() bool {
	return s.Title == DefaultTitle
}

// deriveTitle produces a session title from the first user message.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return content
}

func newSessionID(now time.Time) string {
	return fmt.Sprintf("sess_%d", now.UnixNano())
}
