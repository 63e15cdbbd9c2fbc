// Package memory keeps the conversation log of processed important emails.
// It lives for the lifetime of the process and is never persisted.
package memory

import (
	"fmt"
	"sync"

	"mailtriage/internal/model"
)

// Log is an append-only, concurrency-safe sequence of conversation turns.
type Log struct {
	mu    sync.RWMutex
	turns []model.ConversationTurn
}

func NewLog() *Log {
	return &Log{}
}

// Record appends one turn for a processed email.
func (l *Log) Record(emailID, subject string, priority int, summary string) {
	turn := model.ConversationTurn{
		Input:  fmt.Sprintf("Email ID: %s, Subject: %s, Priority: %d", emailID, subject, priority),
		Output: fmt.Sprintf("Summary: %s", summary),
	}

	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
}

// AllTurns returns a snapshot of every turn in insertion order.
func (l *Log) AllTurns() []model.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.ConversationTurn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
