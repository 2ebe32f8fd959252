// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"iter"
	"sync"
	"time"
)

// =============================================================================
// MESSAGE LOG
// =============================================================================

// Log is the ordered message history of one session.
//
// Messages can only be appended or cleared as a whole. Sequence numbers start
// at 1 and grow by one per append; Clear restarts them at 1. The zero value
// is ready to use.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// NewLog creates an empty message log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message with the next sequence number and returns it.
func (l *Log) Append(role Role, content string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now()
	if l.now != nil {
		ts = l.now()
	}

	msg := Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Sequence:  len(l.messages) + 1,
		Timestamp: ts,
	}
	l.messages = append(l.messages, msg)
	return msg
}

// All returns a lazy sequence over the messages in order. Each iteration
// starts from the first message and observes appends made while it runs; it
// stops early if the log is cleared underneath it.
func (l *Log) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for i := 0; ; i++ {
			l.mu.RLock()
			if i >= len(l.messages) {
				l.mu.RUnlock()
				return
			}
			msg := l.messages[i]
			l.mu.RUnlock()

			if !yield(msg) {
				return
			}
		}
	}
}

// Slice returns a copy of the current messages.
func (l *Log) Slice() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message and false if the log is empty.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Clear removes every message. The next Append gets sequence 1.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}
