package model

// ConversationLog is the canonical, append-only message history of a
// session. It is never truncated in storage: only the view sent to a
// provider is windowed, by the assembler. The session is the sole owner;
// the log lives from session start to session teardown.
type ConversationLog struct {
	messages []Message
}

// NewConversationLog returns an empty log.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// Append records a completed message. Messages are immutable once appended.
func (l *ConversationLog) Append(msg Message) {
	l.messages = append(l.messages, msg)
}

// Messages returns a copy of the log in original order. Callers can window
// or filter the copy freely without affecting the canonical history.
func (l *ConversationLog) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of recorded messages.
func (l *ConversationLog) Len() int {
	return len(l.messages)
}

// Clear empties the log. Only session teardown calls this.
func (l *ConversationLog) Clear() {
	l.messages = nil
}
