// Package domain contains core domain types for the interview server.
package domain

// Role identifies the author of a Message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Injected marks user-role content written by the server rather than
	// spoken by the candidate, such as the report instruction.
	Injected bool `json:"injected,omitempty"`
}

// CloneMessages returns a copy of history with its own backing array.
func CloneMessages(history []Message) []Message {
	if history == nil {
		return nil
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// SpokenTurns counts user messages the candidate actually said.
func SpokenTurns(history []Message) int {
	n := 0
	for _, m := range history {
		if m.Role == RoleUser && !m.Injected {
			n++
		}
	}
	return n
}
