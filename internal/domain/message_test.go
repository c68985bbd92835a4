package domain

import "testing"

func TestCloneMessagesDoesNotAlias(t *testing.T) {
	history := make([]Message, 1, 4)
	history[0] = Message{Role: RoleSystem, Content: "prompt"}

	clone := CloneMessages(history)
	clone = append(clone, Message{Role: RoleUser, Content: "hi"})
	_ = append(history, Message{Role: RoleUser, Content: "other"})

	if clone[1].Content != "hi" {
		t.Fatalf("clone shares backing array with source: %q", clone[1].Content)
	}
}

func TestSpokenTurnsSkipsInjected(t *testing.T) {
	history := []Message{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "answer"},
		{Role: RoleAssistant, Content: "next"},
		{Role: RoleUser, Content: "report please", Injected: true},
	}
	if got := SpokenTurns(history); got != 1 {
		t.Fatalf("SpokenTurns = %d, want 1", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobQueued:    false,
		JobRunning:   false,
		JobCompleted: true,
		JobFailed:    true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
