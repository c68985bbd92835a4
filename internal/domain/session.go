package domain

// Phase is the lifecycle state of an interview session.
type Phase int

// Session phases.
const (
	PhaseUninitialized Phase = iota
	PhaseAwaitingFirstTurn
	PhaseAwaitingUserAudio
	PhaseProcessing
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseAwaitingFirstTurn:
		return "awaiting_first_turn"
	case PhaseAwaitingUserAudio:
		return "awaiting_user_audio"
	case PhaseProcessing:
		return "processing"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// SetupRequest carries the candidate material that seeds a session.
type SetupRequest struct {
	Resume         string
	JobDescription string
	Voice          string
}
