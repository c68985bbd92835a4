package domain

import "time"

// Interview is the archived record of a finished session.
type Interview struct {
	ID         string    `json:"id"`
	Voice      string    `json:"voice"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Turns      int       `json:"turns"`
	Report     string    `json:"report"`
	Transcript []Message `json:"transcript,omitempty"`
}

// Duration returns how long the interview ran.
func (i *Interview) Duration() time.Duration {
	if i.EndedAt.Before(i.StartedAt) {
		return 0
	}
	return i.EndedAt.Sub(i.StartedAt)
}
