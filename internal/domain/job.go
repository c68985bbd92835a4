package domain

// JobStatus is the lifecycle state of a remote transcription job.
type JobStatus string

// Transcription job statuses.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further status change is expected.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// TranscriptionJob tracks one speech-recognition job for one turn.
type TranscriptionJob struct {
	Name          string
	TurnID        string
	SourceKey     string
	ResultKey     string
	Status        JobStatus
	FailureReason string
}
