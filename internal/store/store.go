// Package store provides persistence for finished interviews.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Sujithrt/interview-prep/internal/domain"
)

// ErrNotFound is returned when an interview does not exist.
var ErrNotFound = errors.New("interview not found")

// Repository defines the interface for the interview archive.
type Repository interface {
	// SaveInterview inserts or replaces an archived interview.
	SaveInterview(ctx context.Context, iv *domain.Interview) error

	// GetInterview retrieves one interview including its transcript.
	GetInterview(ctx context.Context, id string) (*domain.Interview, error)

	// ListInterviews returns the most recent interviews without transcripts.
	ListInterviews(ctx context.Context, limit int) ([]*domain.Interview, error)

	// DeleteOlderThan removes interviews that ended before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
