package task

import (
	"errors"
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Caller-visible error conditions. Handlers branch on these with errors.Is,
// so each distinct not-found condition gets its own sentinel.
var (
	ErrNotFound        = errors.New("task not found")
	ErrNotCompleted    = errors.New("task not completed")
	ErrNoArchive       = errors.New("archive not available")
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Task is the record for one job. The canonical copy lives inside the Store
// and is only ever mutated under the store lock; everything handed out of
// the store is a snapshot.
type Task struct {
	ID             string    `json:"id"`
	Status         Status    `json:"status"`
	Progress       int       `json:"progress"`
	Total          int       `json:"total"`
	Files          []string  `json:"files"`
	ArchiveName    string    `json:"-"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"-"`
	WorkingDir     string    `json:"-"`
	InputPath      string    `json:"-"`
	OutputFormat   string    `json:"-"`
}

func (t *Task) snapshot() Task {
	c := *t
	c.Files = append([]string(nil), t.Files...)
	return c
}
