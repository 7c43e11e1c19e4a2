package task

import (
	"sync"
	"time"
)

// Store is the process-wide registry of task records. It is an explicitly
// owned, lock-guarded map with no persistence: a restart loses every record,
// and the directories it leaves behind are reclaimed by the sweeper's
// orphan scan. Every read or write touches LastAccessedAt, which is the
// basis for retention.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

func (s *Store) Create(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	t.CreatedAt = now
	t.LastAccessedAt = now
	s.tasks[t.ID] = t
}

// Get returns a snapshot of the task and refreshes its access time.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	t.LastAccessedAt = time.Now()
	return t.snapshot(), true
}

// RecordAttempt advances progress by one. A non-empty filename marks the
// attempt as successful and appends it to the produced-files list; an empty
// filename counts the attempt without producing a file.
func (s *Store) RecordAttempt(id, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	t.Progress++
	if filename != "" {
		t.Files = append(t.Files, filename)
	}
	t.LastAccessedAt = time.Now()
}

func (s *Store) SetArchive(id, archiveName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.ArchiveName = archiveName
		t.LastAccessedAt = time.Now()
	}
}

// Complete moves the task to its terminal completed state. Terminal states
// never regress, so a record that already failed stays failed.
func (s *Store) Complete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.Status != StatusProcessing {
		return
	}
	t.Status = StatusCompleted
	t.LastAccessedAt = time.Now()
}

func (s *Store) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.Status != StatusProcessing {
		return
	}
	t.Status = StatusFailed
	t.Error = message
	t.LastAccessedAt = time.Now()
}

// Delete removes the record and returns its last snapshot so the caller can
// clean up the on-disk working directory.
func (s *Store) Delete(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	delete(s.tasks, id)
	return t.snapshot(), true
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tasks[id]
	return ok
}

// Snapshot returns copies of all records without touching access times;
// the sweeper uses it to find stale entries.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.snapshot())
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
