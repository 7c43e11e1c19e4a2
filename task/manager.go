package task

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"uniqueizer/config"
	"uniqueizer/ffmpeg"

	"github.com/lithammer/shortuuid/v4"
)

// Encoder produces one output copy from the input under a recipe. The
// returned string is the encoder's combined output, kept for diagnostics.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, recipe ffmpeg.Recipe) (string, error)
}

// Archiver bundles a task's produced files into a single container and
// returns the container's base name.
type Archiver interface {
	Build(taskID, dir string, filenames []string) (string, error)
}

type Manager struct {
	cfg      *config.Config
	store    *Store
	encoder  Encoder
	archiver Archiver

	// encodeSem bounds the number of concurrent external encoder
	// processes across all tasks.
	encodeSem chan struct{}
	runCtx    context.Context
	wg        sync.WaitGroup
}

func NewManager(cfg *config.Config, encoder Encoder, archiver Archiver) (*Manager, error) {
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{
		cfg:       cfg,
		store:     NewStore(),
		encoder:   encoder,
		archiver:  archiver,
		encodeSem: make(chan struct{}, concurrency),
		runCtx:    context.Background(),
	}, nil
}

// Start attaches the manager to its lifecycle context and launches the
// retention sweeper loop. Runs spawned by Submit inherit this context, so
// canceling it aborts in-flight encodes.
func (m *Manager) Start(ctx context.Context) {
	m.runCtx = ctx
	log.Println("Task manager started. Encode concurrency limit:", cap(m.encodeSem))
	go m.sweepLoop(ctx)
}

// Wait blocks until every in-flight run has left its task in a terminal
// state. Called during shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Submit registers a new task and starts its run. Submission is
// fire-and-forget: the caller gets the initial snapshot immediately and
// polls for progress; run errors are recorded on the task, never returned
// here.
func (m *Manager) Submit(inputPath string, copies int, format string) Task {
	id := shortuuid.New()
	t := &Task{
		ID:           id,
		Status:       StatusProcessing,
		Total:        copies,
		Files:        []string{},
		WorkingDir:   filepath.Join(m.cfg.OutputDir, id),
		InputPath:    inputPath,
		OutputFormat: format,
	}
	m.store.Create(t)

	// Snapshot before spawning the run: once the goroutine is live the
	// record may only be read through the store lock.
	snap := t.snapshot()
	m.wg.Add(1)
	go m.run(snap)

	log.Printf("Task %s submitted: %d copies, format %s", id, copies, format)
	return snap
}

// run drives one task from submission to a terminal state. Whatever
// happens, the task ends completed or failed and the input file is removed
// exactly once.
func (m *Manager) run(t Task) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Task %s panicked: %v", t.ID, r)
			m.store.Fail(t.ID, fmt.Sprintf("internal error: %v", r))
		}
		removeQuietly(t.InputPath)
	}()

	if err := m.runCopies(m.runCtx, t); err != nil {
		log.Printf("Task %s failed: %v", t.ID, err)
		m.store.Fail(t.ID, err.Error())
		return
	}
	m.store.Complete(t.ID)
	log.Printf("Task %s completed", t.ID)
}

func (m *Manager) runCopies(ctx context.Context, t Task) error {
	if err := os.MkdirAll(t.WorkingDir, 0o755); err != nil {
		return fmt.Errorf("could not create working directory: %w", err)
	}

	gen := ffmpeg.NewRecipeGenerator(t.ID)

	for i := 1; i <= t.Total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		recipe := gen.Generate(i, t.Total)
		outputName := fmt.Sprintf("video_%03d.%s", i, t.OutputFormat)
		outputPath := filepath.Join(t.WorkingDir, outputName)

		m.encodeSem <- struct{}{}
		_, err := m.encoder.Encode(ctx, t.InputPath, outputPath, recipe)
		<-m.encodeSem

		if err != nil {
			// The attempt still counts toward progress; the batch
			// continues with the next copy.
			log.Printf("Task %s: copy %d/%d failed: %v", t.ID, i, t.Total, err)
			m.store.RecordAttempt(t.ID, "")
		} else {
			m.store.RecordAttempt(t.ID, outputName)
		}

		// Short pause between copies to bound system load.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.CopyPause):
		}
	}

	current, ok := m.store.Get(t.ID)
	if !ok {
		// Deleted out from under us (sweeper or explicit delete); nothing
		// left to archive.
		return nil
	}
	if len(current.Files) > 0 {
		archiveName, err := m.archiver.Build(t.ID, t.WorkingDir, current.Files)
		if err != nil {
			// Completed-without-archive is a valid, if degraded,
			// terminal state.
			log.Printf("Task %s: archive build failed: %v", t.ID, err)
		} else {
			m.store.SetArchive(t.ID, archiveName)
		}
	}
	return nil
}

// Get returns a snapshot of the task, refreshing its access time.
func (m *Manager) Get(id string) (Task, bool) {
	return m.store.Get(id)
}

// Result returns the task snapshot once it has completed.
func (m *Manager) Result(id string) (Task, error) {
	t, ok := m.store.Get(id)
	if !ok {
		return Task{}, ErrNotFound
	}
	if t.Status != StatusCompleted {
		return t, fmt.Errorf("%w: status is %s", ErrNotCompleted, t.Status)
	}
	return t, nil
}

// ArchivePath resolves the on-disk path of a completed task's archive.
func (m *Manager) ArchivePath(id string) (string, error) {
	t, err := m.Result(id)
	if err != nil {
		return "", err
	}
	if t.ArchiveName == "" {
		return "", ErrNoArchive
	}
	path := filepath.Join(t.WorkingDir, t.ArchiveName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: missing on disk", ErrNoArchive)
	}
	return path, nil
}

// FilePath resolves the on-disk path of one produced file, rejecting
// filenames that would escape the task's working directory.
func (m *Manager) FilePath(id, filename string) (string, error) {
	if filepath.Base(filename) != filename {
		return "", ErrInvalidFilename
	}
	t, ok := m.store.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	path := filepath.Join(t.WorkingDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}

// Delete removes a task's working directory and record unconditionally and
// reports the bytes freed. Unknown ids are not an error: the directory may
// outlive the record (or vice versa) and both ends get cleaned here.
func (m *Manager) Delete(id string) int64 {
	dir := filepath.Join(m.cfg.OutputDir, id)
	freed, _ := dirStats(dir)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("Error removing directory for task %s: %v", id, err)
		freed = 0
	}
	if _, ok := m.store.Delete(id); ok {
		log.Printf("Deleted task %s, freed %d bytes", id, freed)
	}
	return freed
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Error removing input file %s: %v", path, err)
	}
}
