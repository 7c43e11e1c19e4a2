package task

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// sweepLoop runs the retention sweep on a fixed interval until the
// manager's context is canceled.
func (m *Manager) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention sweeper shutting down.")
			return
		case <-ticker.C:
			removed, freed := m.Sweep(m.cfg.RetentionAge)
			if removed > 0 {
				log.Printf("Scheduled sweep removed %d tasks, freed %d bytes", removed, freed)
			}
		}
	}
}

// Sweep reclaims everything older than the given age: stale in-memory tasks
// with their working directories, orphaned output directories left behind
// by a prior process lifetime, and stale files in the upload area. It
// returns the number of tasks removed and the bytes freed. Individual
// deletion failures are logged and skipped, never aborting the sweep.
func (m *Manager) Sweep(age time.Duration) (int, int64) {
	cutoff := time.Now().Add(-age)
	removed := 0
	var freed int64

	// Stale tasks: directory and record go together. If the directory
	// cannot be removed the record is kept so a later sweep retries.
	for _, t := range m.store.Snapshot() {
		if !t.LastAccessedAt.Before(cutoff) {
			continue
		}
		size, _ := dirStats(t.WorkingDir)
		if err := os.RemoveAll(t.WorkingDir); err != nil {
			log.Printf("Error removing working directory of task %s: %v", t.ID, err)
			continue
		}
		m.store.Delete(t.ID)
		removed++
		freed += size
		log.Printf("Reclaimed stale task %s, freed %d bytes", t.ID, size)
	}

	// Orphaned output directories, judged by on-disk modification time
	// since no record survives a restart.
	entries, err := os.ReadDir(m.cfg.OutputDir)
	if err != nil {
		log.Printf("Error scanning output directory: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() || m.store.Contains(e.Name()) {
			continue
		}
		dir := filepath.Join(m.cfg.OutputDir, e.Name())
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		size, _ := dirStats(dir)
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("Error removing orphaned directory %s: %v", dir, err)
			continue
		}
		removed++
		freed += size
		log.Printf("Reclaimed orphaned directory %s, freed %d bytes", e.Name(), size)
	}

	// Stale uploads: files whose job never ran or crashed before cleanup.
	uploads, err := os.ReadDir(m.cfg.UploadDir)
	if err != nil {
		log.Printf("Error scanning upload directory: %v", err)
	}
	for _, e := range uploads {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(m.cfg.UploadDir, e.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("Error removing stale upload %s: %v", path, err)
			continue
		}
		freed += info.Size()
		log.Printf("Reclaimed stale upload %s", e.Name())
	}

	return removed, freed
}
