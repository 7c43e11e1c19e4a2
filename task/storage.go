package task

import (
	"io/fs"
	"log"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

type StorageInfo struct {
	TotalBytes int64  `json:"totalSizeBytes"`
	FileCount  int    `json:"fileCount"`
	TaskCount  int    `json:"taskCount"`
	FreeDisk   uint64 `json:"freeDiskBytes"`
}

// StorageInfo aggregates disk usage of the output area plus the active
// task count and the free space left on the output volume.
func (m *Manager) StorageInfo() StorageInfo {
	total, files := dirStats(m.cfg.OutputDir)

	info := StorageInfo{
		TotalBytes: total,
		FileCount:  files,
		TaskCount:  m.store.Count(),
	}

	if d, err := disk.Usage(m.cfg.OutputDir); err != nil {
		log.Printf("Warning: could not get disk usage for %s: %v", m.cfg.OutputDir, err)
	} else {
		info.FreeDisk = d.Free
	}
	return info
}

// dirStats walks a directory tree and returns its total file size and file
// count. Missing or unreadable entries count as zero.
func dirStats(dir string) (int64, int) {
	var total int64
	count := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
			count++
		}
		return nil
	})
	return total, count
}
