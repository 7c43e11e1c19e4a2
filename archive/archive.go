// Package archive bundles the produced copies of one task into a single
// zip container.
package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// compressionLevel is a fixed mid-range deflate setting. The members are
// already-compressed video, so heavier levels cost CPU for almost no gain.
const compressionLevel = 5

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build writes dir/videos_<taskID>.zip containing the listed files and
// returns the archive's base name. Files that vanished from dir between
// encoding and archiving are skipped and logged, not fatal. After writing,
// the container is re-opened to confirm the member count matches what was
// added; a corrupt-but-readable container would still pass this check.
func (b *Builder) Build(taskID, dir string, filenames []string) (string, error) {
	archiveName := fmt.Sprintf("videos_%s.zip", taskID)
	archivePath := filepath.Join(dir, archiveName)

	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("could not create archive file: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	added := 0
	for _, name := range filenames {
		if err := addMember(zw, dir, name); err != nil {
			if os.IsNotExist(err) {
				log.Printf("Skipping vanished file while archiving task %s: %s", taskID, name)
				continue
			}
			zw.Close()
			f.Close()
			os.Remove(archivePath)
			return "", fmt.Errorf("could not add %s to archive: %w", name, err)
		}
		added++
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("could not finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("could not close archive file: %w", err)
	}

	if err := verifyMemberCount(archivePath, added); err != nil {
		os.Remove(archivePath)
		return "", err
	}

	log.Printf("Archive for task %s contains %d files", taskID, added)
	return archiveName, nil
}

func addMember(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func verifyMemberCount(archivePath string, want int) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("archive verification failed: %w", err)
	}
	defer zr.Close()

	if got := len(zr.File); got != want {
		return fmt.Errorf("archive verification failed: expected %d members, found %d", want, got)
	}
	return nil
}
