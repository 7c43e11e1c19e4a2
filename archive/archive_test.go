package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func memberNames(t *testing.T, archivePath string) []string {
	t.Helper()
	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video_001.mp4", "first copy payload")
	writeFile(t, dir, "video_002.mp4", "second copy payload")

	b := NewBuilder()
	name, err := b.Build("task1", dir, []string{"video_001.mp4", "video_002.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "videos_task1.zip", name)

	got := memberNames(t, filepath.Join(dir, name))
	assert.Equal(t, []string{"video_001.mp4", "video_002.mp4"}, got)
}

func TestBuilder_SkipsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video_001.mp4", "still here")

	b := NewBuilder()
	name, err := b.Build("task2", dir, []string{"video_001.mp4", "video_002.mp4"})
	require.NoError(t, err)

	got := memberNames(t, filepath.Join(dir, name))
	assert.Equal(t, []string{"video_001.mp4"}, got)
}

func TestBuilder_ArchiveReadableAndContentIntact(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video_001.mp4", "payload")

	b := NewBuilder()
	name, err := b.Build("task3", dir, []string{"video_001.mp4"})
	require.NoError(t, err)

	zr, err := zip.OpenReader(filepath.Join(dir, name))
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 16)
	n, _ := rc.Read(buf)
	assert.Equal(t, "payload", string(buf[:n]))
}

func TestBuilder_MissingDirectory(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build("task4", "/nonexistent/dir", []string{"video_001.mp4"})
	assert.Error(t, err)
}
