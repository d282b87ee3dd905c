package packager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLayout_PrepareOutputDir(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)

	dir, err := l.PrepareOutputDir("sample-42")
	if err != nil {
		t.Fatalf("PrepareOutputDir: %v", err)
	}
	if dir != filepath.Join(root, "sample-42") {
		t.Errorf("dir = %q, want %q", dir, filepath.Join(root, "sample-42"))
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
}

func TestLayout_PrepareOutputDir_idempotent(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)

	first, err := l.PrepareOutputDir("sample-42")
	if err != nil {
		t.Fatalf("first PrepareOutputDir: %v", err)
	}
	second, err := l.PrepareOutputDir("sample-42")
	if err != nil {
		t.Fatalf("second PrepareOutputDir: %v", err)
	}
	if first != second {
		t.Errorf("same id produced two directories: %q vs %q", first, second)
	}
}

func TestLayout_PrepareOutputDir_deterministic(t *testing.T) {
	l := NewLayout("/srv/videos")
	if l.OutputDir("a") != l.OutputDir("a") {
		t.Error("OutputDir is not deterministic")
	}
	if l.OutputDir("a") == l.OutputDir("b") {
		t.Error("distinct ids must map to distinct directories")
	}
}

func TestLayout_PrepareOutputDir_storage_error(t *testing.T) {
	// Root is a regular file, so creating a subdirectory must fail.
	root := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLayout(root)

	_, err := l.PrepareOutputDir("sample-42")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
}

func TestPaths(t *testing.T) {
	dir := filepath.Join("out", "sample-42")
	if got := PlaylistPath(dir, "720p"); got != filepath.Join(dir, "720p.m3u8") {
		t.Errorf("PlaylistPath = %q", got)
	}
	if got := ManifestPath(dir); got != filepath.Join(dir, "master.m3u8") {
		t.Errorf("ManifestPath = %q", got)
	}
	if got := SegmentPattern(dir, "720p"); got != filepath.Join(dir, "720p_%03d.ts") {
		t.Errorf("SegmentPattern = %q", got)
	}
}
