package packager

import (
	"os"
	"path/filepath"
)

const (
	playlistSuffix     = ".m3u8"
	masterManifestName = "master" + playlistSuffix
)

// Layout computes and creates the per-asset output directory structure under
// a fixed root:
//
//	<root>/<assetID>/
//	    360p.m3u8 (+ segments)
//	    ...
//	    master.m3u8
//
// Paths are a pure function of the asset identifier; PrepareOutputDir is the
// only side effect.
type Layout struct {
	root string
}

// NewLayout returns a Layout rooted at the given output directory.
func NewLayout(root string) *Layout {
	return &Layout{root: root}
}

// OutputDir returns the output directory path for the given asset without
// creating it.
func (l *Layout) OutputDir(id AssetID) string {
	return filepath.Join(l.root, string(id))
}

// PrepareOutputDir creates the asset's output directory (and parents) if
// absent. Calling it twice with the same id is a no-op; a *StorageError is
// returned if the filesystem is unwritable.
func (l *Layout) PrepareOutputDir(id AssetID) (string, error) {
	dir := l.OutputDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &StorageError{Path: dir, Err: err}
	}
	return dir, nil
}

// PlaylistPath returns the rendition playlist path for a label, e.g.
// <outputDir>/720p.m3u8.
func PlaylistPath(outputDir, label string) string {
	return filepath.Join(outputDir, label+playlistSuffix)
}

// SegmentPattern returns the ffmpeg segment filename pattern for a label,
// keeping each rendition's segments on a distinct sub-path so concurrent
// jobs never write the same file.
func SegmentPattern(outputDir, label string) string {
	return filepath.Join(outputDir, label+"_%03d.ts")
}

// ManifestPath returns the master manifest path for an output directory.
func ManifestPath(outputDir string) string {
	return filepath.Join(outputDir, masterManifestName)
}
