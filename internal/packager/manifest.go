package packager

import (
	"fmt"
	"os"
	"strings"
)

// BuildMasterManifest renders the master HLS playlist for the given entries:
// a header declaring the format version, then one stream stanza per entry.
// Entry order is preserved verbatim; the caller supplies spec-table order.
// An empty entries slice produces a header-only manifest.
func BuildMasterManifest(entries []ManifestEntry) string {
	var b strings.Builder

	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n",
			e.BitrateKbps*1000, e.Width, e.Height)
		b.WriteString(e.PlaylistName)
		b.WriteString("\n")
	}

	return b.String()
}

// WriteMasterManifest writes the master manifest for the given entries to
// <outputDir>/master.m3u8, overwriting any existing file at that path, and
// returns the manifest path. Failures surface as *StorageError.
func WriteMasterManifest(outputDir string, entries []ManifestEntry) (string, error) {
	path := ManifestPath(outputDir)
	if err := os.WriteFile(path, []byte(BuildMasterManifest(entries)), 0o644); err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	return path, nil
}
