package packager

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentSeconds is the fixed HLS segment duration for all renditions.
// Playlists are unbounded (VOD style), not a live sliding window.
const SegmentSeconds = 10

// DefaultRenditionSpecs returns the built-in rendition ladder. Order is
// significant: it defines the stanza order of the master manifest.
func DefaultRenditionSpecs() []RenditionSpec {
	return []RenditionSpec{
		{Label: "360p", Width: 640, Height: 360, BitrateKbps: 800},
		{Label: "720p", Width: 1280, Height: 720, BitrateKbps: 2500},
		{Label: "1080p", Width: 1920, Height: 1080, BitrateKbps: 5000},
	}
}

// ParseRenditionSpecs parses a comma-separated ladder of the form
// "label:WxH:kbps", e.g. "360p:640x360:800,720p:1280x720:2500".
// Order is preserved. An empty string yields an empty (valid) ladder.
func ParseRenditionSpecs(s string) ([]RenditionSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var specs []RenditionSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("rendition %q: want label:WxH:kbps", part)
		}

		label := strings.TrimSpace(fields[0])
		if label == "" {
			return nil, fmt.Errorf("rendition %q: empty label", part)
		}

		w, h, ok := strings.Cut(strings.TrimSpace(fields[1]), "x")
		if !ok {
			return nil, fmt.Errorf("rendition %q: resolution %q: want WxH", part, fields[1])
		}
		width, err := strconv.Atoi(w)
		if err != nil || width <= 0 {
			return nil, fmt.Errorf("rendition %q: bad width %q", part, w)
		}
		height, err := strconv.Atoi(h)
		if err != nil || height <= 0 {
			return nil, fmt.Errorf("rendition %q: bad height %q", part, h)
		}

		kbps, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || kbps <= 0 {
			return nil, fmt.Errorf("rendition %q: bad bitrate %q", part, fields[2])
		}

		specs = append(specs, RenditionSpec{Label: label, Width: width, Height: height, BitrateKbps: kbps})
	}
	return specs, nil
}
