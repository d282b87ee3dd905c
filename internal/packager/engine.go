package packager

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// EncodeJob carries everything the codec engine needs to produce one
// rendition: input, output playlist and segment paths, and the encode
// parameters from the rendition spec.
type EncodeJob struct {
	InputPath      string
	PlaylistPath   string
	SegmentPattern string
	Width          int
	Height         int
	BitrateKbps    int
	SegmentSeconds int
}

// Engine is the invocation boundary around the external codec. Encode
// performs exactly one transcode attempt and blocks until the engine
// reaches a terminal state; the context bounds the attempt. Implementations
// write the rendition playlist and its segment files as a side effect.
type Engine interface {
	Encode(ctx context.Context, job EncodeJob) error
}

// FFmpegEngine invokes the ffmpeg binary as a black-box process, one
// process per rendition.
type FFmpegEngine struct {
	binPath string
	log     *slog.Logger
}

// NewFFmpegEngine locates the ffmpeg binary (on PATH if binPath is empty or
// a bare name) and returns an engine bound to it.
func NewFFmpegEngine(binPath string, log *slog.Logger) (*FFmpegEngine, error) {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	resolved, err := exec.LookPath(binPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found: %w", err)
	}
	return &FFmpegEngine{binPath: resolved, log: log}, nil
}

// Encode implements Engine by running one ffmpeg process to completion.
// A nonzero exit is reported with the tail of ffmpeg's stderr as the reason.
func (e *FFmpegEngine) Encode(ctx context.Context, job EncodeJob) error {
	args := buildEncodeArgs(job)

	e.log.Debug("ffmpeg starting",
		slog.String("input", job.InputPath),
		slog.String("playlist", job.PlaylistPath),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg aborted: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(&stderr, 5))
	}
	return nil
}

// buildEncodeArgs assembles the ffmpeg argument list for a VOD-style HLS
// encode: fixed segment duration, unbounded playlist, H.264 video scaled to
// the target resolution, AAC audio.
func buildEncodeArgs(job EncodeJob) []string {
	return []string{
		"-y",
		"-i", job.InputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", job.Width, job.Height),
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%dk", job.BitrateKbps),
		"-c:a", "aac",
		"-hls_time", fmt.Sprintf("%d", job.SegmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", job.SegmentPattern,
		"-f", "hls",
		job.PlaylistPath,
	}
}

// stderrTail returns the last n non-empty lines of captured stderr, which is
// where ffmpeg reports its actual failure cause.
func stderrTail(buf *bytes.Buffer, n int) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	return strings.Join(kept, " | ")
}
