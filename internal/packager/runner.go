package packager

import (
	"context"
	"log/slog"
	"time"

	"hls-packager/internal/platform/metrics"
)

// JobRunner executes single rendition encode attempts against an Engine.
// It performs exactly one attempt per invocation; retry policy, if any,
// belongs to the caller.
type JobRunner struct {
	engine  Engine
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewJobRunner returns a JobRunner bound to the given engine. timeout bounds
// each encode attempt; zero means unbounded. Metrics may be nil to disable
// metric recording (e.g. in tests).
func NewJobRunner(engine Engine, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *JobRunner {
	return &JobRunner{engine: engine, timeout: timeout, log: log, metrics: m}
}

// Run executes one rendition's encode and returns its value-typed outcome.
// Engine errors are captured in the outcome, never propagated as the return
// of the job boundary itself.
func (r *JobRunner) Run(ctx context.Context, asset Asset, spec RenditionSpec) RenditionOutcome {
	job := NewRenditionJob(asset, spec)
	job.advance(StateRunning, "")

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.log.Info("encode starting",
		slog.String("asset_id", string(asset.ID)),
		slog.String("rendition", spec.Label),
		slog.String("resolution", spec.Resolution()),
		slog.Int("bitrate_kbps", spec.BitrateKbps),
	)

	if r.metrics != nil {
		r.metrics.JobStarted()
	}
	start := time.Now()

	err := r.engine.Encode(ctx, EncodeJob{
		InputPath:      asset.InputPath,
		PlaylistPath:   job.PlaylistPath,
		SegmentPattern: SegmentPattern(asset.OutputDir, spec.Label),
		Width:          spec.Width,
		Height:         spec.Height,
		BitrateKbps:    spec.BitrateKbps,
		SegmentSeconds: SegmentSeconds,
	})
	dur := time.Since(start)

	if err != nil {
		job.advance(StateFailed, err.Error())
		if r.metrics != nil {
			r.metrics.JobFinished("failed", dur)
		}
		r.log.Warn("encode failed",
			slog.String("asset_id", string(asset.ID)),
			slog.String("rendition", spec.Label),
			slog.String("error", err.Error()),
			slog.Int("duration_ms", int(dur.Milliseconds())),
		)
		return RenditionOutcome{
			Spec: spec,
			Err:  &EncodeError{Label: spec.Label, Reason: err.Error(), Err: err},
		}
	}

	job.advance(StateSucceeded, "")
	if r.metrics != nil {
		r.metrics.JobFinished("succeeded", dur)
	}
	r.log.Info("encode finished",
		slog.String("asset_id", string(asset.ID)),
		slog.String("rendition", spec.Label),
		slog.Int("duration_ms", int(dur.Milliseconds())),
	)
	return RenditionOutcome{Spec: spec, PlaylistPath: job.PlaylistPath}
}
