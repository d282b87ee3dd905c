package packager

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"hls-packager/internal/platform/metrics"
)

// FailurePolicy decides how per-rendition failures compose into the overall
// result of one asset.
type FailurePolicy int

const (
	// PolicyBestEffort writes the manifest from the successful subset of
	// renditions, reports the rest as degraded, and fails only when zero
	// renditions succeed.
	PolicyBestEffort FailurePolicy = iota

	// PolicyAllOrNothing treats any single rendition failure as total
	// failure: no manifest is written. Partial rendition files are left on
	// disk; callers must not assume the output directory is empty after a
	// failed result.
	PolicyAllOrNothing
)

// ParseFailurePolicy maps a configuration string to a FailurePolicy.
// "all-or-nothing" selects the legacy policy; anything else is best-effort.
func ParseFailurePolicy(s string) FailurePolicy {
	if s == "all-or-nothing" {
		return PolicyAllOrNothing
	}
	return PolicyBestEffort
}

// Config is the orchestrator's per-deployment configuration: the ordered
// rendition ladder, the public base URL for stream links, the failure
// policy, and an optional cap on concurrently running encodes (0 = one per
// rendition, uncapped).
type Config struct {
	Specs                []RenditionSpec
	BaseURL              string
	Policy               FailurePolicy
	MaxConcurrentEncodes int
}

// Orchestrator fans out one encode job per configured rendition for an
// asset, waits for every job to reach a terminal state, classifies the
// aggregate outcome, and assembles the master manifest.
type Orchestrator struct {
	layout  *Layout
	runner  *JobRunner
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator returns an Orchestrator using the given layout, runner,
// and configuration. Metrics may be nil to disable metric recording.
func NewOrchestrator(layout *Layout, runner *JobRunner, cfg Config, log *slog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{layout: layout, runner: runner, cfg: cfg, log: log, metrics: m}
}

// ProcessAsset runs the full pipeline for one asset: prepare the output
// directory, encode every configured rendition concurrently, wait for all
// of them, and write the master manifest according to the failure policy.
//
// The returned error is a *StorageError if the output directory or manifest
// could not be written (no jobs are dispatched after a directory failure),
// or an *AggregateFailure when the policy classifies the run as failed. In
// both failure cases the result still carries every rendition outcome
// collected so far.
func (o *Orchestrator) ProcessAsset(ctx context.Context, inputPath string, assetID AssetID) (*OrchestrationResult, error) {
	outputDir, err := o.layout.PrepareOutputDir(assetID)
	if err != nil {
		return nil, err
	}

	asset := Asset{ID: assetID, InputPath: inputPath, OutputDir: outputDir}
	result := &OrchestrationResult{
		AssetID:   assetID,
		OutputDir: outputDir,
		Outcomes:  make([]RenditionOutcome, len(o.cfg.Specs)),
	}

	o.log.Info("asset processing started",
		slog.String("asset_id", string(assetID)),
		slog.String("input", inputPath),
		slog.Int("renditions", len(o.cfg.Specs)),
	)

	// Fan out one job per spec. Jobs share no mutable state: each writes to
	// its own slot and its own output sub-paths. The group is a pure
	// barrier; job errors are carried as outcome values, so a failing
	// rendition never cancels its siblings and every dispatched encode runs
	// to its own terminal state.
	var g errgroup.Group
	if o.cfg.MaxConcurrentEncodes > 0 {
		g.SetLimit(o.cfg.MaxConcurrentEncodes)
	}
	for i, spec := range o.cfg.Specs {
		i, spec := i, spec
		g.Go(func() error {
			result.Outcomes[i] = o.runner.Run(ctx, asset, spec)
			return nil
		})
	}
	_ = g.Wait()

	return o.classify(result)
}

// classify applies the failure policy to the collected outcomes and, when
// the run counts as successful, writes the master manifest from the
// successful renditions in spec-table order.
func (o *Orchestrator) classify(result *OrchestrationResult) (*OrchestrationResult, error) {
	var entries []ManifestEntry
	for _, out := range result.Outcomes {
		if out.Succeeded() {
			entries = append(entries, newManifestEntry(out))
		}
	}
	failures := result.Failures()

	switch o.cfg.Policy {
	case PolicyAllOrNothing:
		if len(failures) > 0 {
			o.log.Error("asset processing failed",
				slog.String("asset_id", string(result.AssetID)),
				slog.Int("failed_renditions", len(failures)),
			)
			return result, &AggregateFailure{Failures: failures}
		}
	default: // PolicyBestEffort
		if len(o.cfg.Specs) > 0 && len(entries) == 0 {
			o.log.Error("asset processing failed, no rendition succeeded",
				slog.String("asset_id", string(result.AssetID)),
			)
			return result, &AggregateFailure{Failures: failures}
		}
		for _, f := range failures {
			result.Degraded = append(result.Degraded, f.Spec.Label)
		}
	}

	manifestPath, err := WriteMasterManifest(result.OutputDir, entries)
	if err != nil {
		return result, err
	}
	if o.metrics != nil {
		o.metrics.IncManifestsWritten()
	}

	result.ManifestPath = manifestPath
	result.StreamURL = StreamURL(o.cfg.BaseURL, result.AssetID)

	o.log.Info("asset processing finished",
		slog.String("asset_id", string(result.AssetID)),
		slog.String("manifest", manifestPath),
		slog.Int("renditions", len(entries)),
		slog.Int("degraded", len(result.Degraded)),
	)
	return result, nil
}

// StreamURL returns the public playback URL for an asset's master manifest,
// as served by the static /videos file route.
func StreamURL(baseURL string, id AssetID) string {
	return baseURL + "/videos/" + string(id) + "/" + masterManifestName
}
