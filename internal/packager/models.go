package packager

import (
	"fmt"
	"strings"
	"sync"
)

// AssetID uniquely identifies one uploaded input asset. It is derived from
// the upload filename and must already be filesystem-safe; it doubles as the
// asset's output directory name.
type AssetID string

// Asset is one uploaded input owned by the orchestrator for the duration of
// processing. It is never mutated after creation.
type Asset struct {
	ID        AssetID
	InputPath string
	OutputDir string
}

// RenditionSpec is one immutable entry of the rendition ladder: a label
// (e.g. "720p"), a target resolution, and a target video bitrate in kbps.
// The spec table is fixed at startup; its order defines manifest ordering.
type RenditionSpec struct {
	Label       string
	Width       int
	Height      int
	BitrateKbps int
}

// Resolution returns the spec's resolution in "WxH" form as used by both
// ffmpeg and the master manifest.
func (s RenditionSpec) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Bandwidth returns the manifest BANDWIDTH value in bits per second.
func (s RenditionSpec) Bandwidth() int {
	return s.BitrateKbps * 1000
}

// JobState is the lifecycle state of a RenditionJob.
type JobState int

const (
	StatePending JobState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether the state admits no further transitions.
func (s JobState) terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// RenditionJob is one encode attempt for a (Asset, RenditionSpec) pair.
// Its state is monotonic: Pending -> Running -> {Succeeded | Failed}.
// Terminal states are final; there is no retry within a request.
type RenditionJob struct {
	Asset        Asset
	Spec         RenditionSpec
	PlaylistPath string

	mu     sync.Mutex
	state  JobState
	reason string
}

// NewRenditionJob creates a Pending job whose playlist path is derived from
// the asset's output directory and the spec label.
func NewRenditionJob(asset Asset, spec RenditionSpec) *RenditionJob {
	return &RenditionJob{
		Asset:        asset,
		Spec:         spec,
		PlaylistPath: PlaylistPath(asset.OutputDir, spec.Label),
	}
}

// State returns the job's current state and, for Failed, the reason.
func (j *RenditionJob) State() (JobState, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, j.reason
}

// advance moves the job to the given state. Transitions out of a terminal
// state and backwards transitions are rejected, returning false.
func (j *RenditionJob) advance(to JobState, reason string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.terminal() || to <= j.state {
		return false
	}
	j.state = to
	if to == StateFailed {
		j.reason = reason
	}
	return true
}

// RenditionOutcome is the value-typed result of one encode attempt. Err is
// nil on success, in which case PlaylistPath points at the written rendition
// playlist; otherwise Err is an *EncodeError.
type RenditionOutcome struct {
	Spec         RenditionSpec
	PlaylistPath string
	Err          error
}

// Succeeded reports whether the encode completed cleanly.
func (o RenditionOutcome) Succeeded() bool {
	return o.Err == nil
}

// ManifestEntry is the read-only projection of a succeeded rendition used to
// render one stream stanza of the master manifest. PlaylistName is the
// playlist filename relative to the asset's output directory.
type ManifestEntry struct {
	Label        string
	BitrateKbps  int
	Width        int
	Height       int
	PlaylistName string
}

// newManifestEntry projects a succeeded outcome into a manifest entry.
func newManifestEntry(o RenditionOutcome) ManifestEntry {
	return ManifestEntry{
		Label:        o.Spec.Label,
		BitrateKbps:  o.Spec.BitrateKbps,
		Width:        o.Spec.Width,
		Height:       o.Spec.Height,
		PlaylistName: o.Spec.Label + playlistSuffix,
	}
}

// OrchestrationResult is the aggregate outcome of processing one asset.
// Outcomes holds every rendition's terminal outcome in spec-table order.
// On success ManifestPath and StreamURL are set; Degraded lists the labels
// of renditions that failed under the best-effort policy.
type OrchestrationResult struct {
	AssetID      AssetID
	OutputDir    string
	ManifestPath string
	StreamURL    string
	Outcomes     []RenditionOutcome
	Degraded     []string
}

// Failures returns the outcomes that did not succeed, in spec-table order.
func (r *OrchestrationResult) Failures() []RenditionOutcome {
	var failed []RenditionOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// StorageError reports that the output filesystem could not be prepared or
// written. It is fatal for the request: no encode jobs run after one.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// EncodeError reports that one rendition's codec engine invocation failed.
// It is captured per job and never thrown past the job boundary.
type EncodeError struct {
	Label  string
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Label, e.Reason)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// AggregateFailure is the orchestrator's overall failure result: the set of
// renditions that ended in EncodeError, in spec-table order.
type AggregateFailure struct {
	Failures []RenditionOutcome
}

func (e *AggregateFailure) Error() string {
	labels := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		labels = append(labels, f.Spec.Label)
	}
	return fmt.Sprintf("renditions failed: %s", strings.Join(labels, ", "))
}
