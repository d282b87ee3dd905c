package packager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fakeEngine is a test double for Engine. Successful encodes write an empty
// rendition playlist so on-disk assertions hold; labels present in fail
// return the mapped reason instead. started (if non-nil) receives one value
// per Encode call before any blocking; release (if non-nil) blocks each
// Encode until it is closed or the context ends.
type fakeEngine struct {
	fail    map[string]string
	started chan struct{}
	release chan struct{}

	mu   sync.Mutex
	jobs []EncodeJob
}

func (e *fakeEngine) Encode(ctx context.Context, job EncodeJob) error {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()

	if e.started != nil {
		e.started <- struct{}{}
	}
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	label := strings.TrimSuffix(filepath.Base(job.PlaylistPath), ".m3u8")
	if reason, ok := e.fail[label]; ok {
		return errors.New(reason)
	}
	return os.WriteFile(job.PlaylistPath, []byte("#EXTM3U\n"), 0o644)
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}
