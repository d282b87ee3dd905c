package packager

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hls-packager/internal/platform/metrics"
)

const uploadFieldName = "video"

// Handler exposes the packager's HTTP endpoints.
type Handler struct {
	orch      *Orchestrator
	uploadDir string
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewHandler returns a Handler that stages uploads under uploadDir and
// processes them with the given Orchestrator. Metrics may be nil to disable
// metric recording (e.g. in tests).
func NewHandler(orch *Orchestrator, uploadDir string, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{orch: orch, uploadDir: uploadDir, log: log, metrics: m}
}

type uploadResponse struct {
	Message   string   `json:"message"`
	StreamURL string   `json:"streamUrl"`
	Degraded  []string `json:"degraded,omitempty"`
}

type errorResponse struct {
	Error    string            `json:"error"`
	Failures map[string]string `json:"failures,omitempty"`
}

// Upload handles POST /upload. It expects a multipart form with a "video"
// file field, stages the file, runs the full packaging pipeline, and
// responds with the playable stream URL. Processing is synchronous: the
// response is written only once every rendition has reached a terminal
// state.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.log.Debug("missing upload file field", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no video file uploaded"})
		return
	}
	defer file.Close()

	assetID := DeriveAssetID(header.Filename)
	inputPath, err := h.stageUpload(file, header.Filename, assetID)
	if err != nil {
		h.log.Error("staging upload failed",
			slog.String("asset_id", string(assetID)),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not store upload"})
		return
	}

	if h.metrics != nil {
		h.metrics.IncUploads()
	}
	h.log.Info("upload received",
		slog.String("asset_id", string(assetID)),
		slog.String("filename", header.Filename),
	)

	result, err := h.orch.ProcessAsset(r.Context(), inputPath, assetID)
	if err != nil {
		var agg *AggregateFailure
		if errors.As(err, &agg) {
			failures := make(map[string]string, len(agg.Failures))
			for _, f := range agg.Failures {
				var encErr *EncodeError
				if errors.As(f.Err, &encErr) {
					failures[encErr.Label] = encErr.Reason
				} else {
					failures[f.Spec.Label] = f.Err.Error()
				}
			}
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Failures: failures})
			return
		}
		h.log.Error("processing failed",
			slog.String("asset_id", string(assetID)),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "processing failed"})
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:   "video processed",
		StreamURL: result.StreamURL,
		Degraded:  result.Degraded,
	})
}

// stageUpload writes the received file into the upload directory, named
// after the asset id with the original extension preserved.
func (h *Handler) stageUpload(src io.Reader, filename string, id AssetID) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.uploadDir, string(id)+filepath.Ext(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}

// DeriveAssetID builds a filesystem-safe, collision-resistant asset id from
// an upload filename: the sanitized base name plus a random suffix, so two
// uploads of the same filename never share an output directory.
func DeriveAssetID(filename string) AssetID {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = sanitizeName(base)
	return AssetID(base + "-" + uuid.NewString()[:8])
}

// sanitizeName strips everything but letters, digits, '-' and '_' from a
// name, mapping spaces to hyphens. An empty result falls back to "asset".
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "asset"
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
