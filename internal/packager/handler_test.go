package packager

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func newTestHandler(t *testing.T, eng Engine, cfg Config) *Handler {
	t.Helper()
	orch := newTestOrchestrator(t.TempDir(), eng, cfg)
	return NewHandler(orch, t.TempDir(), testLogger(), nil)
}

func TestHandler_Upload_success(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{}, defaultConfig())

	body, contentType := multipartBody(t, "video", "My Clip.mp4", "fake video bytes")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Message   string   `json:"message"`
		StreamURL string   `json:"streamUrl"`
		Degraded  []string `json:"degraded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.StreamURL, "http://localhost:8080/videos/My-Clip-") {
		t.Errorf("streamUrl = %q, want sanitized asset id prefix", resp.StreamURL)
	}
	if !strings.HasSuffix(resp.StreamURL, "/master.m3u8") {
		t.Errorf("streamUrl = %q, want master manifest suffix", resp.StreamURL)
	}
	if len(resp.Degraded) != 0 {
		t.Errorf("degraded = %v, want none", resp.Degraded)
	}
}

func TestHandler_Upload_degraded(t *testing.T) {
	eng := &fakeEngine{fail: map[string]string{"1080p": "encoder crashed"}}
	h := newTestHandler(t, eng, defaultConfig())

	body, contentType := multipartBody(t, "video", "clip.mp4", "x")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Degraded []string `json:"degraded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Degraded) != 1 || resp.Degraded[0] != "1080p" {
		t.Errorf("degraded = %v, want [1080p]", resp.Degraded)
	}
}

func TestHandler_Upload_aggregate_failure(t *testing.T) {
	eng := &fakeEngine{fail: map[string]string{
		"360p": "crash a", "720p": "crash b", "1080p": "crash c",
	}}
	h := newTestHandler(t, eng, defaultConfig())

	body, contentType := multipartBody(t, "video", "clip.mp4", "x")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp struct {
		Failures map[string]string `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Failures["720p"] != "crash b" {
		t.Errorf("failures = %v", resp.Failures)
	}
}

func TestHandler_Upload_missing_file(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{}, defaultConfig())

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeriveAssetID(t *testing.T) {
	id := DeriveAssetID("../weird name!!.mp4")
	s := string(id)
	if !strings.HasPrefix(s, "weird-name-") {
		t.Errorf("id = %q, want sanitized prefix", s)
	}
	if strings.ContainsAny(s, "/\\!. ") {
		t.Errorf("id = %q contains unsafe characters", s)
	}
	if id == DeriveAssetID("../weird name!!.mp4") {
		t.Error("two uploads of the same filename must get distinct ids")
	}
}

func TestSanitizeName_empty(t *testing.T) {
	if sanitizeName("!!!") != "asset" {
		t.Errorf("sanitizeName fallback = %q", sanitizeName("!!!"))
	}
}
