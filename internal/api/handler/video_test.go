package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestVideoHandler_Info(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/videos/info?url=https://v/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp InfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Metadata.Title != "clip https://v/1" {
		t.Errorf("title = %q", resp.Metadata.Title)
	}
	if len(resp.Metadata.Qualities) != 2 {
		t.Errorf("qualities = %v", resp.Metadata.Qualities)
	}
}

func TestVideoHandler_Info_MissingURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/videos/info", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVideoHandler_Fetch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/videos?kind=model&query=https://creator.example.com&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp FetchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1 (limit)", resp.Count)
	}
}

func TestVideoHandler_Fetch_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
	}{
		{"bad kind", "/api/v1/videos?kind=nope&query=x"},
		{"missing query", "/api/v1/videos?kind=model"},
		{"bad limit", "/api/v1/videos?kind=model&query=x&limit=zero"},
		{"negative delay", "/api/v1/videos?kind=model&query=x&delay_ms=-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHealthHandler_Healthz(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Queue == nil {
		t.Error("queue stats missing")
	}
}
