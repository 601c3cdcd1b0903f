package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiClient is a thin JSON client for the mediahaul server API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) get(path string, out any) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *apiClient) post(path string, body, out any) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *apiClient) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

// Wire shapes mirrored from the server's handler package. The CLI keeps its
// own copies so it stays a pure HTTP client.

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type jobResponse struct {
	JobID       string     `json:"job_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	TransferID  string     `json:"transfer_id,omitempty"`
	OutputPath  string     `json:"output_path,omitempty"`
	Outcome     string     `json:"outcome,omitempty"`
	Aggregate   *aggregate `json:"aggregate,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (j jobResponse) terminal() bool {
	return j.Status == "completed" || j.Status == "failed"
}

type aggregate struct {
	Succeeded  int      `json:"succeeded"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	FailedURLs []string `json:"failed_urls,omitempty"`
}

type transferState struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Progress   int64     `json:"progress"`
	Total      int64     `json:"total"`
	Unit       string    `json:"unit"`
	SpeedBps   float64   `json:"speed_bps"`
	LastUpdate time.Time `json:"last_update"`
}

type transferListResponse struct {
	Transfers []transferState `json:"transfers"`
	Count     int             `json:"count"`
}

type liteRecord struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type fetchResponse struct {
	Videos []liteRecord `json:"videos"`
	Count  int          `json:"count"`
}

type infoResponse struct {
	URL      string `json:"url"`
	Metadata struct {
		Title         string   `json:"title"`
		Author        string   `json:"author"`
		LengthSeconds int      `json:"length_seconds"`
		Tags          []string `json:"tags,omitempty"`
		PublishDate   string   `json:"publish_date"`
		Thumbnail     string   `json:"thumbnail,omitempty"`
		Qualities     []string `json:"qualities"`
	} `json:"metadata"`
}

type trackedSource struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Query   string    `json:"query"`
	Quality string    `json:"quality,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

type sourcesResponse struct {
	Sources []trackedSource `json:"sources"`
	Count   int             `json:"count"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_s"`
	FreeDiskBytes int64  `json:"free_disk_bytes"`
	Queue         *struct {
		Queued    int `json:"queued"`
		Running   int `json:"running"`
		Completed int `json:"completed"`
		Failed    int `json:"failed"`
	} `json:"queue,omitempty"`
}
