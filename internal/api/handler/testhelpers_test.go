package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/enumerate"
	"github.com/mediahaul/mediahaul/internal/normalize"
	"github.com/mediahaul/mediahaul/internal/provider"
	"github.com/mediahaul/mediahaul/internal/registry"
	"github.com/mediahaul/mediahaul/internal/repository"
	"github.com/mediahaul/mediahaul/internal/service"
	"github.com/mediahaul/mediahaul/internal/transfer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAdapter claims every http URL and lists a fixed set of videos.
type stubAdapter struct {
	urls []string
}

func (a *stubAdapter) Kind() domain.ProviderKind { return domain.ProviderDirect }

func (a *stubAdapter) Match(rawURL string) bool {
	return len(rawURL) > 4 && rawURL[:4] == "http"
}

func (a *stubAdapter) GetVideo(_ context.Context, rawURL string) (domain.VideoReference, error) {
	return domain.VideoReference{Provider: domain.ProviderDirect, URL: rawURL}, nil
}

func (a *stubAdapter) Describe(_ context.Context, ref domain.VideoReference) (provider.Description, error) {
	return provider.Description{Title: "clip " + ref.URL, Author: "author", Duration: 60}, nil
}

func (a *stubAdapter) Strategies() []provider.QualityStrategy {
	return []provider.QualityStrategy{{
		Name: "static",
		Extract: func(context.Context, domain.VideoReference) ([]string, error) {
			return []string{"1080p", "720p"}, nil
		},
	}}
}

func (a *stubAdapter) DefaultQualities() []string { return domain.DefaultResolutionQualities() }
func (a *stubAdapter) Unit() domain.ProgressUnit  { return domain.UnitBytes }

func (a *stubAdapter) ListModel(context.Context, string) (provider.Seq, error) {
	return func(yield func(domain.VideoReference, error) bool) {
		for _, u := range a.urls {
			if !yield(domain.VideoReference{Provider: domain.ProviderDirect, URL: u}, nil) {
				return
			}
		}
	}, nil
}

func (a *stubAdapter) ListPlaylist(context.Context, string) (provider.Seq, error) {
	return nil, domain.ErrUnsupportedListing
}

func (a *stubAdapter) Search(ctx context.Context, _ string) (provider.Seq, error) {
	return a.ListModel(ctx, "")
}

func (a *stubAdapter) Transfer(context.Context, domain.VideoReference, provider.TransferDest, string, provider.ProgressSink) error {
	return nil
}

// stubExecutor succeeds for every URL.
type stubExecutor struct {
	mu    sync.Mutex
	calls int
}

func (e *stubExecutor) Execute(_ context.Context, ref domain.VideoReference, _ transfer.Options) (transfer.Result, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return transfer.Result{
		ID:      domain.NewTransferID(),
		Path:    "/out/video.mp4",
		Outcome: domain.OutcomeDownloaded,
	}, nil
}

type testEnv struct {
	router  *chi.Mux
	svc     *service.AcquisitionService
	jobRepo *repository.InMemoryJobRepository
	reg     *registry.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()
	adapter := &stubAdapter{urls: []string{"https://v/1", "https://v/2"}}
	table := provider.NewTable(adapter)
	reg := registry.NewRegistry(time.Minute, logger)
	t.Cleanup(reg.Close)

	jobRepo := repository.NewInMemoryJobRepository()
	sourceRepo, err := repository.NewSQLiteSourceRepository(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("source repo: %v", err)
	}
	t.Cleanup(func() { sourceRepo.Close() })

	svc := service.NewAcquisitionService(
		table,
		enumerate.NewEnumerator(table, logger),
		normalize.NewNormalizer(logger),
		&stubExecutor{},
		reg,
		provider.NewLimiter(0),
		jobRepo,
		sourceRepo,
		config.PipelineConfig{ResultLimit: 50, SearchProviders: []string{"direct"}},
		logger,
	)

	router := NewTestRouter(svc, jobRepo, t.TempDir())
	return &testEnv{router: router, svc: svc, jobRepo: jobRepo, reg: reg}
}

// NewTestRouter assembles the same route tree the api package serves,
// without authentication.
func NewTestRouter(svc *service.AcquisitionService, jobRepo repository.JobRepository, outputDir string) *chi.Mux {
	logger := testLogger()
	transferHandler := NewTransferHandler(svc, logger)
	jobHandler := NewJobHandler(svc, logger)
	videoHandler := NewVideoHandler(svc, logger)
	sourceHandler := NewSourceHandler(svc, logger)
	healthHandler := NewHealthHandler(jobRepo, outputDir, "test")

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler.Healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/transfers", transferHandler.Submit)
		r.Post("/transfers/bulk", transferHandler.SubmitBulk)
		r.Get("/transfers", transferHandler.List)
		r.Get("/jobs/{jobID}", jobHandler.Get)
		r.Get("/videos", videoHandler.Fetch)
		r.Get("/videos/info", videoHandler.Info)
		r.Get("/sources", sourceHandler.List)
		r.Post("/sources", sourceHandler.Add)
		r.Delete("/sources/{sourceID}", sourceHandler.Delete)
		r.Post("/sources/{sourceID}/sync", sourceHandler.Sync)
	})
	return r
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
