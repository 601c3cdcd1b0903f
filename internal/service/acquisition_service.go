// Package service wires the pipeline stages into the operations the
// outward boundary exposes: single transfers, bulk enumeration jobs,
// fetch-only listings, video info, and tracked-source management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/enumerate"
	"github.com/mediahaul/mediahaul/internal/normalize"
	"github.com/mediahaul/mediahaul/internal/provider"
	"github.com/mediahaul/mediahaul/internal/registry"
	"github.com/mediahaul/mediahaul/internal/repository"
	"github.com/mediahaul/mediahaul/internal/transfer"
)

// executor is the slice of transfer.Executor the service needs; tests
// substitute their own.
type executor interface {
	Execute(ctx context.Context, ref domain.VideoReference, opts transfer.Options) (transfer.Result, error)
}

// AcquisitionService orchestrates the acquisition pipeline.
type AcquisitionService struct {
	table      *provider.Table
	enumerator *enumerate.Enumerator
	normalizer *normalize.Normalizer
	executor   executor
	registry   *registry.Registry
	limiter    *provider.Limiter
	jobRepo    repository.JobRepository
	sourceRepo repository.SourceRepository
	cfg        config.PipelineConfig
	logger     *slog.Logger
}

// NewAcquisitionService creates the service.
func NewAcquisitionService(
	table *provider.Table,
	enumerator *enumerate.Enumerator,
	normalizer *normalize.Normalizer,
	exec executor,
	reg *registry.Registry,
	limiter *provider.Limiter,
	jobRepo repository.JobRepository,
	sourceRepo repository.SourceRepository,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) *AcquisitionService {
	return &AcquisitionService{
		table:      table,
		enumerator: enumerator,
		normalizer: normalizer,
		executor:   exec,
		registry:   reg,
		limiter:    limiter,
		jobRepo:    jobRepo,
		sourceRepo: sourceRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

// TransferByURL acquires a single video synchronously.
func (s *AcquisitionService) TransferByURL(ctx context.Context, req domain.TransferRequest) (transfer.Result, error) {
	if req.URL == "" {
		return transfer.Result{}, domain.ErrEmptyURL
	}

	adapter, err := s.table.Classify(req.URL)
	if err != nil {
		return transfer.Result{}, err
	}

	ref, err := adapter.GetVideo(ctx, req.URL)
	if err != nil {
		return transfer.Result{}, domain.NewProviderError(adapter.Kind(), "get_video", err)
	}

	return s.executor.Execute(ctx, ref, transfer.Options{
		OutputDir: req.OutputDir,
		Quality:   req.Quality,
		SourceURL: req.SourceURL,
		Thumbnail: req.Thumbnail,
	})
}

// RunBulk enumerates a listing request and transfers every item. Per-item
// failures are logged, counted and recorded in the aggregate; enumeration
// continues unless halt-on-error is set (per request or configured), in
// which case the first failure also fails the bulk run with the aggregate
// reflecting progress so far.
func (s *AcquisitionService) RunBulk(ctx context.Context, req domain.BulkRequest) (domain.Aggregate, error) {
	var agg domain.Aggregate

	if !req.Kind.Valid() {
		return agg, fmt.Errorf("%w: unknown listing kind %q", domain.ErrUnsupportedListing, req.Kind)
	}

	halt := req.HaltOnError || s.cfg.HaltOnError
	kinds := s.providerKinds(req.Providers)

	seq, err := s.enumerator.Enumerate(ctx, req.Kind, req.Query, kinds)
	if err != nil {
		return agg, err
	}

	for ref, itemErr := range seq {
		if err := ctx.Err(); err != nil {
			return agg, err
		}
		if itemErr != nil {
			agg.Failed++
			if ref.URL != "" {
				agg.FailedURLs = append(agg.FailedURLs, ref.URL)
			}
			s.logger.Warn("listing item failed", "kind", req.Kind, "query", req.Query, "error", itemErr)
			if halt {
				return agg, itemErr
			}
			continue
		}

		res, err := s.executor.Execute(ctx, ref, transfer.Options{
			OutputDir: req.OutputDir,
			Quality:   req.Quality,
		})
		switch {
		case err != nil:
			agg.Failed++
			agg.FailedURLs = append(agg.FailedURLs, ref.URL)
			s.logger.Warn("bulk item transfer failed", "url", ref.URL, "error", err)
			if halt {
				return agg, err
			}
		case res.Outcome == domain.OutcomeSkipped:
			agg.Skipped++
		default:
			agg.Succeeded++
		}
	}

	s.logger.Info("bulk acquisition finished",
		"kind", req.Kind, "query", req.Query,
		"succeeded", agg.Succeeded, "skipped", agg.Skipped, "failed", agg.Failed)
	return agg, nil
}

// FetchVideos enumerates a listing without transferring anything, returning
// lite records up to limit. delayOverride, when positive, temporarily
// replaces the provider request delay for the duration of the enumeration
// and is restored on exit even when enumeration fails.
func (s *AcquisitionService) FetchVideos(ctx context.Context, kind domain.ListingKind, query string, providers []string, limit int, delayOverride time.Duration) ([]domain.LiteRecord, error) {
	if limit <= 0 {
		limit = s.cfg.ResultLimit
	}

	if delayOverride > 0 {
		prev := s.limiter.SetDelay(delayOverride)
		defer s.limiter.SetDelay(prev)
	}

	seq, err := s.enumerator.Enumerate(ctx, kind, query, s.providerKinds(providers))
	if err != nil {
		return nil, err
	}

	records := make([]domain.LiteRecord, 0, limit)
	for ref, itemErr := range seq {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if itemErr != nil {
			s.logger.Debug("listing item failed", "query", query, "error", itemErr)
			continue
		}

		adapter, ok := s.table.ByKind(ref.Provider)
		if !ok {
			continue
		}
		records = append(records, s.normalizer.Lite(ctx, adapter, ref))
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

// VideoInfo returns the canonical metadata for one URL without
// transferring.
func (s *AcquisitionService) VideoInfo(ctx context.Context, url string) (domain.CanonicalMetadata, error) {
	if url == "" {
		return domain.CanonicalMetadata{}, domain.ErrEmptyURL
	}

	adapter, err := s.table.Classify(url)
	if err != nil {
		return domain.CanonicalMetadata{}, err
	}
	ref, err := adapter.GetVideo(ctx, url)
	if err != nil {
		return domain.CanonicalMetadata{}, domain.NewProviderError(adapter.Kind(), "get_video", err)
	}
	return s.normalizer.Canonical(ctx, adapter, ref), nil
}

// Snapshot returns the live transfer states.
func (s *AcquisitionService) Snapshot() []domain.TransferState {
	return s.registry.Snapshot()
}

// EnqueueSingle queues a single-URL acquisition for the worker pool.
func (s *AcquisitionService) EnqueueSingle(ctx context.Context, req domain.TransferRequest) (*domain.AcquisitionJob, error) {
	if req.URL == "" {
		return nil, domain.ErrEmptyURL
	}
	// Classify up front so an unroutable URL fails the request, not the
	// job later.
	if _, err := s.table.Classify(req.URL); err != nil {
		return nil, err
	}

	job := domain.NewSingleJob(domain.NewJobID(), req)
	if err := s.jobRepo.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("single acquisition queued", "job_id", job.ID, "url", req.URL)
	return job, nil
}

// EnqueueBulk queues a bulk acquisition for the worker pool.
func (s *AcquisitionService) EnqueueBulk(ctx context.Context, req domain.BulkRequest) (*domain.AcquisitionJob, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown listing kind %q", domain.ErrUnsupportedListing, req.Kind)
	}
	if req.Query == "" {
		return nil, domain.ErrEmptyURL
	}

	job := domain.NewBulkJob(domain.NewJobID(), req)
	if err := s.jobRepo.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("bulk acquisition queued", "job_id", job.ID, "kind", req.Kind, "query", req.Query)
	return job, nil
}

// GetJob returns one job record.
func (s *AcquisitionService) GetJob(ctx context.Context, id domain.JobID) (*domain.AcquisitionJob, error) {
	return s.jobRepo.Get(ctx, id)
}

// RunJob executes a dequeued job to completion and records its outcome.
// Called from worker goroutines.
func (s *AcquisitionService) RunJob(ctx context.Context, job *domain.AcquisitionJob) error {
	job.MarkRunning()
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	switch job.Kind {
	case domain.JobSingle:
		res, err := s.TransferByURL(ctx, *job.Single)
		job.TransferID = res.ID
		if err != nil {
			job.MarkFailed(err.Error())
		} else {
			job.OutputPath = res.Path
			job.Outcome = res.Outcome
			job.MarkCompleted()
		}

	case domain.JobBulk:
		agg, err := s.RunBulk(ctx, *job.Bulk)
		job.Aggregate = agg
		if err != nil {
			job.MarkFailed(err.Error())
		} else {
			job.MarkCompleted()
		}

	default:
		job.MarkFailed(fmt.Sprintf("unknown job kind %q", job.Kind))
	}

	return s.jobRepo.Update(ctx, job)
}

// AddSource stores a tracked source after validating its listing kind and
// that some adapter claims its query URL (search queries are free text and
// skip classification).
func (s *AcquisitionService) AddSource(ctx context.Context, name string, kind domain.ListingKind, query, quality string) (*domain.TrackedSource, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown listing kind %q", domain.ErrUnsupportedListing, kind)
	}
	if query == "" {
		return nil, domain.ErrEmptyURL
	}
	if kind != domain.ListingSearch {
		if _, err := s.table.Classify(query); err != nil {
			return nil, err
		}
	}

	src := &domain.TrackedSource{
		ID:      domain.NewSourceID(),
		Name:    name,
		Kind:    kind,
		Query:   query,
		Quality: quality,
		AddedAt: time.Now().UTC(),
	}
	if src.Name == "" {
		src.Name = query
	}
	if err := s.sourceRepo.Add(ctx, src); err != nil {
		return nil, err
	}
	return src, nil
}

// ListSources returns all tracked sources.
func (s *AcquisitionService) ListSources(ctx context.Context) ([]*domain.TrackedSource, error) {
	return s.sourceRepo.List(ctx)
}

// DeleteSource removes a tracked source.
func (s *AcquisitionService) DeleteSource(ctx context.Context, id domain.SourceID) error {
	return s.sourceRepo.Delete(ctx, id)
}

// SyncSource enqueues a bulk acquisition re-running a tracked source's
// listing with its stored quality.
func (s *AcquisitionService) SyncSource(ctx context.Context, id domain.SourceID) (*domain.AcquisitionJob, error) {
	src, err := s.sourceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.EnqueueBulk(ctx, domain.BulkRequest{
		Kind:    src.Kind,
		Query:   src.Query,
		Quality: src.Quality,
	})
}

// providerKinds maps provider names onto kinds, falling back to the
// configured search subset when none are named. Unknown names are dropped.
func (s *AcquisitionService) providerKinds(names []string) []domain.ProviderKind {
	if len(names) == 0 {
		names = s.cfg.SearchProviders
	}
	kinds := make([]domain.ProviderKind, 0, len(names))
	for _, n := range names {
		kind := domain.ProviderKind(n)
		if _, ok := s.table.ByKind(kind); ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
