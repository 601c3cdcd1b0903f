// Package transfer executes single acquisitions: filename derivation,
// disk preflight, the provider transfer call inside an isolated work
// directory, on-disk reconciliation, the one-shot quality fallback, and
// completion registration. It owns the defensive half of the pipeline;
// everything upstream of it only shapes data.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/normalize"
	"github.com/mediahaul/mediahaul/internal/notify"
	"github.com/mediahaul/mediahaul/internal/provider"
	"github.com/mediahaul/mediahaul/internal/quality"
	"github.com/mediahaul/mediahaul/internal/registry"
)

// Tagger writes metadata into a finished artifact. Implemented by
// pkg/ffmpeg; nil-able when tagging is disabled.
type Tagger interface {
	Available() bool
	WriteTags(ctx context.Context, path string, meta domain.CanonicalMetadata) error
}

// Options carry the per-request knobs of one Execute call. Zero values
// fall back to the configured pipeline defaults.
type Options struct {
	OutputDir string
	Quality   string
	SourceURL string
	Thumbnail string
}

// Result describes a finished Execute call.
type Result struct {
	ID      domain.TransferID
	Path    string
	Outcome domain.TransferOutcome
	Meta    domain.CanonicalMetadata
}

// Executor runs acquisitions against the adapter table.
type Executor struct {
	table      *provider.Table
	normalizer *normalize.Normalizer
	registry   *registry.Registry
	notifier   notify.Notifier
	tagger     Tagger
	cfg        config.PipelineConfig
	logger     *slog.Logger
}

// NewExecutor creates an executor. notifier may not be nil; tagger may be
// nil when tagging is disabled.
func NewExecutor(
	table *provider.Table,
	normalizer *normalize.Normalizer,
	reg *registry.Registry,
	notifier notify.Notifier,
	tagger Tagger,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		table:      table,
		normalizer: normalizer,
		registry:   reg,
		notifier:   notifier,
		tagger:     tagger,
		cfg:        cfg,
		logger:     logger,
	}
}

// registrySink forwards adapter progress callbacks into the registry. The
// registry tolerates updates after release, so late callbacks from provider
// code are harmless here.
type registrySink struct {
	reg *registry.Registry
	id  domain.TransferID
}

func (s registrySink) Report(position, total int64) {
	s.reg.Update(s.id, position, total)
}

// Execute acquires one video. It resolves the requested quality against the
// video's canonical metadata, runs the provider transfer in a work
// directory scoped to the transfer id, reconciles whatever appeared on
// disk, and registers the artifact on success. Provider failures get
// exactly one fallback attempt before the transfer is terminally failed.
func (e *Executor) Execute(ctx context.Context, ref domain.VideoReference, opts Options) (Result, error) {
	adapter, ok := e.table.ByKind(ref.Provider)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrNoProvider, ref.Provider)
	}

	meta := e.normalizer.Canonical(ctx, adapter, ref)

	requested := opts.Quality
	if requested == "" {
		requested = e.cfg.Quality
	}
	resolved := quality.Resolve(requested, meta.Qualities)
	if resolved == "" {
		return Result{}, domain.NewProviderError(adapter.Kind(), "resolve_quality", domain.ErrNoQualities)
	}

	destDir := opts.OutputDir
	if destDir == "" {
		destDir = e.cfg.OutputDir
	}
	if e.cfg.DirectorySystem && meta.Author != "" {
		destDir = filepath.Join(destDir, Slug(meta.Author))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	filename := Slug(meta.Title) + extensionFor(ref)
	finalPath := filepath.Join(destDir, filename)

	if e.cfg.SkipExisting {
		if info, err := os.Stat(finalPath); err == nil && info.Size() > 0 {
			e.logger.Info("skipping existing file", "path", finalPath)
			return Result{Path: finalPath, Outcome: domain.OutcomeSkipped, Meta: meta}, nil
		}
	}

	if e.cfg.MinFreeBytes > 0 && FreeDiskSpace(destDir) < e.cfg.MinFreeBytes {
		return Result{}, fmt.Errorf("%w: under %d bytes free in %s",
			domain.ErrStorageFull, e.cfg.MinFreeBytes, destDir)
	}

	id := domain.NewTransferID()
	e.registry.Register(id, filename, adapter.Unit())
	sink := registrySink{reg: e.registry, id: id}

	logger := e.logger.With("transfer_id", id, "provider", adapter.Kind(), "url", ref.URL)
	logger.Info("transfer started", "quality", resolved, "filename", filename)

	outPath, err := e.attempt(ctx, adapter, ref, destDir, filename, id, resolved, sink, logger)
	if err != nil {
		// One fallback attempt in a fresh work directory, steered back
		// toward best quality. Provider libraries fail transiently and
		// per-quality often enough that this single retry pays for itself.
		fb := fallbackQuality(resolved, meta.Qualities)
		logger.Warn("transfer failed, retrying with fallback quality",
			"error", err, "fallback_quality", fb)
		outPath, err = e.attempt(ctx, adapter, ref, destDir, filename, id, fb, sink, logger)
	}
	if err != nil {
		e.registry.Fail(id)
		logger.Error("transfer failed", "error", err)
		return Result{ID: id}, domain.NewTransferError(id, "execute", err)
	}

	info, statErr := os.Stat(outPath)
	if statErr != nil || info.Size() == 0 {
		os.Remove(outPath)
		e.registry.Fail(id)
		logger.Error("transfer produced empty output", "path", outPath)
		return Result{ID: id}, domain.NewTransferError(id, "execute", domain.ErrZeroByteOutput)
	}

	if base := filepath.Base(outPath); base != filename {
		e.registry.Rename(id, base)
	}
	e.registry.Complete(id)
	logger.Info("transfer completed", "path", outPath, "size", info.Size())

	e.announce(ctx, outPath, info.Size(), ref, meta, opts, logger)
	e.tag(ctx, outPath, meta, logger)

	return Result{ID: id, Path: outPath, Outcome: domain.OutcomeDownloaded, Meta: meta}, nil
}

// attempt runs one provider transfer call in a fresh work directory and
// reconciles its outcome.
func (e *Executor) attempt(
	ctx context.Context,
	adapter provider.Adapter,
	ref domain.VideoReference,
	destDir, filename string,
	id domain.TransferID,
	q string,
	sink provider.ProgressSink,
	logger *slog.Logger,
) (string, error) {
	workDir := filepath.Join(destDir, ".transfer-"+id.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	dest := provider.TransferDest{Dir: workDir, Filename: filename}
	if err := adapter.Transfer(ctx, ref, dest, q, sink); err != nil {
		// The call failed, but the adapter may still have produced a
		// complete artifact it then tripped over. Reconciliation decides.
		if path, recErr := reconcile(workDir, destDir, filename, adapter.Kind(), logger); recErr == nil {
			logger.Warn("transfer errored but produced usable output", "error", err, "path", path)
			return path, nil
		}
		return "", err
	}
	return reconcile(workDir, destDir, filename, adapter.Kind(), logger)
}

// announce registers the artifact with the companion application. Failures
// are logged only; a finished transfer never un-finishes because its
// announcement was lost.
func (e *Executor) announce(ctx context.Context, path string, size int64, ref domain.VideoReference, meta domain.CanonicalMetadata, opts Options, logger *slog.Logger) {
	thumbnail := opts.Thumbnail
	if thumbnail == "" {
		thumbnail = meta.Thumbnail
	}
	artifact := domain.CompletedArtifact{
		Filename:    filepath.Base(path),
		RemoteURL:   ref.URL,
		SizeBytes:   size,
		SourceURL:   opts.SourceURL,
		Thumbnail:   thumbnail,
		Duration:    meta.LengthSeconds,
		Author:      meta.Author,
		Tags:        meta.Tags,
		PublishDate: publishDateOrEmpty(meta.PublishDate),
	}
	if err := e.notifier.Register(ctx, artifact); err != nil {
		logger.Warn("completion registration failed", "error", err)
	}
}

func (e *Executor) tag(ctx context.Context, path string, meta domain.CanonicalMetadata, logger *slog.Logger) {
	if e.tagger == nil || !e.tagger.Available() || meta.Degraded() {
		return
	}
	if err := e.tagger.WriteTags(ctx, path, meta); err != nil {
		logger.Warn("metadata tagging failed", "error", err)
	}
}

// fallbackQuality picks the retry quality: best when it differs from the
// failed token, otherwise any other available token, otherwise the failed
// token again (the fresh work directory is then the only variation).
func fallbackQuality(failed string, available []string) string {
	if fb := quality.Resolve(domain.QualityBest, available); fb != "" && fb != failed {
		return fb
	}
	for _, q := range available {
		if q != failed {
			return q
		}
	}
	return failed
}

// extensionFor picks the artifact extension: the URL's own when it names a
// recognized media file, mp4 otherwise. Reconciliation corrects it when the
// adapter produces a different container.
func extensionFor(ref domain.VideoReference) string {
	if domain.IsMediaFile(ref.URL) {
		return filepath.Ext(ref.URL)
	}
	return ".mp4"
}

func publishDateOrEmpty(date string) string {
	if date == "N/A" {
		return ""
	}
	return date
}
