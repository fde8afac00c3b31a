package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/imageloader/internal/document"
	"github.com/nao1215/imageloader/internal/downloader"
	"github.com/nao1215/imageloader/internal/extractor"
	"github.com/nao1215/imageloader/internal/fetcher"
	"github.com/nao1215/imageloader/internal/model"
	"github.com/nao1215/imageloader/internal/resolver"
)

// ErrNoPage is returned by steps that need the fetched page when the fetch
// step has not stored one.
var ErrNoPage = errors.New("page has not been fetched")

// FetchStep retrieves the target page. A transport failure or any status
// other than 200 is fatal.
type FetchStep struct {
	fetcher *fetcher.Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(f *fetcher.Fetcher) *FetchStep {
	return &FetchStep{fetcher: f}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	resp, status := s.fetcher.Fetch(ctx, run.PageURL)
	if err := fetcher.CheckStatus(resp, status); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", run.PageURL, err)
	}
	run.Page = resp.Page
	return nil
}

// ExtractStep parses the fetched page and collects its image references.
type ExtractStep struct {
	backend string
	logger  *slog.Logger
}

// ExtractStepOption configures an ExtractStep.
type ExtractStepOption func(*ExtractStep)

// WithBackend selects the document backend (document.BackendGoquery or
// document.BackendHTML).
func WithBackend(backend string) ExtractStepOption {
	return func(s *ExtractStep) {
		s.backend = backend
	}
}

// WithExtractLogger sets a custom logger for the extract step.
func WithExtractLogger(logger *slog.Logger) ExtractStepOption {
	return func(s *ExtractStep) {
		s.logger = logger
	}
}

// NewExtractStep creates an ExtractStep using the goquery backend.
func NewExtractStep(opts ...ExtractStepOption) *ExtractStep {
	s := &ExtractStep{
		backend: document.BackendGoquery,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(_ context.Context, run *model.Run) error {
	if run.Page == nil {
		return ErrNoPage
	}
	if !run.Page.IsHTML() {
		s.logger.Warn("page is not HTML, parsing anyway", "content_type", run.Page.ContentType)
	}

	doc, err := document.Parse(run.Page.Raw, run.Page.ContentType, s.backend)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", run.PageURL, err)
	}

	run.References = extractor.Extract(doc)
	s.logger.Info("images found", "count", len(run.References))
	return nil
}

// ResolveStep turns image references into validated URLs.
// Unresolved references are recorded in the run and are not fatal.
type ResolveStep struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a ResolveStep.
func NewResolveStep(r *resolver.Resolver, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{
		resolver: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do executes the resolve step.
func (s *ResolveStep) Do(ctx context.Context, run *model.Run) error {
	page, err := url.Parse(run.PageURL)
	if err != nil {
		// Direct and scheme-relative sources can still resolve.
		s.logger.Warn("page URL cannot be combined with relative sources", "url", run.PageURL, "error", err)
		page = nil
	}

	set, unresolved, err := s.resolver.ResolveAll(ctx, run.References, page)
	run.Resolved = set
	run.Unresolved = append(run.Unresolved, unresolved...)
	if err != nil {
		return err
	}

	s.logger.Info("images resolved", "resolved", set.Len(), "unresolved", len(unresolved))
	return nil
}

// DownloadStep saves the resolved images and writes the manifest.
// It does nothing when no image was resolved.
type DownloadStep struct {
	downloader *downloader.Downloader
	logger     *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithDownloadLogger sets a custom logger for the download step.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates a DownloadStep.
func NewDownloadStep(d *downloader.Downloader, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		downloader: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do executes the download step.
func (s *DownloadStep) Do(ctx context.Context, run *model.Run) error {
	if run.Resolved == nil || run.Resolved.Len() == 0 {
		s.logger.Info("no images to download")
		return nil
	}

	summary, err := s.downloader.Download(ctx, run.PageURL, run.Resolved.Images(), run.DestDir)
	run.Summary = summary
	if err != nil {
		return err
	}

	s.logger.Info("download finished",
		"downloaded", summary.Succeeded(),
		"failed", summary.Failed(),
		"manifest", summary.ManifestPath,
	)
	return nil
}

// Default builds the fetch, extract, resolve and download steps in order.
func Default(f *fetcher.Fetcher, backend string, r *resolver.Resolver, d *downloader.Downloader, logger *slog.Logger) []Step {
	if logger == nil {
		logger = slog.Default()
	}
	return []Step{
		NewFetchStep(f),
		NewExtractStep(WithBackend(backend), WithExtractLogger(logger)),
		NewResolveStep(r, WithResolveLogger(logger)),
		NewDownloadStep(d, WithDownloadLogger(logger)),
	}
}
