package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/nao1215/imageloader/internal/model"
)

// ErrUnresolved is returned by Resolve when no candidate passed the probe.
var ErrUnresolved = errors.New("image could not be resolved")

// Resolver turns image references into validated absolute URLs.
type Resolver struct {
	prober     Prober
	candidates []Candidate
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCandidates replaces DefaultCandidates.
func WithCandidates(c ...Candidate) Option {
	return func(r *Resolver) {
		r.candidates = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver validating candidates with prober.
func New(prober Prober, opts ...Option) *Resolver {
	r := &Resolver{
		prober:     prober,
		candidates: DefaultCandidates(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the candidates in order and returns the first proposed URL
// the prober accepts. It returns ErrUnresolved when none is accepted, or the
// context error when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, ref model.ImageReference, page *url.URL) (string, error) {
	for _, c := range r.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, ok := c.Propose(ref.Source, page)
		if !ok {
			continue
		}

		if r.prober.Probe(ctx, candidate) {
			r.logger.Debug("candidate accepted", "strategy", c.Name(), "source", ref.Source, "url", candidate)
			return candidate, nil
		}
		r.logger.Debug("candidate rejected", "strategy", c.Name(), "source", ref.Source, "url", candidate)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrUnresolved
}

// ResolveAll resolves refs in order. Resolved images are collected in a
// ResolvedSet keyed by filename; the references that could not be resolved
// are returned separately. A non-nil error is only returned when ctx is done.
func (r *Resolver) ResolveAll(ctx context.Context, refs []model.ImageReference, page *url.URL) (*model.ResolvedSet, []model.ImageReference, error) {
	set := model.NewResolvedSet()
	var unresolved []model.ImageReference

	for _, ref := range refs {
		u, err := r.Resolve(ctx, ref, page)
		if err != nil {
			if !errors.Is(err, ErrUnresolved) {
				return set, unresolved, err
			}
			r.logger.Info("image not resolved", "source", ref.Source)
			unresolved = append(unresolved, ref)
			continue
		}

		if replaced := set.Put(model.ResolvedImage{ImageReference: ref, URL: u}); replaced {
			r.logger.Debug("filename already seen, keeping later URL", "filename", ref.Filename, "url", u)
		}
		r.logger.Info("image resolved", "source", ref.Source, "url", u)
	}

	return set, unresolved, nil
}
