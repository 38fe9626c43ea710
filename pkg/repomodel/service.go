// Package repomodel orchestrates building repository models and caching
// them by repository key and input fingerprint.
package repomodel

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/graph"
	"github.com/JoaoClaudiano/gittree/pkg/metrics"
	"github.com/JoaoClaudiano/gittree/pkg/models"
	"github.com/JoaoClaudiano/gittree/pkg/tree"
)

var (
	// ErrSerialization marks a cached payload that could not be decoded, or
	// a model that could not be encoded.
	ErrSerialization = errors.New("model serialization failed")
	// ErrNotCached is returned by Cached when no entry exists for the key.
	ErrNotCached = errors.New("model not cached")
)

// Result is the outcome of Resolve.
type Result struct {
	Model    *models.RepositoryModel
	CacheKey string
	// Hit is true when the model was decoded from the store.
	Hit bool
	// Bypassed is true when the service runs without a store.
	Bypassed bool
}

// Option configures a Service.
type Option func(*Service)

// WithDegraded makes store failures during Resolve non-fatal: they are
// logged and the freshly built model is returned without error.
func WithDegraded(degraded bool) Option {
	return func(s *Service) { s.degraded = degraded }
}

// Service builds repository models and caches them in a Store.
type Service struct {
	store    cache.Store
	degraded bool
	group    singleflight.Group
}

// New creates a Service. A nil store disables caching.
func New(store cache.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the backing store, or nil when caching is disabled.
func (s *Service) Store() cache.Store {
	return s.store
}

// Build runs the pipeline (tree, metrics, graph) without touching the cache.
func (s *Service) Build(key models.RepositoryKey, files models.FileListing, modules []models.ModuleDependencies) (*models.RepositoryModel, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	fp, err := Fingerprint(files, modules)
	if err != nil {
		return nil, err
	}
	return build(key, fp, files, modules)
}

func build(key models.RepositoryKey, fp string, files models.FileListing, modules []models.ModuleDependencies) (*models.RepositoryModel, error) {
	root, err := tree.Build(key.Name, files)
	if err != nil {
		return nil, fmt.Errorf("building tree for %s: %w", key, err)
	}
	g, err := graph.Build(modules)
	if err != nil {
		return nil, fmt.Errorf("building graph for %s: %w", key, err)
	}
	return &models.RepositoryModel{
		Repository:  key,
		Fingerprint: fp,
		Tree:        root,
		Metrics:     metrics.Aggregate(root),
		Graph:       g,
	}, nil
}

// Get returns the model for the given inputs, from the cache when possible.
func (s *Service) Get(ctx context.Context, key models.RepositoryKey, files models.FileListing, modules []models.ModuleDependencies) (*models.RepositoryModel, error) {
	res, err := s.Resolve(ctx, key, files, modules)
	return res.Model, err
}

// Resolve returns the model for the given inputs along with cache metadata.
//
// When the store rejects the new entry for lack of capacity, Resolve
// returns the built model together with an error wrapping
// cache.ErrCapacityExceeded, unless the service is degraded.
func (s *Service) Resolve(ctx context.Context, key models.RepositoryKey, files models.FileListing, modules []models.ModuleDependencies) (Result, error) {
	if err := key.Validate(); err != nil {
		return Result{}, err
	}
	fp, err := Fingerprint(files, modules)
	if err != nil {
		return Result{}, err
	}
	ck := CacheKey(key, fp)

	if s.store == nil {
		m, err := build(key, fp, files, modules)
		return Result{Model: m, CacheKey: ck, Bypassed: true}, err
	}

	// The shared build must not inherit one caller's cancellation; each
	// caller stops waiting on its own context instead.
	flight := context.WithoutCancel(ctx)
	ch := s.group.DoChan(ck, func() (any, error) {
		return s.resolve(flight, ck, key, fp, files, modules)
	})
	select {
	case <-ctx.Done():
		return Result{CacheKey: ck}, ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(Result)
		// Callers sharing a flight must not share the model.
		res.Model = res.Model.Clone()
		return res, r.Err
	}
}

func (s *Service) resolve(ctx context.Context, ck string, key models.RepositoryKey, fp string, files models.FileListing, modules []models.ModuleDependencies) (Result, error) {
	res := Result{CacheKey: ck}

	data, ok, err := s.store.Get(ctx, ck)
	switch {
	case err != nil:
		if !s.degraded {
			return res, fmt.Errorf("reading cache entry %s: %w", ck, err)
		}
		log.Printf("repomodel: cache read %s failed, rebuilding: %v", ck, err)
	case ok:
		m, derr := decodeModel(data)
		if derr == nil {
			res.Model, res.Hit = m, true
			return res, nil
		}
		log.Printf("repomodel: discarding cache entry %s: %v", ck, derr)
		if err := s.store.Delete(ctx, ck); err != nil {
			log.Printf("repomodel: deleting cache entry %s: %v", ck, err)
		}
	}

	m, err := build(key, fp, files, modules)
	if err != nil {
		return res, err
	}
	res.Model = m

	payload, err := encodeModel(m)
	if err != nil {
		return res, err
	}
	if err := s.store.Put(ctx, ck, payload); err != nil {
		if s.degraded {
			log.Printf("repomodel: not caching %s: %v", ck, err)
			return res, nil
		}
		return res, fmt.Errorf("caching model %s: %w", ck, err)
	}
	return res, nil
}

// Cached looks up a model by cache key without raw input. A payload that
// cannot be decoded is removed from the store and reported as
// ErrSerialization.
func (s *Service) Cached(ctx context.Context, cacheKey string) (*models.RepositoryModel, error) {
	if s.store == nil {
		return nil, ErrNotCached
	}
	data, ok, err := s.store.Get(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", cacheKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, cacheKey)
	}
	m, err := decodeModel(data)
	if err != nil {
		if derr := s.store.Delete(ctx, cacheKey); derr != nil {
			log.Printf("repomodel: deleting cache entry %s: %v", cacheKey, derr)
		}
		return nil, fmt.Errorf("cache entry %s: %w", cacheKey, err)
	}
	return m, nil
}

// Invalidate removes cached models for a repository. "owner/name" removes
// every branch and fingerprint; "owner/name@branch" removes only that
// branch. It returns the number of entries removed.
func (s *Service) Invalidate(ctx context.Context, repository string) (int, error) {
	target, err := models.ParseRepositoryKey(repository)
	if err != nil {
		return 0, err
	}
	if s.store == nil {
		return 0, nil
	}

	prefix := target.String() + keySep
	if target.Branch == "" {
		prefix = target.Repo()
	}
	entries, err := s.store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("listing cache entries for %s: %w", repository, err)
	}

	removed := 0
	for _, e := range entries {
		if !matches(e.Key, target) {
			continue
		}
		if err := s.store.Delete(ctx, e.Key); err != nil {
			return removed, fmt.Errorf("deleting cache entry %s: %w", e.Key, err)
		}
		removed++
	}
	return removed, nil
}

// matches reports whether a stored key belongs to target. The prefix scan
// also yields keys such as "owner/name2#...", which are filtered here.
func matches(storeKey string, target models.RepositoryKey) bool {
	key, _, err := ParseCacheKey(storeKey)
	if err != nil {
		return false
	}
	if key.Owner != target.Owner || key.Name != target.Name {
		return false
	}
	return target.Branch == "" || key.Branch == target.Branch
}
