// Package manifest resolves Destiny item, plug and artifact definitions by hash
// through a bounded in-process cache.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

var (
	// ErrNotFound means upstream answered that the hash does not exist.
	ErrNotFound = errors.New("definition not found")
	// ErrUnavailable means the definition could not be fetched (network, HTTP or timeout).
	ErrUnavailable = errors.New("definition service unavailable")
)

// Kind selects which definition family a hash belongs to.
type Kind string

// Supported kinds. Items and plugs live in the same manifest table but are
// cached under separate keys.
const (
	KindItem     Kind = "item"
	KindPlug     Kind = "plug"
	KindArtifact Kind = "artifact"
)

func (k Kind) entity() string {
	if k == KindArtifact {
		return bungie.EntityArtifact
	}
	return bungie.EntityInventoryItem
}

// Fetcher retrieves one manifest entity from upstream.
type Fetcher interface {
	FetchDefinition(ctx context.Context, entity string, hash uint32) (*bungie.Definition, error)
}

// DefinitionSource is what the loadout extractor needs from a resolver.
type DefinitionSource interface {
	Resolve(ctx context.Context, kind Kind, hash uint32) (*bungie.Definition, error)
	ResolveMany(ctx context.Context, kind Kind, hashes []uint32) map[uint32]*bungie.Definition
}

// DefaultCacheSize is used when a non-positive size is requested.
const DefaultCacheSize = 4096

// DefaultConcurrency bounds parallel upstream fetches in ResolveMany.
const DefaultConcurrency = 8

type cacheKey struct {
	kind Kind
	hash uint32
}

// Resolver is a get-or-fetch cache over a Fetcher. It is safe for concurrent use.
type Resolver struct {
	fetcher     Fetcher
	cache       *lru.Cache[cacheKey, *bungie.Definition]
	group       singleflight.Group
	logger      *zap.Logger
	concurrency int
}

// NewResolver creates a Resolver holding at most size definitions.
//
// Precondition: fetcher and logger must be non-nil.
// Postcondition: Returns a Resolver or a non-nil error.
func NewResolver(fetcher Fetcher, size int, logger *zap.Logger) (*Resolver, error) {
	if fetcher == nil {
		return nil, errors.New("manifest: fetcher must not be nil")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, *bungie.Definition](size)
	if err != nil {
		return nil, fmt.Errorf("creating definition cache: %w", err)
	}
	return &Resolver{
		fetcher:     fetcher,
		cache:       cache,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}, nil
}

// Len returns the number of cached definitions.
func (r *Resolver) Len() int { return r.cache.Len() }

// Resolve returns the definition of hash, fetching it on a cache miss.
// Concurrent misses for the same key share one upstream call. Failures are not cached.
//
// Postcondition: Returns a non-nil definition, or an error wrapping ErrNotFound or ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, hash uint32) (*bungie.Definition, error) {
	if hash == 0 {
		return nil, fmt.Errorf("%w: %s hash 0", ErrNotFound, kind)
	}
	key := cacheKey{kind: kind, hash: hash}
	if def, ok := r.cache.Get(key); ok {
		return def, nil
	}

	ch := r.group.DoChan(fmt.Sprintf("%s:%d", kind, hash), func() (any, error) {
		if def, ok := r.cache.Get(key); ok {
			return def, nil
		}
		def, err := r.fetcher.FetchDefinition(context.WithoutCancel(ctx), kind.entity(), hash)
		if err != nil {
			return nil, err
		}
		r.cache.Add(key, def)
		return def, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s %d: %w", ErrUnavailable, kind, hash, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, classify(kind, hash, res.Err)
		}
		return res.Val.(*bungie.Definition), nil
	}
}

// ResolveMany resolves the distinct non-zero hashes concurrently and joins
// before returning. Hashes that fail to resolve are logged and absent from the result.
//
// Postcondition: Returns a non-nil map.
func (r *Resolver) ResolveMany(ctx context.Context, kind Kind, hashes []uint32) map[uint32]*bungie.Definition {
	out := make(map[uint32]*bungie.Definition, len(hashes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	seen := make(map[uint32]bool, len(hashes))
	for _, h := range hashes {
		if h == 0 || seen[h] {
			continue
		}
		seen[h] = true
		g.Go(func() error {
			def, err := r.Resolve(gctx, kind, h)
			if err != nil {
				r.logger.Warn("resolving definition",
					zap.String("kind", string(kind)),
					zap.Uint32("hash", h),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			out[h] = def
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func classify(kind Kind, hash uint32, err error) error {
	if errors.Is(err, bungie.ErrNotFound) {
		return fmt.Errorf("%w: %s %d: %w", ErrNotFound, kind, hash, err)
	}
	return fmt.Errorf("%w: %s %d: %w", ErrUnavailable, kind, hash, err)
}
