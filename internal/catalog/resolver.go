package catalog

import (
	"context"

	"savora-be/internal/logger"
	"savora-be/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// LineView is the slice of a cart line the resolver needs. The cart package
// maps its own lines into this shape so resolution stays a pure read.
type LineView struct {
	Ref ProductRef

	// Cached is a resolution already attached to the line by a previous pass.
	Cached *ResolvedProduct

	// Snapshot is the denormalized copy captured at add-to-cart time.
	Snapshot *Snapshot

	// Last-resort fields carried on the line itself.
	FallbackName *string
	PriceAtAdd   *int64
}

// Strategy attempts one resolution step; nil means "not mine, try the next".
type Strategy func(ctx context.Context, line LineView) *ResolvedProduct

// Resolver turns cart lines into ResolvedProducts through an ordered fallback
// chain: line-attached/LRU cache, authoritative lookup, embedded snapshot,
// synthetic placeholder. The chain never drops a line and never returns an
// error; a deleted product degrades, it does not abort checkout.
type Resolver struct {
	repo  Repository
	cache *lru.Cache[string, *ResolvedProduct]
	chain []Strategy
}

func NewResolver(repo Repository, cacheSize int) *Resolver {
	cache, err := lru.New[string, *ResolvedProduct](cacheSize)
	if err != nil {
		// only possible with a non-positive size
		panic(err)
	}

	r := &Resolver{repo: repo, cache: cache}
	r.chain = []Strategy{
		r.fromCache,
		r.fromLookup,
		fromSnapshot,
		placeholder,
	}
	return r
}

// Resolve maps every line to a ResolvedProduct. Output length always equals
// input length.
func (r *Resolver) Resolve(ctx context.Context, lines []LineView) []ResolvedProduct {
	out := make([]ResolvedProduct, 0, len(lines))

	for _, line := range lines {
		out = append(out, *r.resolveOne(ctx, line))
	}
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, line LineView) *ResolvedProduct {
	for _, strategy := range r.chain {
		if p := strategy(ctx, line); p != nil {
			metrics.ResolverFallbacks.WithLabelValues(string(p.Source)).Inc()
			return p
		}
	}
	// unreachable: placeholder always resolves
	return placeholder(ctx, line)
}

// Invalidate drops a cached resolution, called on realtime change events so
// the next Resolve hits the authoritative table again.
func (r *Resolver) Invalidate(ref ProductRef) {
	r.cache.Remove(ref.Key())
}

// InvalidateAll drops every cached resolution; used when the change feed
// reconnects and events may have been missed.
func (r *Resolver) InvalidateAll() {
	r.cache.Purge()
}

func (r *Resolver) fromCache(_ context.Context, line LineView) *ResolvedProduct {
	if line.Cached != nil {
		return line.Cached
	}
	if p, ok := r.cache.Get(line.Ref.Key()); ok {
		cached := *p
		cached.Source = SourceCache
		return &cached
	}
	return nil
}

func (r *Resolver) fromLookup(ctx context.Context, line LineView) *ResolvedProduct {
	p, err := r.repo.GetByRef(ctx, line.Ref)
	if err != nil {
		if err != ErrNotFound {
			logger.FromCtx(ctx).Warn("product lookup degraded",
				zap.String("ref", line.Ref.Key()),
				zap.Error(err),
			)
		}
		return nil
	}
	r.cache.Add(line.Ref.Key(), p)
	return p
}

func fromSnapshot(_ context.Context, line LineView) *ResolvedProduct {
	if line.Snapshot == nil {
		return nil
	}
	return &ResolvedProduct{
		Ref:       line.Ref,
		Name:      line.Snapshot.Name,
		Price:     line.Snapshot.Price,
		Available: true,
		ImageURL:  line.Snapshot.ImageURL,
		Source:    SourceSnapshot,
	}
}

func placeholder(_ context.Context, line LineView) *ResolvedProduct {
	name := "Unavailable item"
	if line.FallbackName != nil && *line.FallbackName != "" {
		name = *line.FallbackName
	}

	var price int64
	if line.PriceAtAdd != nil {
		price = *line.PriceAtAdd
	}

	return &ResolvedProduct{
		Ref:       line.Ref,
		Name:      name,
		Price:     price,
		Available: false,
		Source:    SourcePlaceholder,
	}
}
