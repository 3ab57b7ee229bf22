package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Category), args.Error(1)
}

func (m *MockRepository) ListMenu(ctx context.Context, categoryID *string) ([]*MenuItem, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*MenuItem), args.Error(1)
}

func (m *MockRepository) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MenuItem), args.Error(1)
}

func (m *MockRepository) GetDish(ctx context.Context, id string) (*Dish, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dish), args.Error(1)
}

func (m *MockRepository) GetLegacyProduct(ctx context.Context, id string) (*LegacyProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LegacyProduct), args.Error(1)
}

func (m *MockRepository) GetByRef(ctx context.Context, ref ProductRef) (*ResolvedProduct, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ResolvedProduct), args.Error(1)
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	liveRef := ProductRef{Kind: KindMenuItem, ID: "m-1"}
	goneRef := ProductRef{Kind: KindDish, ID: "d-1"}
	deadRef := ProductRef{Kind: KindLegacy, ID: "l-1"}

	t.Run("PreservesLengthAcrossMixedOutcomes", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, liveRef).Return(&ResolvedProduct{
			Ref: liveRef, Name: "Pad Thai", Price: 1200, Available: true, Source: SourceLookup,
		}, nil)
		repo.On("GetByRef", mock.Anything, goneRef).Return(nil, ErrNotFound)
		repo.On("GetByRef", mock.Anything, deadRef).Return(nil, ErrNotFound)

		r := NewResolver(repo, 8)
		out := r.Resolve(ctx, []LineView{
			{Ref: liveRef},
			{Ref: goneRef, Snapshot: &Snapshot{Name: "Old Dish", Price: 900}},
			{Ref: deadRef, FallbackName: strPtr("Retired item"), PriceAtAdd: int64Ptr(500)},
		})

		require.Len(t, out, 3)
		assert.Equal(t, SourceLookup, out[0].Source)
		assert.Equal(t, SourceSnapshot, out[1].Source)
		assert.Equal(t, SourcePlaceholder, out[2].Source)
	})

	t.Run("SnapshotResolutionStaysPurchasable", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, goneRef).Return(nil, ErrNotFound)

		r := NewResolver(repo, 8)
		out := r.Resolve(ctx, []LineView{
			{Ref: goneRef, Snapshot: &Snapshot{Name: "Old Dish", Price: 900}},
		})

		require.Len(t, out, 1)
		assert.True(t, out[0].Available)
		assert.Equal(t, "Old Dish", out[0].Name)
		assert.Equal(t, int64(900), out[0].Price)
	})

	t.Run("PlaceholderIsNeverPurchasable", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, deadRef).Return(nil, ErrNotFound)

		r := NewResolver(repo, 8)
		out := r.Resolve(ctx, []LineView{{Ref: deadRef}})

		require.Len(t, out, 1)
		assert.False(t, out[0].Available)
		assert.Equal(t, "Unavailable item", out[0].Name)
		assert.Equal(t, int64(0), out[0].Price)
	})

	t.Run("PlaceholderKeepsLineFallbacks", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, deadRef).Return(nil, ErrNotFound)

		r := NewResolver(repo, 8)
		out := r.Resolve(ctx, []LineView{
			{Ref: deadRef, FallbackName: strPtr("Retired item"), PriceAtAdd: int64Ptr(500)},
		})

		assert.Equal(t, "Retired item", out[0].Name)
		assert.Equal(t, int64(500), out[0].Price)
	})

	t.Run("SecondResolveHitsCache", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, liveRef).Return(&ResolvedProduct{
			Ref: liveRef, Name: "Pad Thai", Price: 1200, Available: true, Source: SourceLookup,
		}, nil).Once()

		r := NewResolver(repo, 8)
		r.Resolve(ctx, []LineView{{Ref: liveRef}})
		out := r.Resolve(ctx, []LineView{{Ref: liveRef}})

		assert.Equal(t, SourceCache, out[0].Source)
		repo.AssertNumberOfCalls(t, "GetByRef", 1)
	})

	t.Run("InvalidateForcesLookup", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByRef", mock.Anything, liveRef).Return(&ResolvedProduct{
			Ref: liveRef, Name: "Pad Thai", Price: 1200, Available: true, Source: SourceLookup,
		}, nil)

		r := NewResolver(repo, 8)
		r.Resolve(ctx, []LineView{{Ref: liveRef}})
		r.Invalidate(liveRef)
		r.Resolve(ctx, []LineView{{Ref: liveRef}})

		repo.AssertNumberOfCalls(t, "GetByRef", 2)
	})

	t.Run("LineAttachedResolutionWinsOverLookup", func(t *testing.T) {
		repo := new(MockRepository)

		cached := &ResolvedProduct{Ref: liveRef, Name: "Cached", Price: 100, Available: true, Source: SourceCache}
		r := NewResolver(repo, 8)
		out := r.Resolve(ctx, []LineView{{Ref: liveRef, Cached: cached}})

		assert.Equal(t, "Cached", out[0].Name)
		repo.AssertNotCalled(t, "GetByRef")
	})
}
