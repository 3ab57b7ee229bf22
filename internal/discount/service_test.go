package discount

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Code, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Code), args.Error(1)
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func activeCode(kind Kind, value int64) *Code {
	return &Code{
		ID:       uuid.New(),
		Code:     "SAVE",
		Kind:     kind,
		Value:    value,
		IsActive: true,
		StartsAt: timePtr(time.Now().Add(-time.Hour)),
		EndsAt:   timePtr(time.Now().Add(time.Hour)),
	}
}

func TestService_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("PercentageAmount", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "SAVE").Return(activeCode(KindPercentage, 10), nil)

		_, amount, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		require.NoError(t, err)
		assert.Equal(t, int64(240), amount)
	})

	t.Run("FixedAmount", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "SAVE").Return(activeCode(KindFixed, 500), nil)

		_, amount, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		require.NoError(t, err)
		assert.Equal(t, int64(500), amount)
	})

	t.Run("Inactive", func(t *testing.T) {
		repo := new(MockRepository)
		c := activeCode(KindFixed, 500)
		c.IsActive = false
		repo.On("GetByCode", mock.Anything, "SAVE").Return(c, nil)

		_, _, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		assert.ErrorIs(t, err, ErrCodeInactive)
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		repo := new(MockRepository)
		c := activeCode(KindFixed, 500)
		c.EndsAt = timePtr(time.Now().Add(-time.Minute))
		repo.On("GetByCode", mock.Anything, "SAVE").Return(c, nil)

		_, _, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		assert.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("Exhausted", func(t *testing.T) {
		repo := new(MockRepository)
		c := activeCode(KindFixed, 500)
		c.MaxUses = intPtr(3)
		c.UsedCount = 3
		repo.On("GetByCode", mock.Anything, "SAVE").Return(c, nil)

		_, _, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		assert.ErrorIs(t, err, ErrCodeExhausted)
	})

	t.Run("BelowMinimumSubtotal", func(t *testing.T) {
		repo := new(MockRepository)
		c := activeCode(KindFixed, 500)
		c.MinSubtotal = 5000
		repo.On("GetByCode", mock.Anything, "SAVE").Return(c, nil)

		_, _, err := NewService(repo).Lookup(ctx, "SAVE", 2400)
		assert.ErrorIs(t, err, ErrMinSubtotal)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "NOPE").Return(nil, ErrCodeNotFound)

		_, _, err := NewService(repo).Lookup(ctx, "NOPE", 2400)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})
}
