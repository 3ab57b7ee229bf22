package discount

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCodeInactive  = errors.New("discount code is not active")
	ErrCodeExpired   = errors.New("discount code is outside its validity window")
	ErrCodeExhausted = errors.New("discount code usage limit reached")
	ErrMinSubtotal   = errors.New("order subtotal below discount minimum")
)

type Service interface {
	// Lookup validates the code against the current subtotal and returns the
	// discount amount in cents. Pure read; totals are recomputed from scratch
	// on every quote, so applying and removing a code is idempotent.
	Lookup(ctx context.Context, code string, subtotal int64) (*Code, int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Lookup(ctx context.Context, code string, subtotal int64) (*Code, int64, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	if !c.IsActive {
		return nil, 0, ErrCodeInactive
	}

	now := time.Now()
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return nil, 0, ErrCodeExpired
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return nil, 0, ErrCodeExpired
	}

	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return nil, 0, ErrCodeExhausted
	}

	if subtotal < c.MinSubtotal {
		return nil, 0, ErrMinSubtotal
	}

	return c, c.AmountFor(subtotal), nil
}
