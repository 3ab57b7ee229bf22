package catalog

import (
	"context"
)

// Service defines the storefront-facing catalog reads.
type Service interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	ListMenu(ctx context.Context, categoryID *string) ([]*MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) ListMenu(ctx context.Context, categoryID *string) ([]*MenuItem, error) {
	return s.repo.ListMenu(ctx, categoryID)
}

func (s *service) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}
