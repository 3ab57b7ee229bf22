package cart

import (
	"context"
	"time"

	"savora-be/internal/catalog"
	"savora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	Add(ctx context.Context, params AddParams) (*Line, error)
	Lines(ctx context.Context, owner Owner) ([]*Line, error)
	UpdateQuantity(ctx context.Context, params UpdateParams) error
	Remove(ctx context.Context, owner Owner, lineID uuid.UUID) error
	Clear(ctx context.Context, owner Owner) error
	MergeGuest(ctx context.Context, guestID uuid.UUID, userID uint) error
}

type service struct {
	repo        Repository
	catalogRepo catalog.Repository
}

func NewService(repo Repository, catalogRepo catalog.Repository) Service {
	return &service{repo: repo, catalogRepo: catalogRepo}
}

// Add puts a product in the cart, merging quantity into an existing line for
// the same ref+variant. Guest lines capture a product snapshot so checkout
// still works if the catalog row disappears later.
func (s *service) Add(ctx context.Context, params AddParams) (*Line, error) {
	if !params.Owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if params.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if params.VariantID != nil && params.CombinationID != nil {
		return nil, ErrVariantConflict
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Cart"),
		zap.String("method", "Add"),
		zap.String("ref", params.Ref.Key()),
		zap.Int("quantity", params.Quantity),
	)

	// Adding requires a live product; the fallback chain only protects lines
	// that are already in the cart.
	product, err := s.catalogRepo.GetByRef(ctx, params.Ref)
	if err == catalog.ErrNotFound {
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("product lookup failed", zap.Error(err))
		return nil, err
	}
	if !product.Available {
		return nil, ErrProductUnavailable
	}

	existing, err := s.repo.GetLineByRef(ctx, params.Owner, params.Ref, params.VariantID, params.CombinationID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		finalQty := existing.Quantity + params.Quantity
		if err := s.repo.UpdateQuantity(ctx, params.Owner, existing.ID, finalQty); err != nil {
			return nil, err
		}
		existing.Quantity = finalQty
		return existing, nil
	}

	price := product.Price
	line := &Line{
		ID:            uuid.New(),
		UserID:        params.Owner.UserID,
		GuestID:       params.Owner.GuestID,
		Ref:           params.Ref,
		Quantity:      params.Quantity,
		VariantID:     params.VariantID,
		CombinationID: params.CombinationID,
		PriceAtAdd:    &price,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if params.Owner.IsGuest() {
		line.Snapshot = &catalog.Snapshot{
			Name:     product.Name,
			Price:    product.Price,
			ImageURL: product.ImageURL,
		}
	}

	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}

	log.Info("line added", zap.String("line_id", line.ID.String()))
	return line, nil
}

func (s *service) Lines(ctx context.Context, owner Owner) ([]*Line, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	return s.repo.GetLines(ctx, owner)
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (s *service) UpdateQuantity(ctx context.Context, params UpdateParams) error {
	if !params.Owner.Valid() {
		return ErrInvalidOwner
	}

	if params.Quantity <= 0 {
		return s.repo.RemoveLine(ctx, params.Owner, params.LineID)
	}

	return s.repo.UpdateQuantity(ctx, params.Owner, params.LineID, params.Quantity)
}

func (s *service) Remove(ctx context.Context, owner Owner, lineID uuid.UUID) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	return s.repo.RemoveLine(ctx, owner, lineID)
}

func (s *service) Clear(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	return s.repo.Clear(ctx, owner)
}

func (s *service) MergeGuest(ctx context.Context, guestID uuid.UUID, userID uint) error {
	return s.repo.MergeGuest(ctx, guestID, userID)
}
