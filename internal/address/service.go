package address

import (
	"context"
	"errors"

	"savora-be/internal/logger"
	"savora-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the business logic for the address book. Addresses are
// selected, not mutated, during checkout; their lifecycle is independent from
// orders.
type Service interface {
	List(ctx context.Context) ([]*Address, error)
	Get(ctx context.Context, addressID uuid.UUID) (*Address, error)

	Create(ctx context.Context, input CreateAddressInput) (*Address, error)
	Update(ctx context.Context, input UpdateAddressInput) (*Address, error)
	Delete(ctx context.Context, addressID uuid.UUID) error

	SetDefaultAddress(ctx context.Context, addressID uuid.UUID) error

	// SelectForCheckout loads a saved address owned by the caller and shapes
	// it into the uniform checkout form.
	SelectForCheckout(ctx context.Context, addressID uuid.UUID) (*Form, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func normalizedPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	return utils.StrPtr(utils.NormalizePhone(*phone))
}

func (s *service) List(ctx context.Context) ([]*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("unauthenticated")
	}

	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) Get(ctx context.Context, addressID uuid.UUID) (*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Get"),
		zap.String("address_id", addressID.String()),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("unauthenticated")
	}

	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		log.Error("address not found", zap.Error(err))
		return nil, err
	}

	if addr.UserID != userID || !addr.IsActive {
		log.Warn("unauthorized address access")
		return nil, ErrNotFound
	}

	return addr, nil
}

func (s *service) Create(ctx context.Context, input CreateAddressInput) (*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Create"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("unauthenticated")
	}

	addr := &Address{
		ID:         uuid.New(),
		UserID:     userID,
		FullName:   input.FullName,
		Phone:      normalizedPhone(input.Phone),
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		Region:     input.Region,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsActive:   true,
		IsDefault:  input.SetAsDefault,
	}

	if input.SetAsDefault {
		_ = s.repo.ClearDefault(ctx, userID)
	}

	if err := s.repo.Create(ctx, addr); err != nil {
		log.Error("failed to create address", zap.Error(err))
		return nil, err
	}

	log.Info("address created", zap.String("address_id", addr.ID.String()))
	return addr, nil
}

// Update replaces the record: the old row is deactivated and a fresh one
// created, so order address snapshots never point at edited data.
func (s *service) Update(ctx context.Context, input UpdateAddressInput) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("unauthenticated")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Update"),
		zap.Uint("user_id", userID),
	)

	oldID, err := uuid.Parse(input.AddressID)
	if err != nil {
		return nil, errors.New("invalid address id")
	}

	oldAddr, err := s.repo.GetByID(ctx, oldID)
	if err != nil || oldAddr.UserID != userID {
		return nil, ErrNotFound
	}

	_ = s.repo.Deactivate(ctx, oldID)

	newAddr := &Address{
		ID:         uuid.New(),
		UserID:     userID,
		FullName:   input.FullName,
		Phone:      normalizedPhone(input.Phone),
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		Region:     input.Region,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsActive:   true,
		IsDefault:  input.SetAsDefault,
	}

	if input.SetAsDefault {
		_ = s.repo.ClearDefault(ctx, userID)
	}

	if err := s.repo.Create(ctx, newAddr); err != nil {
		log.Error("failed to update address", zap.Error(err))
		return nil, err
	}

	log.Info("address updated",
		zap.String("old_id", oldID.String()),
		zap.String("new_id", newAddr.ID.String()),
	)

	return newAddr, nil
}

func (s *service) Delete(ctx context.Context, addressID uuid.UUID) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("unauthenticated")
	}

	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil || addr.UserID != userID {
		return ErrNotFound
	}

	return s.repo.Deactivate(ctx, addressID)
}

func (s *service) SetDefaultAddress(ctx context.Context, addressID uuid.UUID) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("unauthenticated")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "SetDefaultAddress"),
		zap.String("address_id", addressID.String()),
	)

	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil || addr.UserID != userID {
		return ErrNotFound
	}

	if err := s.repo.ClearDefault(ctx, userID); err != nil {
		log.Error("failed to clear default address", zap.Error(err))
		return err
	}

	return s.repo.SetDefault(ctx, userID, addressID)
}

func (s *service) SelectForCheckout(ctx context.Context, addressID uuid.UUID) (*Form, error) {
	addr, err := s.Get(ctx, addressID)
	if err != nil {
		return nil, err
	}

	form := FormFromSaved(addr)
	return &form, nil
}
