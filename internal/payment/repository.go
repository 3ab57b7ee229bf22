package payment

import (
	"context"
	"database/sql"
	"errors"

	"savora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Repository interface {
	Save(ctx context.Context, p *Payment) error
	GetByReferenceID(ctx context.Context, referenceID string) (*Payment, error)
	GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, referenceID, status string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, p *Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Payment"),
		zap.String("method", "Save"),
		zap.String("reference_id", p.ReferenceID),
	)

	const q = `
		INSERT INTO payments (
			order_id, reference_id, provider_payment_id,
			amount, currency, status,
			client_secret, redirect_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx, q,
		p.OrderID, p.ReferenceID, p.ProviderPaymentID,
		p.Amount, p.Currency, p.Status,
		p.ClientSecret, p.RedirectURL,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}
	return nil
}

const paymentColumns = `
	id, order_id, reference_id, provider_payment_id,
	amount, currency, status,
	client_secret, redirect_url,
	created_at, updated_at
`

func (r *repository) GetByReferenceID(ctx context.Context, referenceID string) (*Payment, error) {
	q := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE reference_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p Payment
	err := r.db.QueryRowContext(ctx, q, referenceID).Scan(
		&p.ID, &p.OrderID, &p.ReferenceID, &p.ProviderPaymentID,
		&p.Amount, &p.Currency, &p.Status,
		&p.ClientSecret, &p.RedirectURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	q := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p Payment
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&p.ID, &p.OrderID, &p.ReferenceID, &p.ProviderPaymentID,
		&p.Amount, &p.Currency, &p.Status,
		&p.ClientSecret, &p.RedirectURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateStatus(ctx context.Context, referenceID, status string) error {
	const q = `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE reference_id = $1
	`

	_, err := r.db.ExecContext(ctx, q, referenceID, status)
	if err != nil {
		logger.FromCtx(ctx).Error("update failed", zap.Error(err))
	}
	return err
}
