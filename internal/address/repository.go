package address

import (
	"context"
	"database/sql"
	"errors"

	"savora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	GetByUserID(ctx context.Context, userID uint) ([]*Address, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)

	Create(ctx context.Context, addr *Address) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	ClearDefault(ctx context.Context, userID uint) error
	SetDefault(ctx context.Context, userID uint, addressID uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const addressColumns = `
	id, user_id,
	full_name, phone,
	line1, line2,
	city, region, postal_code, country,
	is_default, is_active
`

func (r *repository) GetByUserID(
	ctx context.Context,
	userID uint,
) ([]*Address, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByUserID"),
		zap.Uint("user_id", userID),
	)

	q := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		  AND is_active = true
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Address

	for rows.Next() {
		var a Address
		if err := rows.Scan(
			&a.ID, &a.UserID,
			&a.FullName, &a.Phone,
			&a.Line1, &a.Line2,
			&a.City, &a.Region, &a.PostalCode, &a.Country,
			&a.IsDefault, &a.IsActive,
		); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, &a)
	}

	return res, rows.Err()
}

func (r *repository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*Address, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByID"),
		zap.String("address_id", id.String()),
	)

	q := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE id = $1 AND is_active = true
		LIMIT 1
	`

	var a Address
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.UserID,
		&a.FullName, &a.Phone,
		&a.Line1, &a.Line2,
		&a.City, &a.Region, &a.PostalCode, &a.Country,
		&a.IsDefault, &a.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}

	return &a, nil
}

func (r *repository) Create(
	ctx context.Context,
	addr *Address,
) error {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "Create"),
		zap.String("address_id", addr.ID.String()),
	)

	const q = `
		INSERT INTO addresses (
			id, user_id,
			full_name, phone,
			line1, line2,
			city, region, postal_code, country,
			is_default, is_active
		) VALUES (
			$1, $2,
			$3, $4,
			$5, $6,
			$7, $8, $9, $10,
			$11, $12
		)
	`

	_, err := r.db.ExecContext(
		ctx, q,
		addr.ID, addr.UserID,
		addr.FullName, addr.Phone,
		addr.Line1, addr.Line2,
		addr.City, addr.Region, addr.PostalCode, addr.Country,
		addr.IsDefault, addr.IsActive,
	)

	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}

	return nil
}

func (r *repository) Deactivate(
	ctx context.Context,
	id uuid.UUID,
) error {

	const q = `
		UPDATE addresses
		SET is_active = false,
		    is_default = false
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *repository) ClearDefault(
	ctx context.Context,
	userID uint,
) error {

	const q = `
		UPDATE addresses
		SET is_default = false
		WHERE user_id = $1
		  AND is_default = true
	`

	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}

func (r *repository) SetDefault(
	ctx context.Context,
	userID uint,
	addressID uuid.UUID,
) error {

	const q = `
		UPDATE addresses
		SET is_default = true
		WHERE user_id = $1
		  AND id = $2
		  AND is_active = true
	`

	_, err := r.db.ExecContext(ctx, q, userID, addressID)
	return err
}
