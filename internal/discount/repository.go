package discount

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"savora-be/internal/logger"

	"go.uber.org/zap"
)

var ErrCodeNotFound = errors.New("discount code not found")

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Code, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Code, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Discount"),
		zap.String("method", "GetByCode"),
	)

	const q = `
		SELECT
			c.id, c.code, c.kind, c.value,
			c.min_subtotal, c.max_uses,
			c.starts_at, c.ends_at, c.is_active,
			COUNT(u.order_id) AS used_count
		FROM discount_codes c
		LEFT JOIN discount_usages u ON u.discount_code_id = c.id
		WHERE UPPER(c.code) = $1
		GROUP BY c.id
		LIMIT 1
	`

	var c Code
	err := r.db.QueryRowContext(ctx, q, strings.ToUpper(code)).Scan(
		&c.ID, &c.Code, &c.Kind, &c.Value,
		&c.MinSubtotal, &c.MaxUses,
		&c.StartsAt, &c.EndsAt, &c.IsActive,
		&c.UsedCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}

	return &c, nil
}
