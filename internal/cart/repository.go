package cart

import (
	"context"
	"database/sql"

	"savora-be/internal/catalog"
	"savora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetLines(ctx context.Context, owner Owner) ([]*Line, error)
	GetLineByRef(ctx context.Context, owner Owner, ref catalog.ProductRef, variantID, combinationID *string) (*Line, error)

	CreateLine(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, owner Owner, lineID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, owner Owner, lineID uuid.UUID) error
	Clear(ctx context.Context, owner Owner) error

	// MergeGuest reassigns a guest cart to a user after login.
	MergeGuest(ctx context.Context, guestID uuid.UUID, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func ownerClause(owner Owner) (string, interface{}) {
	if owner.UserID != nil {
		return "user_id = $1", *owner.UserID
	}
	return "guest_id = $1", *owner.GuestID
}

const lineColumns = `
	id, user_id, guest_id,
	ref_kind, ref_id, quantity,
	variant_id, combination_id, price_at_add,
	snapshot_name, snapshot_price, snapshot_image_url,
	created_at, updated_at
`

func scanLine(scan func(dest ...interface{}) error) (*Line, error) {
	var (
		l             Line
		snapName      sql.NullString
		snapPrice     sql.NullInt64
		snapImageURL  sql.NullString
	)

	err := scan(
		&l.ID, &l.UserID, &l.GuestID,
		&l.Ref.Kind, &l.Ref.ID, &l.Quantity,
		&l.VariantID, &l.CombinationID, &l.PriceAtAdd,
		&snapName, &snapPrice, &snapImageURL,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if snapName.Valid {
		snap := &catalog.Snapshot{
			Name:  snapName.String,
			Price: snapPrice.Int64,
		}
		if snapImageURL.Valid {
			snap.ImageURL = &snapImageURL.String
		}
		l.Snapshot = snap
	}
	return &l, nil
}

func (r *repository) GetLines(ctx context.Context, owner Owner) ([]*Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Cart"),
		zap.String("method", "GetLines"),
	)

	clause, arg := ownerClause(owner)
	q := `
		SELECT ` + lineColumns + `
		FROM cart_lines
		WHERE ` + clause + `
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Line
	for rows.Next() {
		l, err := scanLine(rows.Scan)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *repository) GetLineByRef(
	ctx context.Context,
	owner Owner,
	ref catalog.ProductRef,
	variantID, combinationID *string,
) (*Line, error) {

	clause, arg := ownerClause(owner)
	q := `
		SELECT ` + lineColumns + `
		FROM cart_lines
		WHERE ` + clause + `
		  AND ref_kind = $2 AND ref_id = $3
		  AND variant_id IS NOT DISTINCT FROM $4
		  AND combination_id IS NOT DISTINCT FROM $5
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, q, arg, ref.Kind, ref.ID, variantID, combinationID)
	l, err := scanLine(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (r *repository) CreateLine(ctx context.Context, line *Line) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Cart"),
		zap.String("method", "CreateLine"),
		zap.String("line_id", line.ID.String()),
	)

	const q = `
		INSERT INTO cart_lines (
			id, user_id, guest_id,
			ref_kind, ref_id, quantity,
			variant_id, combination_id, price_at_add,
			snapshot_name, snapshot_price, snapshot_image_url
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12
		)
	`

	var snapName, snapImageURL *string
	var snapPrice *int64
	if line.Snapshot != nil {
		snapName = &line.Snapshot.Name
		snapPrice = &line.Snapshot.Price
		snapImageURL = line.Snapshot.ImageURL
	}

	_, err := r.db.ExecContext(
		ctx, q,
		line.ID, line.UserID, line.GuestID,
		line.Ref.Kind, line.Ref.ID, line.Quantity,
		line.VariantID, line.CombinationID, line.PriceAtAdd,
		snapName, snapPrice, snapImageURL,
	)
	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) UpdateQuantity(ctx context.Context, owner Owner, lineID uuid.UUID, quantity int) error {
	clause, arg := ownerClause(owner)
	q := `
		UPDATE cart_lines
		SET quantity = $2, updated_at = NOW()
		WHERE id = $3 AND ` + clause

	res, err := r.db.ExecContext(ctx, q, arg, quantity, lineID)
	if err != nil {
		logger.FromCtx(ctx).Error("update failed", zap.Error(err))
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repository) RemoveLine(ctx context.Context, owner Owner, lineID uuid.UUID) error {
	clause, arg := ownerClause(owner)
	q := `DELETE FROM cart_lines WHERE id = $2 AND ` + clause

	res, err := r.db.ExecContext(ctx, q, arg, lineID)
	if err != nil {
		logger.FromCtx(ctx).Error("delete failed", zap.Error(err))
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, owner Owner) error {
	clause, arg := ownerClause(owner)
	q := `DELETE FROM cart_lines WHERE ` + clause

	_, err := r.db.ExecContext(ctx, q, arg)
	if err != nil {
		logger.FromCtx(ctx).Error("clear failed", zap.Error(err))
	}
	return err
}

func (r *repository) MergeGuest(ctx context.Context, guestID uuid.UUID, userID uint) error {
	const q = `
		UPDATE cart_lines
		SET user_id = $1, guest_id = NULL, updated_at = NOW()
		WHERE guest_id = $2
	`

	_, err := r.db.ExecContext(ctx, q, userID, guestID)
	if err != nil {
		logger.FromCtx(ctx).Error("merge failed", zap.Error(err))
	}
	return err
}
