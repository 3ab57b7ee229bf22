package order

import (
	"context"
	"database/sql"

	"savora-be/internal/catalog"
	"savora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrderTx creates the order header, line snapshots, address
	// snapshot and discount usage in one transaction, validating stock and
	// availability per line server-side. Either everything is created or
	// nothing is; a failed validation comes back as *PlacementRejection.
	CreateOrderTx(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, userID uint, limit, page int) ([]*Order, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdatePaymentStateByNumber(ctx context.Context, number string, state PaymentState) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Order"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_number", o.Number),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Insert order header with address and totals snapshots
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, number, user_id, guest_email,
			status, payment_state,
			subtotal, delivery_fee, tax, discount, grand_total,
			discount_code_id,
			addr_full_name, addr_phone, addr_line1, addr_line2,
			addr_city, addr_region, addr_postal_code, addr_country
		) VALUES (
			$1,$2,$3,$4,
			$5,$6,
			$7,$8,$9,$10,$11,
			$12,
			$13,$14,$15,$16,
			$17,$18,$19,$20
		)
	`,
		o.ID, o.Number, o.UserID, o.GuestEmail,
		o.Status, o.PaymentState,
		o.Totals.Subtotal, o.Totals.DeliveryFee, o.Totals.Tax, o.Totals.Discount, o.Totals.GrandTotal,
		o.DiscountCodeID,
		o.Address.FullName, o.Address.Phone, o.Address.Line1, o.Address.Line2,
		o.Address.City, o.Address.Region, o.Address.PostalCode, o.Address.Country,
	)
	if err != nil {
		log.Error("order insert failed", zap.Error(err))
		return err
	}

	// 2. Validate availability/stock per line, then snapshot it
	for i := range o.Items {
		item := &o.Items[i]

		if rej, err := validateLine(ctx, tx, item); err != nil {
			return err
		} else if rej != nil {
			return rej
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id,
				ref_kind, ref_id, name,
				variant_id, combination_id,
				quantity, unit_price, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			item.ID, o.ID,
			item.Ref.Kind, item.Ref.ID, item.Name,
			item.VariantID, item.CombinationID,
			item.Quantity, item.UnitPrice, item.Subtotal,
		)
		if err != nil {
			log.Error("item insert failed", zap.Error(err))
			return err
		}
	}

	// 3. Record discount usage once; the unique index on
	// (discount_code_id, order_id) makes replays impossible.
	if o.DiscountCodeID != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO discount_usages (discount_code_id, order_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, o.DiscountCodeID, o.ID)
		if err != nil {
			log.Error("discount usage insert failed", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

// validateLine enforces server-side price/stock rules. Lines whose backing
// row is gone are allowed through: they were resolved from snapshots and the
// degraded-checkout policy applies.
func validateLine(ctx context.Context, tx *sql.Tx, item *Item) (*PlacementRejection, error) {
	switch item.Ref.Kind {
	case catalog.KindMenuItem:
		var available bool
		err := tx.QueryRowContext(ctx, `
			SELECT available FROM menu_items WHERE id = $1 AND is_active = true
		`, item.Ref.ID).Scan(&available)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !available {
			return &PlacementRejection{LineName: item.Name, Reason: "item is no longer available"}, nil
		}

	case catalog.KindDish:
		var available bool
		err := tx.QueryRowContext(ctx, `
			SELECT available FROM dishes WHERE id = $1
		`, item.Ref.ID).Scan(&available)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !available {
			return &PlacementRejection{LineName: item.Name, Reason: "item is no longer available"}, nil
		}

	case catalog.KindLegacy:
		res, err := tx.ExecContext(ctx, `
			UPDATE legacy_products
			SET stock = stock - $1
			WHERE id = $2 AND stock >= $1
		`, item.Quantity, item.Ref.ID)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM legacy_products WHERE id = $1)
			`, item.Ref.ID).Scan(&exists); err != nil {
				return nil, err
			}
			if exists {
				return &PlacementRejection{LineName: item.Name, Reason: "insufficient stock"}, nil
			}
		}
	}

	return nil, nil
}

const orderColumns = `
	id, number, user_id, guest_email,
	status, payment_state,
	subtotal, delivery_fee, tax, discount, grand_total,
	discount_code_id,
	addr_full_name, addr_phone, addr_line1, addr_line2,
	addr_city, addr_region, addr_postal_code, addr_country,
	created_at, updated_at
`

func scanOrder(scan func(dest ...interface{}) error) (*Order, error) {
	var o Order
	err := scan(
		&o.ID, &o.Number, &o.UserID, &o.GuestEmail,
		&o.Status, &o.PaymentState,
		&o.Totals.Subtotal, &o.Totals.DeliveryFee, &o.Totals.Tax, &o.Totals.Discount, &o.Totals.GrandTotal,
		&o.DiscountCodeID,
		&o.Address.FullName, &o.Address.Phone, &o.Address.Line1, &o.Address.Line2,
		&o.Address.City, &o.Address.Region, &o.Address.PostalCode, &o.Address.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, o *Order) error {
	const q = `
		SELECT id, order_id, ref_kind, ref_id, name,
		       variant_id, combination_id,
		       quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.Ref.Kind, &it.Ref.ID, &it.Name,
			&it.VariantID, &it.CombinationID,
			&it.Quantity, &it.UnitPrice, &it.Subtotal,
		); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 LIMIT 1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1 LIMIT 1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, q, number).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint, limit, page int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	q := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, q, userID, limit, (page-1)*limit)
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	const q = `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, q, id, status)
	return err
}

func (r *repository) UpdatePaymentStateByNumber(ctx context.Context, number string, state PaymentState) error {
	const q = `
		UPDATE orders
		SET payment_state = $2, updated_at = NOW()
		WHERE number = $1
	`

	_, err := r.db.ExecContext(ctx, q, number, state)
	return err
}
