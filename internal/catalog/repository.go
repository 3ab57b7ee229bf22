package catalog

import (
	"context"
	"database/sql"
	"errors"

	"savora-be/internal/logger"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	ListMenu(ctx context.Context, categoryID *string) ([]*MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
	GetDish(ctx context.Context, id string) (*Dish, error)
	GetLegacyProduct(ctx context.Context, id string) (*LegacyProduct, error)

	// GetByRef dispatches over the reference tag and returns a normalized
	// view, ErrNotFound when the row is gone.
	GetByRef(ctx context.Context, ref ProductRef) (*ResolvedProduct, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListCategories(ctx context.Context) ([]*Category, error) {
	const q = `
		SELECT id, name, image_url, position
		FROM categories
		WHERE is_active = true
		ORDER BY position ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.Position); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

func (r *repository) ListMenu(ctx context.Context, categoryID *string) ([]*MenuItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Catalog"),
		zap.String("method", "ListMenu"),
	)

	q := `
		SELECT id, category_id, name, description, price, available, image_url
		FROM menu_items
		WHERE is_active = true
	`
	args := []interface{}{}
	if categoryID != nil {
		q += ` AND category_id = $1`
		args = append(args, *categoryID)
	}
	q += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(
			&m.ID, &m.CategoryID, &m.Name, &m.Description,
			&m.Price, &m.Available, &m.ImageURL,
		); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (r *repository) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	const q = `
		SELECT id, category_id, name, description, price, available, image_url
		FROM menu_items
		WHERE id = $1 AND is_active = true
		LIMIT 1
	`

	var m MenuItem
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.CategoryID, &m.Name, &m.Description,
		&m.Price, &m.Available, &m.ImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetDish(ctx context.Context, id string) (*Dish, error) {
	const q = `
		SELECT id, name, price, available, image_url
		FROM dishes
		WHERE id = $1
		LIMIT 1
	`

	var d Dish
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Name, &d.Price, &d.Available, &d.ImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *repository) GetLegacyProduct(ctx context.Context, id string) (*LegacyProduct, error) {
	const q = `
		SELECT id, name, price, stock, image_url
		FROM legacy_products
		WHERE id = $1
		LIMIT 1
	`

	var p LegacyProduct
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByRef(ctx context.Context, ref ProductRef) (*ResolvedProduct, error) {
	switch ref.Kind {
	case KindMenuItem:
		m, err := r.GetMenuItem(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &ResolvedProduct{
			Ref:       ref,
			Name:      m.Name,
			Price:     m.Price,
			Available: m.Available,
			ImageURL:  m.ImageURL,
			Source:    SourceLookup,
		}, nil

	case KindDish:
		d, err := r.GetDish(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &ResolvedProduct{
			Ref:       ref,
			Name:      d.Name,
			Price:     d.Price,
			Available: d.Available,
			ImageURL:  d.ImageURL,
			Source:    SourceLookup,
		}, nil

	case KindLegacy:
		p, err := r.GetLegacyProduct(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		stock := p.Stock
		return &ResolvedProduct{
			Ref:       ref,
			Name:      p.Name,
			Price:     p.Price,
			Available: p.Stock > 0,
			Stock:     &stock,
			ImageURL:  p.ImageURL,
			Source:    SourceLookup,
		}, nil
	}

	return nil, ErrNotFound
}
