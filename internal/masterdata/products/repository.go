package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

const (
	skuConstraint  = "products_sku_live_key"
	slugConstraint = "products_slug_key"
)

// Repository persists products and their category links. Reads never return soft-deleted rows.
type Repository interface {
	List(ctx context.Context, q db.DBTX, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error)
	// GetForUpdate locks the row for the rest of q's transaction.
	GetForUpdate(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error)
	FindBySKU(ctx context.Context, q db.DBTX, sku string) (Product, error)
	// SlugExists checks every row, tombstoned ones included, since slugs are never reused.
	SlugExists(ctx context.Context, q db.DBTX, slug string) (bool, error)
	Insert(ctx context.Context, q db.DBTX, product Product) (Product, error)
	Update(ctx context.Context, q db.DBTX, product Product) (Product, error)
	SetStock(ctx context.Context, q db.DBTX, id uuid.UUID, quantity int) (Product, error)
	SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error
	AssociateCategory(ctx context.Context, q db.DBTX, productID, categoryID uuid.UUID) error
	ReplaceCategories(ctx context.Context, q db.DBTX, productID uuid.UUID, categoryIDs []uuid.UUID) error
	CategoryIDs(ctx context.Context, q db.DBTX, productID uuid.UUID) ([]uuid.UUID, error)
}

const productColumns = `id, name, slug, description, short_description, price::text, COALESCE(sku, ''), stock_quantity,
	min_stock_alert, status, featured, meta_title, meta_description, created_at, updated_at, deleted_at`

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) conn(q db.DBTX) db.DBTX {
	return db.Or(q, r.pool)
}

func (r *repository) List(ctx context.Context, q db.DBTX, filters shared.ListFilters) ([]Product, int, error) {
	filters = filters.Normalize()
	where := shared.Where()
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = shared.Where("(name ILIKE $1 OR sku ILIKE $1)")
	}

	var total int
	if err := r.conn(q).QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, internalShared.Persistence("products: count", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created_at DESC LIMIT ` + shared.Placeholder(len(args)+1) + ` OFFSET ` + shared.Placeholder(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.conn(q).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, internalShared.Persistence("products: list", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, internalShared.Persistence("products: scan", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, internalShared.Persistence("products: list", err)
	}
	return out, total, nil
}

func (r *repository) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+productColumns+` FROM products`+shared.Where("id = $1"), id)
	return one(row, "get", id.String())
}

func (r *repository) GetForUpdate(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+productColumns+` FROM products`+shared.Where("id = $1")+` FOR UPDATE`, id)
	return one(row, "get for update", id.String())
}

func (r *repository) FindBySKU(ctx context.Context, q db.DBTX, sku string) (Product, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+productColumns+` FROM products`+shared.Where("sku = $1"), sku)
	return one(row, "find by sku", sku)
}

func (r *repository) SlugExists(ctx context.Context, q db.DBTX, slug string) (bool, error) {
	var exists bool
	if err := r.conn(q).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, internalShared.Persistence("products: slug exists", err)
	}
	return exists, nil
}

func (r *repository) Insert(ctx context.Context, q db.DBTX, p Product) (Product, error) {
	const query = `INSERT INTO products (id, name, slug, description, short_description, price, sku, stock_quantity,
			min_stock_alert, status, featured, meta_title, meta_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING ` + productColumns
	row := r.conn(q).QueryRow(ctx, query, p.ID, p.Name, p.Slug, p.Description, p.ShortDescription, p.Price.String(),
		p.SKU, p.StockQuantity, p.MinStockAlert, string(p.Status), p.Featured, p.MetaTitle, p.MetaDescription, p.CreatedAt)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, writeError("insert", p, err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, q db.DBTX, p Product) (Product, error) {
	query := `UPDATE products SET name = $2, slug = $3, description = $4, short_description = $5, price = $6::numeric,
		sku = NULLIF($7, ''), stock_quantity = $8, min_stock_alert = $9, status = $10, featured = $11,
		meta_title = $12, meta_description = $13, updated_at = now()` + shared.Where("id = $1") + ` RETURNING ` + productColumns
	row := r.conn(q).QueryRow(ctx, query, p.ID, p.Name, p.Slug, p.Description, p.ShortDescription, p.Price.String(),
		p.SKU, p.StockQuantity, p.MinStockAlert, string(p.Status), p.Featured, p.MetaTitle, p.MetaDescription)
	updated, err := scanProduct(row)
	if err != nil {
		return Product{}, writeError("update", p, err)
	}
	return updated, nil
}

func (r *repository) SetStock(ctx context.Context, q db.DBTX, id uuid.UUID, quantity int) (Product, error) {
	query := `UPDATE products SET stock_quantity = $2, updated_at = now()` + shared.Where("id = $1") + ` RETURNING ` + productColumns
	row := r.conn(q).QueryRow(ctx, query, id, quantity)
	return one(row, "set stock", id.String())
}

func (r *repository) SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	tag, err := r.conn(q).Exec(ctx, `UPDATE products SET deleted_at = now(), updated_at = now()`+shared.Where("id = $1"), id)
	if err != nil {
		return internalShared.Persistence("products: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("products: delete %s: %w", id, internalShared.ErrNotFound)
	}
	return nil
}

func (r *repository) AssociateCategory(ctx context.Context, q db.DBTX, productID, categoryID uuid.UUID) error {
	_, err := r.conn(q).Exec(ctx, `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)
		ON CONFLICT (product_id, category_id) DO NOTHING`, productID, categoryID)
	if err != nil {
		return internalShared.Persistence("products: associate category", err)
	}
	return nil
}

func (r *repository) ReplaceCategories(ctx context.Context, q db.DBTX, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := r.conn(q).Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
		return internalShared.Persistence("products: clear categories", err)
	}
	for _, id := range categoryIDs {
		if err := r.AssociateCategory(ctx, q, productID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CategoryIDs(ctx context.Context, q db.DBTX, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(q).Query(ctx, `SELECT category_id FROM product_categories WHERE product_id = $1 ORDER BY category_id`, productID)
	if err != nil {
		return nil, internalShared.Persistence("products: category ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, internalShared.Persistence("products: category ids", err)
	}
	return ids, nil
}

func writeError(op string, p Product, err error) error {
	switch {
	case db.IsUniqueViolation(err, skuConstraint):
		return fmt.Errorf("products: %s sku %q: %w", op, p.SKU, internalShared.ErrDuplicateSKU)
	case db.IsUniqueViolation(err, slugConstraint):
		return fmt.Errorf("products: %s slug %q: %w", op, p.Slug, internalShared.ErrDuplicateSlug)
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("products: %s %s: %w", op, p.ID, internalShared.ErrNotFound)
	}
	return internalShared.Persistence("products: "+op, err)
}

func one(row pgx.Row, op, key string) (Product, error) {
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("products: %s %s: %w", op, key, internalShared.ErrNotFound)
	}
	if err != nil {
		return Product{}, internalShared.Persistence("products: "+op, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p      Product
		price  string
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription, &price, &p.SKU, &p.StockQuantity,
		&p.MinStockAlert, &status, &p.Featured, &p.MetaTitle, &p.MetaDescription, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return Product{}, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Status = Status(status)
	return p, nil
}
