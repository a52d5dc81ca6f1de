package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

// Repository persists categories. Reads never return soft-deleted rows.
type Repository interface {
	List(ctx context.Context, q db.DBTX) ([]Category, error)
	ListActive(ctx context.Context, q db.DBTX) ([]Category, error)
	Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Category, error)
	// SlugExists checks every row, tombstoned ones included, since slugs are never reused.
	SlugExists(ctx context.Context, q db.DBTX, slug string) (bool, error)
	CountChildren(ctx context.Context, q db.DBTX, id uuid.UUID) (int, error)
	Insert(ctx context.Context, q db.DBTX, category Category) (Category, error)
	Update(ctx context.Context, q db.DBTX, category Category) (Category, error)
	SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error
}

const categoryColumns = `id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at, deleted_at`

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) conn(q db.DBTX) db.DBTX {
	return db.Or(q, r.pool)
}

func (r *repository) List(ctx context.Context, q db.DBTX) ([]Category, error) {
	return r.query(ctx, q, `SELECT `+categoryColumns+` FROM categories`+shared.Where()+` ORDER BY sort_order, name`)
}

func (r *repository) ListActive(ctx context.Context, q db.DBTX) ([]Category, error) {
	return r.query(ctx, q, `SELECT `+categoryColumns+` FROM categories`+shared.Where("is_active")+` ORDER BY sort_order, name`)
}

func (r *repository) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Category, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories`+shared.Where("id = $1"), id)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("categories: get %s: %w", id, internalShared.ErrNotFound)
	}
	if err != nil {
		return Category{}, internalShared.Persistence("categories: get", err)
	}
	return c, nil
}

func (r *repository) SlugExists(ctx context.Context, q db.DBTX, slug string) (bool, error) {
	var exists bool
	if err := r.conn(q).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, internalShared.Persistence("categories: slug exists", err)
	}
	return exists, nil
}

func (r *repository) CountChildren(ctx context.Context, q db.DBTX, id uuid.UUID) (int, error) {
	var n int
	if err := r.conn(q).QueryRow(ctx, `SELECT COUNT(*) FROM categories`+shared.Where("parent_id = $1"), id).Scan(&n); err != nil {
		return 0, internalShared.Persistence("categories: count children", err)
	}
	return n, nil
}

func (r *repository) Insert(ctx context.Context, q db.DBTX, c Category) (Category, error) {
	const query = `INSERT INTO categories (id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + categoryColumns
	row := r.conn(q).QueryRow(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.ParentID, c.SortOrder, c.IsActive, c.CreatedAt)
	created, err := scanCategory(row)
	if db.IsUniqueViolation(err, "") {
		return Category{}, fmt.Errorf("categories: insert %s: %w", c.Slug, internalShared.ErrDuplicateSlug)
	}
	if err != nil {
		return Category{}, internalShared.Persistence("categories: insert", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, q db.DBTX, c Category) (Category, error) {
	query := `UPDATE categories SET name = $2, description = $3, parent_id = $4, sort_order = $5, is_active = $6, updated_at = now()` +
		shared.Where("id = $1") + ` RETURNING ` + categoryColumns
	row := r.conn(q).QueryRow(ctx, query, c.ID, c.Name, c.Description, c.ParentID, c.SortOrder, c.IsActive)
	updated, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("categories: update %s: %w", c.ID, internalShared.ErrNotFound)
	}
	if err != nil {
		return Category{}, internalShared.Persistence("categories: update", err)
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	tag, err := r.conn(q).Exec(ctx, `UPDATE categories SET deleted_at = now(), updated_at = now()`+shared.Where("id = $1"), id)
	if err != nil {
		return internalShared.Persistence("categories: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("categories: delete %s: %w", id, internalShared.ErrNotFound)
	}
	return nil
}

func (r *repository) query(ctx context.Context, q db.DBTX, sql string, args ...any) ([]Category, error) {
	rows, err := r.conn(q).Query(ctx, sql, args...)
	if err != nil {
		return nil, internalShared.Persistence("categories: list", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, internalShared.Persistence("categories: scan", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, internalShared.Persistence("categories: list", err)
	}
	return out, nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	return c, err
}
