package suppliers

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

// Repository persists suppliers. Every method runs against q when supplied,
// otherwise against the pool. Reads never return soft-deleted rows.
type Repository interface {
	List(ctx context.Context, q db.DBTX, filters shared.ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Supplier, error)
	FindByCNPJ(ctx context.Context, q db.DBTX, cnpj string) (Supplier, error)
	// Insert returns ErrDuplicateTaxID when a live supplier already holds the CNPJ.
	Insert(ctx context.Context, q db.DBTX, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, q db.DBTX, supplier Supplier) (Supplier, error)
	SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error
}

const supplierColumns = `id, name, cnpj, address, city, state, zip_code, phone, email, created_at, updated_at, deleted_at`

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed supplier repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) conn(q db.DBTX) db.DBTX {
	return db.Or(q, r.pool)
}

func (r *repository) List(ctx context.Context, q db.DBTX, filters shared.ListFilters) ([]Supplier, int, error) {
	filters = filters.Normalize()
	where := shared.Where()
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = shared.Where("(name ILIKE $1 OR cnpj LIKE $1)")
	}

	var total int
	if err := r.conn(q).QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
		return nil, 0, internalShared.Persistence("suppliers: count", err)
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers` + where +
		` ORDER BY name ASC LIMIT ` + shared.Placeholder(len(args)+1) + ` OFFSET ` + shared.Placeholder(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.conn(q).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, internalShared.Persistence("suppliers: list", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, internalShared.Persistence("suppliers: scan", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, internalShared.Persistence("suppliers: list", err)
	}
	return suppliers, total, nil
}

func (r *repository) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Supplier, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers`+shared.Where("id = $1"), id)
	return r.one(row, "get", id.String())
}

func (r *repository) FindByCNPJ(ctx context.Context, q db.DBTX, cnpj string) (Supplier, error) {
	row := r.conn(q).QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers`+shared.Where("cnpj = $1"), cnpj)
	return r.one(row, "find by cnpj", cnpj)
}

func (r *repository) Insert(ctx context.Context, q db.DBTX, s Supplier) (Supplier, error) {
	// The conflict target matches the partial unique index on live rows, so a
	// concurrent insert of the same CNPJ yields no row instead of aborting q.
	const query = `INSERT INTO suppliers (id, name, cnpj, address, city, state, zip_code, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (cnpj) WHERE deleted_at IS NULL DO NOTHING
		RETURNING ` + supplierColumns
	row := r.conn(q).QueryRow(ctx, query, s.ID, s.Name, s.CNPJ, s.Address, s.City, s.State, s.ZipCode, s.Phone, s.Email, s.CreatedAt)
	created, err := scanSupplier(row)
	switch {
	case db.IsNoRows(err), db.IsUniqueViolation(err, ""):
		return Supplier{}, fmt.Errorf("suppliers: insert %s: %w", s.CNPJ, internalShared.ErrDuplicateTaxID)
	case err != nil:
		return Supplier{}, internalShared.Persistence("suppliers: insert", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, q db.DBTX, s Supplier) (Supplier, error) {
	query := `UPDATE suppliers SET name = $2, cnpj = $3, address = $4, city = $5, state = $6, zip_code = $7,
		phone = $8, email = $9, updated_at = now()` + shared.Where("id = $1") + ` RETURNING ` + supplierColumns
	row := r.conn(q).QueryRow(ctx, query, s.ID, s.Name, s.CNPJ, s.Address, s.City, s.State, s.ZipCode, s.Phone, s.Email)
	updated, err := scanSupplier(row)
	switch {
	case db.IsUniqueViolation(err, ""):
		return Supplier{}, fmt.Errorf("suppliers: update %s: %w", s.CNPJ, internalShared.ErrDuplicateTaxID)
	case db.IsNoRows(err):
		return Supplier{}, fmt.Errorf("suppliers: update %s: %w", s.ID, internalShared.ErrNotFound)
	case err != nil:
		return Supplier{}, internalShared.Persistence("suppliers: update", err)
	}
	return updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	tag, err := r.conn(q).Exec(ctx, `UPDATE suppliers SET deleted_at = now(), updated_at = now()`+shared.Where("id = $1"), id)
	if err != nil {
		return internalShared.Persistence("suppliers: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("suppliers: delete %s: %w", id, internalShared.ErrNotFound)
	}
	return nil
}

func (r *repository) one(row pgx.Row, op, key string) (Supplier, error) {
	s, err := scanSupplier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, fmt.Errorf("suppliers: %s %s: %w", op, key, internalShared.ErrNotFound)
	}
	if err != nil {
		return Supplier{}, internalShared.Persistence("suppliers: "+op, err)
	}
	return s, nil
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.CNPJ, &s.Address, &s.City, &s.State, &s.ZipCode, &s.Phone, &s.Email,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	return s, err
}
