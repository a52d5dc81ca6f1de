package audit

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tonica-music/catalog/internal/platform/db"
	"github.com/tonica-music/catalog/internal/shared"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the pgx backed product log store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Insert(ctx context.Context, q db.DBTX, log ProductLog) error {
	const query = `INSERT INTO product_logs (id, product_id, action, old_values, new_values, responsible_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := db.Or(q, r.pool).Exec(ctx, query, log.ID, log.ProductID, string(log.Action),
		nullJSON(log.OldValues), nullJSON(log.NewValues), log.ResponsibleUserID, log.CreatedAt)
	if err != nil {
		return shared.Persistence("audit: insert product log", err)
	}
	return nil
}

func (r *pgRepository) ListByProduct(ctx context.Context, q db.DBTX, productID uuid.UUID, action Action, offset, limit int) ([]ProductLog, error) {
	query := `SELECT id, product_id, action, old_values, new_values, responsible_user_id, created_at
		FROM product_logs WHERE product_id = $1`
	args := []any{productID}
	if action != "" {
		args = append(args, string(action))
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.Or(q, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Persistence("audit: list product logs", err)
	}
	defer rows.Close()

	var out []ProductLog
	for rows.Next() {
		var (
			l              ProductLog
			act            string
			oldRaw, newRaw []byte
		)
		if err := rows.Scan(&l.ID, &l.ProductID, &act, &oldRaw, &newRaw, &l.ResponsibleUserID, &l.CreatedAt); err != nil {
			return nil, shared.Persistence("audit: scan product log", err)
		}
		l.Action = Action(act)
		l.OldValues = oldRaw
		l.NewValues = newRaw
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("audit: list product logs", err)
	}
	return out, nil
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
