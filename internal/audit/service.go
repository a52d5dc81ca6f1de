package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/platform/db"
	"github.com/tonica-music/catalog/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Repository stores product logs. Logs are append-only.
type Repository interface {
	Insert(ctx context.Context, q db.DBTX, log ProductLog) error
	ListByProduct(ctx context.Context, q db.DBTX, productID uuid.UUID, action Action, offset, limit int) ([]ProductLog, error)
}

// Service records product mutations and serves their history.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the product log service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record appends one log entry inside q.
func (s *Service) Record(ctx context.Context, q db.DBTX, e Entry) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: unknown audit action %q", shared.ErrValidation, e.Action)
	}
	if e.ProductID == uuid.Nil {
		return fmt.Errorf("%w: audit entry without product", shared.ErrValidation)
	}
	oldValues, err := snapshot(e.Old)
	if err != nil {
		return err
	}
	newValues, err := snapshot(e.New)
	if err != nil {
		return err
	}
	return s.repo.Insert(ctx, q, ProductLog{
		ID:                uuid.New(),
		ProductID:         e.ProductID,
		Action:            e.Action,
		OldValues:         oldValues,
		NewValues:         newValues,
		ResponsibleUserID: e.ActorID,
		CreatedAt:         s.now().UTC(),
	})
}

// History pages through the logs of a product, newest first.
func (s *Service) History(ctx context.Context, filters HistoryFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	if filters.Action != "" && !filters.Action.Valid() {
		return Result{}, fmt.Errorf("%w: unknown audit action %q", shared.ErrValidation, filters.Action)
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.ListByProduct(ctx, nil, filters.ProductID, filters.Action, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []ProductLog{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit: snapshot: %w", err)
	}
	return raw, nil
}
