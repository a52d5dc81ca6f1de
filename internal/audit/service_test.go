package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/platform/db"
	"github.com/tonica-music/catalog/internal/shared"
)

type stubRepo struct {
	inserted   []ProductLog
	rows       []ProductLog
	lastOffset int
	lastLimit  int
	lastAction Action
}

func (s *stubRepo) Insert(_ context.Context, _ db.DBTX, log ProductLog) error {
	s.inserted = append(s.inserted, log)
	return nil
}

func (s *stubRepo) ListByProduct(_ context.Context, _ db.DBTX, _ uuid.UUID, action Action, offset, limit int) ([]ProductLog, error) {
	s.lastOffset, s.lastLimit, s.lastAction = offset, limit, action
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func TestRecordSnapshotsValues(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	productID := uuid.New()

	err := svc.Record(context.Background(), nil, Entry{
		ProductID: productID,
		Action:    ActionStockChanged,
		Old:       map[string]int{"stock_quantity": 5},
		New:       map[string]int{"stock_quantity": 7},
		ActorID:   "user-1",
	})
	require.NoError(t, err)
	require.Len(t, repo.inserted, 1)

	log := repo.inserted[0]
	require.Equal(t, productID, log.ProductID)
	require.Equal(t, "user-1", log.ResponsibleUserID)
	require.JSONEq(t, `{"stock_quantity":5}`, string(log.OldValues))
	require.JSONEq(t, `{"stock_quantity":7}`, string(log.NewValues))
	require.Equal(t, svc.now(), log.CreatedAt)
}

func TestRecordOmitsMissingSide(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.Record(context.Background(), nil, Entry{ProductID: uuid.New(), Action: ActionCreated, New: map[string]string{"name": "Cajón"}}))
	require.Nil(t, repo.inserted[0].OldValues)

	require.NoError(t, svc.Record(context.Background(), nil, Entry{ProductID: uuid.New(), Action: ActionDeleted, Old: map[string]string{"name": "Cajón"}}))
	require.Nil(t, repo.inserted[1].NewValues)
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	svc := NewService(&stubRepo{})
	err := svc.Record(context.Background(), nil, Entry{ProductID: uuid.New(), Action: "archived"})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.Record(context.Background(), nil, Entry{Action: ActionCreated})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestHistoryPaging(t *testing.T) {
	repo := &stubRepo{}
	for i := 0; i < 5; i++ {
		repo.rows = append(repo.rows, ProductLog{ID: uuid.New(), Action: ActionUpdated})
	}
	svc := NewService(repo)

	result, err := svc.History(context.Background(), HistoryFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Equal(t, 3, repo.lastLimit)
	require.Zero(t, repo.lastOffset)

	result, err = svc.History(context.Background(), HistoryFilters{Page: 3, PageSize: 2, Action: ActionUpdated})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.PrevPage)
	require.Equal(t, 4, repo.lastOffset)
	require.Equal(t, ActionUpdated, repo.lastAction)

	result, err = svc.History(context.Background(), HistoryFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, result.Paging.PageSize)

	_, err = svc.History(context.Background(), HistoryFilters{Action: "nope"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestExportCSV(t *testing.T) {
	raw, _ := json.Marshal(map[string]int{"stock_quantity": 3})
	repo := &stubRepo{rows: []ProductLog{{
		Action:            ActionCreated,
		NewValues:         raw,
		ResponsibleUserID: "user-9",
		CreatedAt:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	data, err := NewService(repo).ExportCSV(context.Background(), uuid.New())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "created_at,action,responsible_user_id,old_values,new_values", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "2024-01-02T03:04:05Z,created,user-9,,"))
}
