package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/audit"
	"github.com/tonica-music/catalog/internal/shared"
)

type stubHistory struct {
	last audit.HistoryFilters
}

func (s *stubHistory) History(_ context.Context, f audit.HistoryFilters) (audit.Result, error) {
	s.last = f
	return audit.Result{
		Rows:   []audit.ProductLog{{ProductID: f.ProductID, Action: audit.ActionCreated}},
		Paging: audit.PagingInfo{Page: f.Page, PageSize: 20},
	}, nil
}

func (s *stubHistory) ExportCSV(context.Context, uuid.UUID) ([]byte, error) {
	return []byte("created_at,action\n"), nil
}

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/products/{id}", h.MountRoutes)
	return r
}

func TestHistoryEndpoint(t *testing.T) {
	svc := &stubHistory{}
	router := newRouter(NewHandler(nil, svc))
	id := uuid.New()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+id.String()+"/logs?page=2&action=created", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, svc.last.ProductID)
	require.Equal(t, 2, svc.last.Page)
	require.Equal(t, audit.ActionCreated, svc.last.Action)

	var body audit.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
}

func TestHistoryRejectsBadID(t *testing.T) {
	router := newRouter(NewHandler(nil, &stubHistory{}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/not-a-uuid/logs", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportIsRateLimitedPerActor(t *testing.T) {
	router := newRouter(NewHandler(nil, &stubHistory{}))
	url := "/products/" + uuid.NewString() + "/logs/export.csv"

	for i := 0; i < exportLimit; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req = req.WithContext(shared.ContextWithActor(req.Context(), "user-a"))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(), "user-a"))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(), "user-b"))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
