package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/shared"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, method, role string) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(method, "/", nil)
	if role != "" {
		req = req.WithContext(shared.ContextWithRole(req.Context(), role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestDefaultPolicyGrants(t *testing.T) {
	p := DefaultPolicy()
	require.True(t, p.Allows(RoleAdmin, PermAuditRead))
	require.True(t, p.Allows(" Catalog_Manager ", PermCatalogWrite))
	require.True(t, p.Allows(RoleImporter, PermImportRun))
	require.False(t, p.Allows(RoleImporter, PermCatalogWrite))
	require.False(t, p.Allows(RoleViewer, PermImportRun))
	require.False(t, p.Allows("", PermImportRun))
	require.True(t, p.Allows("", []Permission{}...))
}

func TestRequireAny(t *testing.T) {
	m := Middleware{Policy: DefaultPolicy()}
	guard := m.RequireAny(PermImportRun)

	require.Equal(t, http.StatusNoContent, serve(t, guard, http.MethodPost, RoleImporter))
	require.Equal(t, http.StatusForbidden, serve(t, guard, http.MethodPost, RoleViewer))
	require.Equal(t, http.StatusForbidden, serve(t, guard, http.MethodGet, ""))
}

func TestRequireForWritesLetsReadsThrough(t *testing.T) {
	m := Middleware{Policy: DefaultPolicy()}
	guard := m.RequireForWrites(PermCatalogWrite)

	require.Equal(t, http.StatusNoContent, serve(t, guard, http.MethodGet, RoleViewer))
	require.Equal(t, http.StatusForbidden, serve(t, guard, http.MethodPost, RoleViewer))
	require.Equal(t, http.StatusForbidden, serve(t, guard, http.MethodDelete, RoleImporter))
	require.Equal(t, http.StatusNoContent, serve(t, guard, http.MethodPut, RoleManager))
}
