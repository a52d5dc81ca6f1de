package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/shared"
)

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("importer: validate: %w", shared.ErrInvalidDocument), http.StatusBadRequest, "InvalidDocument"},
		{shared.ErrInvalidTaxID, http.StatusBadRequest, "InvalidTaxId"},
		{shared.ErrDuplicateSKU, http.StatusConflict, "DuplicateSku"},
		{shared.ErrCategoryCycle, http.StatusConflict, "CategoryCycle"},
		{shared.ErrNotFound, http.StatusNotFound, "NotFound"},
		{shared.ErrAICallFailed, http.StatusBadGateway, "AiCallFailed"},
		{shared.ErrUnprocessableResponse, http.StatusUnprocessableEntity, "UnprocessableResponse"},
		{fmt.Errorf("%w: insert", shared.ErrPersistence), http.StatusInternalServerError, "PersistenceError"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Equal(t, tc.status, StatusFor(tc.err))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.kind, body.Kind)
		require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dsn=postgres://secret"))

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Detail)
}

func TestBindValidates(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	var p payload
	require.ErrorIs(t, Bind(req, &p), shared.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Fender"}`))
	require.NoError(t, Bind(req, &p))
	require.Equal(t, "Fender", p.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	require.ErrorIs(t, Bind(req, &p), shared.ErrValidation)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&size=-1&bad=x", nil)
	require.Equal(t, 3, QueryInt(req, "page", 1))
	require.Equal(t, 20, QueryInt(req, "size", 20))
	require.Equal(t, 7, QueryInt(req, "bad", 7))
	require.Equal(t, 1, QueryInt(req, "missing", 1))
}
