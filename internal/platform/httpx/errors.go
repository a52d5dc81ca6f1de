// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/tonica-music/catalog/internal/shared"
)

type errorMapping struct {
	err    error
	status int
	title  string
}

var mappings = []errorMapping{
	{shared.ErrInvalidDocument, http.StatusBadRequest, "Invalid Document"},
	{shared.ErrInvalidTaxID, http.StatusBadRequest, "Invalid Tax ID"},
	{shared.ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{shared.ErrUnprocessableResponse, http.StatusUnprocessableEntity, "Unprocessable AI Response"},
	{shared.ErrDuplicateTaxID, http.StatusConflict, "Duplicate Tax ID"},
	{shared.ErrDuplicateSKU, http.StatusConflict, "Duplicate SKU"},
	{shared.ErrDuplicateSlug, http.StatusConflict, "Duplicate Slug"},
	{shared.ErrCategoryCycle, http.StatusConflict, "Category Cycle"},
	{shared.ErrCategoryHasChildren, http.StatusConflict, "Category Has Children"},
	{shared.ErrNotFound, http.StatusNotFound, "Not Found"},
	{shared.ErrAICallFailed, http.StatusBadGateway, "AI Call Failed"},
}

// StatusFor returns the HTTP status code mapped to err.
func StatusFor(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unclassified errors never leak their message.
func RespondError(w http.ResponseWriter, err error) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			write(w, m.status, m.title, shared.Kind(err), err.Error())
			return
		}
	}
	if errors.Is(err, shared.ErrPersistence) {
		write(w, http.StatusInternalServerError, "Persistence Error", shared.Kind(err), "")
		return
	}
	write(w, http.StatusInternalServerError, "Internal Error", shared.Kind(err), "")
}
