package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument indicates the invoice was rejected by the validation step.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrAICallFailed indicates a provider error, timeout or quota failure.
	ErrAICallFailed = errors.New("ai call failed")
	// ErrUnprocessableResponse indicates no JSON could be extracted from a provider answer.
	ErrUnprocessableResponse = errors.New("unprocessable ai response")
	// ErrInvalidTaxID indicates a CNPJ that fails normalization or check digits.
	ErrInvalidTaxID = errors.New("invalid tax id")
	// ErrDuplicateTaxID indicates a live supplier already holds the CNPJ.
	ErrDuplicateTaxID = errors.New("duplicate tax id")
	// ErrDuplicateSKU indicates a live product already holds the SKU.
	ErrDuplicateSKU = errors.New("duplicate sku")
	// ErrDuplicateSlug indicates a live record already holds the slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrCategoryCycle indicates a re-parent that would create a loop.
	ErrCategoryCycle = errors.New("category cycle")
	// ErrCategoryHasChildren indicates a delete of a category with live children.
	ErrCategoryHasChildren = errors.New("category has children")
	// ErrNotFound indicates entity lookup by id failed.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence indicates an unexpected storage failure.
	ErrPersistence = errors.New("persistence error")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidDocument, "InvalidDocument"},
	{ErrAICallFailed, "AiCallFailed"},
	{ErrUnprocessableResponse, "UnprocessableResponse"},
	{ErrInvalidTaxID, "InvalidTaxId"},
	{ErrDuplicateTaxID, "DuplicateTaxId"},
	{ErrDuplicateSKU, "DuplicateSku"},
	{ErrDuplicateSlug, "DuplicateSlug"},
	{ErrCategoryCycle, "CategoryCycle"},
	{ErrCategoryHasChildren, "CategoryHasChildren"},
	{ErrNotFound, "NotFound"},
	{ErrValidation, "Validation"},
	{ErrPersistence, "PersistenceError"},
}

// Kind returns the taxonomy name of err, or "Internal" when it is not classified.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// Persistence wraps an unexpected storage failure of op.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
