// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/tonica-music/catalog/internal/shared"
)

const maxBodyBytes = 4 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	write(w, status, title, "", detail)
}

func write(w http.ResponseWriter, status int, title, kind, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Kind:   kind,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: decode body: %v", shared.ErrValidation, err)
	}
	return nil
}

// Bind decodes the body into target and runs its validate tags.
func Bind(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return err
	}
	return Validate(target)
}

// Validate runs struct validation and wraps failures in shared.ErrValidation.
func Validate(target any) error {
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// QueryInt reads a positive integer query parameter, falling back to def.
func QueryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
