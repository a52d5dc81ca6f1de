package suppliers

import (
	"time"

	"github.com/google/uuid"
)

// Supplier represents a supplier entity keyed by its normalized CNPJ.
type Supplier struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CNPJ      string     `json:"cnpj"`
	Address   string     `json:"address,omitempty"`
	City      string     `json:"city,omitempty"`
	State     string     `json:"state,omitempty"`
	ZipCode   string     `json:"zip_code,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Input carries the writable supplier fields, from an API call or an invoice extraction.
type Input struct {
	Name    string `json:"name" validate:"required,max=255"`
	CNPJ    string `json:"cnpj" validate:"required,max=32"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=120"`
	State   string `json:"state" validate:"max=60"`
	ZipCode string `json:"zip_code" validate:"max=20"`
	Phone   string `json:"phone" validate:"max=40"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
}

func (in Input) apply(s *Supplier) {
	s.Name = in.Name
	s.CNPJ = in.CNPJ
	s.Address = in.Address
	s.City = in.City
	s.State = in.State
	s.ZipCode = in.ZipCode
	s.Phone = in.Phone
	s.Email = in.Email
}
