package products

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalShared "github.com/tonica-music/catalog/internal/shared"
)

// Status is the publication state of a product.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusInactive
}

// Product represents a catalog product. SKU is empty when the product has none.
type Product struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description,omitempty"`
	ShortDescription string          `json:"short_description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	SKU              string          `json:"sku,omitempty"`
	StockQuantity    int             `json:"stock_quantity"`
	MinStockAlert    int             `json:"min_stock_alert"`
	Status           Status          `json:"status"`
	Featured         bool            `json:"featured"`
	MetaTitle        string          `json:"meta_title,omitempty"`
	MetaDescription  string          `json:"meta_description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        *time.Time      `json:"deleted_at,omitempty"`
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description" validate:"max=500"`
	Price            decimal.Decimal `json:"price"`
	StockQuantity    int             `json:"stock_quantity" validate:"gte=0"`
	SKU              string          `json:"sku" validate:"max=100"`
	Featured         bool            `json:"featured"`
	Status           Status          `json:"status" validate:"omitempty,oneof=draft active inactive"`
	CategoryIDs      []uuid.UUID     `json:"category_ids"`
}

// Patch holds the fields to change; nil fields are left untouched.
// A non-nil CategoryIDs replaces every association, an empty slice clears them.
type Patch struct {
	Name             *string          `json:"name" validate:"omitempty,max=255"`
	Slug             *string          `json:"slug" validate:"omitempty,max=120"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"short_description" validate:"omitempty,max=500"`
	Price            *decimal.Decimal `json:"price"`
	StockQuantity    *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	SKU              *string          `json:"sku" validate:"omitempty,max=100"`
	Featured         *bool            `json:"featured"`
	Status           *Status          `json:"status" validate:"omitempty,oneof=draft active inactive"`
	MetaTitle        *string          `json:"meta_title" validate:"omitempty,max=255"`
	MetaDescription  *string          `json:"meta_description" validate:"omitempty,max=500"`
	CategoryIDs      *[]uuid.UUID     `json:"category_ids"`
}

func (p Patch) apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.ShortDescription != nil {
		dst.ShortDescription = *p.ShortDescription
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.StockQuantity != nil {
		dst.StockQuantity = *p.StockQuantity
	}
	if p.SKU != nil {
		dst.SKU = *p.SKU
	}
	if p.Featured != nil {
		dst.Featured = *p.Featured
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.MetaTitle != nil {
		dst.MetaTitle = *p.MetaTitle
	}
	if p.MetaDescription != nil {
		dst.MetaDescription = *p.MetaDescription
	}
}

// Invoice unit prices carry up to 11 integer digits and 10 decimals.
const PriceScale = 10

var maxPrice = decimal.New(1, 11)

// roundPrice rounds half away from zero to PriceScale decimals, leaving
// prices that already fit untouched.
func roundPrice(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= -PriceScale {
		return d
	}
	return d.Round(PriceScale)
}

func (p Product) validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: product name is required", internalShared.ErrValidation)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", internalShared.ErrValidation)
	case p.Price.GreaterThanOrEqual(maxPrice):
		return fmt.Errorf("%w: price %s is out of range", internalShared.ErrValidation, p.Price)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity must not be negative", internalShared.ErrValidation)
	case p.StockQuantity > MaxStock:
		return fmt.Errorf("%w: stock quantity %d is out of range", internalShared.ErrValidation, p.StockQuantity)
	case !p.Status.valid():
		return fmt.Errorf("%w: unknown status %q", internalShared.ErrValidation, p.Status)
	}
	return nil
}
