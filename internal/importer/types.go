package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/masterdata/suppliers"
	"github.com/tonica-music/catalog/internal/prompts"
)

// ExtractedSupplier is the invoice issuer as read by the model.
type ExtractedSupplier struct {
	Name    string `json:"name" validate:"required"`
	CNPJ    string `json:"cnpj" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (s ExtractedSupplier) input() suppliers.Input {
	return suppliers.Input{
		Name:    strings.TrimSpace(s.Name),
		CNPJ:    s.CNPJ,
		Address: informed(s.Address),
		City:    informed(s.City),
		State:   informed(s.State),
		ZipCode: informed(s.ZipCode),
		Phone:   informed(s.Phone),
		Email:   informed(s.Email),
	}
}

// informed trims v and blanks the placeholders models use for absent fields.
func informed(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case strings.ToLower(prompts.NotInformed), "nao informado", "null", "n/a", "-":
		return ""
	}
	return v
}

// ExtractedLineItem is one invoice line as read by the model.
type ExtractedLineItem struct {
	Item        int             `json:"item"`
	Name        string          `json:"name" validate:"required"`
	SKU         string          `json:"sku"`
	Quantity    Quantity        `json:"quantity" validate:"gte=0"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	NCM         string          `json:"ncm"`
	Description string          `json:"description"`
	Brand       string          `json:"brand"`
}

// Quantity is an integral item count. Models emit it as 3, 3.0 or "3".
type Quantity int

var maxQuantity = decimal.NewFromInt(products.MaxStock)

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("quantity %s: %w", data, err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("quantity %s is not a whole number", data)
	}
	if d.Abs().GreaterThan(maxQuantity) {
		return fmt.Errorf("quantity %s is out of range", data)
	}
	*q = Quantity(d.IntPart())
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(q))
}

func (q Quantity) String() string {
	return strconv.Itoa(int(q))
}

// Result summarizes a committed import.
type Result struct {
	Message                  string             `json:"message"`
	Supplier                 suppliers.Supplier `json:"supplier"`
	ProcessedProducts        []products.Product `json:"processedProducts"`
	ProcessedCount           int                `json:"processedProductsCount"`
	AvailableCategoriesCount int                `json:"availableCategoriesCount"`
	Items                    []ItemOutcome      `json:"items"`
}

// ItemOutcome reports what happened to one line item.
type ItemOutcome struct {
	ProductID string   `json:"productId"`
	SKU       string   `json:"sku,omitempty"`
	Restocked bool     `json:"restocked"`
	Category  string   `json:"category,omitempty"`
	Enriched  bool     `json:"enriched"`
	Warnings  []string `json:"warnings,omitempty"`
}
