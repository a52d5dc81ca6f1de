package prompts

import (
	"strconv"
	"strings"
)

// ProductInfo carries what the model needs to know about a product.
type ProductInfo struct {
	Name        string
	Description string
	Brand       string
	SKU         string
	Category    string
	Features    []string
}

// Validation asks whether the document is a usable invoice.
func Validation(document string) string {
	return Render(validateInvoice, map[string]string{"document": document})
}

// SupplierExtraction asks for the issuer of the invoice as a JSON object.
func SupplierExtraction(document string) string {
	return Render(extractSupplier, map[string]string{"document": document})
}

// ProductsExtraction asks for every line item as a JSON array.
func ProductsExtraction(document string) string {
	return Render(extractProducts, map[string]string{"document": document})
}

// Categorization restricts the answer to the supplied category names.
func Categorization(p ProductInfo, categories []string) string {
	var list strings.Builder
	for i, name := range categories {
		if i > 0 {
			list.WriteByte('\n')
		}
		list.WriteString(strconv.Itoa(i + 1))
		list.WriteString(". ")
		list.WriteString(name)
	}
	return Render(categorizeProduct, map[string]string{
		"categories":         list.String(),
		"productName":        p.Name,
		"productDescription": p.Description,
		"productBrand":       p.Brand,
		"productSku":         p.SKU,
	})
}

// Description asks for long-form marketing copy.
func Description(p ProductInfo) string {
	return Render(describeProduct, enrichmentFields(p))
}

// SEOTitle asks for a title of at most 60 characters.
func SEOTitle(p ProductInfo) string {
	return Render(seoTitle, enrichmentFields(p))
}

// MetaDescription asks for a meta description of at most 160 characters.
func MetaDescription(p ProductInfo) string {
	return Render(metaDescription, enrichmentFields(p))
}

func enrichmentFields(p ProductInfo) map[string]string {
	return map[string]string{
		"productName": p.Name,
		"category":    p.Category,
		"brand":       p.Brand,
		"features":    strings.Join(p.Features, ", "),
	}
}
