package importer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tonica-music/catalog/internal/masterdata/categories"
	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/platform/db"
	"github.com/tonica-music/catalog/internal/prompts"
)

// processItem restocks the product matching the item SKU, or creates,
// categorizes and enriches a new one. Model failures on the optional steps
// become warnings; storage failures abort the import.
func (s *Service) processItem(ctx context.Context, logger *slog.Logger, q db.DBTX, item ExtractedLineItem, active []categories.Category, actorID string) (products.Product, ItemOutcome, error) {
	sku := informed(item.SKU)
	if sku != "" {
		existing, found, err := s.products.FindBySKU(ctx, q, sku)
		if err != nil {
			return products.Product{}, ItemOutcome{}, err
		}
		if found {
			p, err := s.products.UpdateStock(ctx, q, existing.ID, int(item.Quantity), products.StockIncrement, actorID)
			if err != nil {
				return products.Product{}, ItemOutcome{}, err
			}
			s.metrics.item("restocked")
			logger.Debug("restocked product", "product_id", p.ID, "sku", sku, "quantity", int(item.Quantity))
			return p, ItemOutcome{ProductID: p.ID.String(), SKU: sku, Restocked: true}, nil
		}
	}

	name := strings.TrimSpace(item.Name)
	description := informed(item.Description)
	if description == "" {
		description = name
	}
	p, err := s.products.Create(ctx, q, products.CreateInput{
		Name:          name,
		Description:   description,
		Price:         item.UnitPrice,
		StockQuantity: int(item.Quantity),
		SKU:           sku,
		Status:        products.StatusActive,
	}, actorID)
	if err != nil {
		return products.Product{}, ItemOutcome{}, err
	}
	s.metrics.item("created")
	outcome := ItemOutcome{ProductID: p.ID.String(), SKU: sku}

	info := prompts.ProductInfo{
		Name:        name,
		Description: informed(item.Description),
		Brand:       informed(item.Brand),
		SKU:         sku,
	}

	if len(active) > 0 {
		cat, warning, err := s.categorize(ctx, q, p, info, active)
		if err != nil {
			return products.Product{}, ItemOutcome{}, err
		}
		if warning != "" {
			outcome.Warnings = append(outcome.Warnings, warning)
			logger.Warn("product left uncategorized", "product_id", p.ID, "reason", warning)
		} else {
			outcome.Category = cat.Name
			info.Category = cat.Name
		}
	}

	enriched, warning, err := s.enrich(ctx, q, p, info, actorID)
	if err != nil {
		return products.Product{}, ItemOutcome{}, err
	}
	if warning != "" {
		outcome.Warnings = append(outcome.Warnings, warning)
		logger.Warn("product enrichment incomplete", "product_id", p.ID, "reason", warning)
	}
	if enriched.ID == p.ID {
		p = enriched
		outcome.Enriched = true
	}
	return p, outcome, nil
}

func (s *Service) categorize(ctx context.Context, q db.DBTX, p products.Product, info prompts.ProductInfo, active []categories.Category) (categories.Category, string, error) {
	answer, err := s.assistant.SuggestCategory(ctx, info, categories.Names(active))
	if err != nil {
		return categories.Category{}, "category suggestion failed: " + err.Error(), nil
	}
	cat, ok := categories.Match(active, answer)
	if !ok {
		return categories.Category{}, "suggested category " + quote(answer) + " is not active", nil
	}
	if err := s.products.AssociateCategory(ctx, q, p.ID, cat.ID); err != nil {
		return categories.Category{}, "", err
	}
	return cat, "", nil
}

// enrich applies whichever generated fields came back. The returned product
// has a zero ID when nothing was applied.
func (s *Service) enrich(ctx context.Context, q db.DBTX, p products.Product, info prompts.ProductInfo, actorID string) (products.Product, string, error) {
	gen, genErr := s.assistant.Enrich(ctx, info)
	var warning string
	if genErr != nil {
		warning = "enrichment failed: " + genErr.Error()
	}

	var patch products.Patch
	if v := strings.TrimSpace(gen.Description); v != "" {
		patch.Description = &v
	}
	if v := clip(gen.MetaTitle, maxMetaTitle); v != "" {
		patch.MetaTitle = &v
	}
	if v := clip(gen.MetaDescription, maxMetaDescription); v != "" {
		patch.MetaDescription = &v
	}
	if patch.Description == nil && patch.MetaTitle == nil && patch.MetaDescription == nil {
		return products.Product{}, warning, nil
	}

	updated, err := s.products.Update(ctx, q, p.ID, patch, actorID)
	if err != nil {
		return products.Product{}, "", err
	}
	s.metrics.item("enriched")
	return updated, warning, nil
}

const (
	maxMetaTitle       = 255
	maxMetaDescription = 500
)

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		return strings.TrimSpace(string(r[:max]))
	}
	return s
}

func quote(s string) string {
	return `"` + strings.TrimSpace(s) + `"`
}
