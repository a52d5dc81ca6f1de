package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tonica-music/catalog/internal/prompts"
)

// Sampling presets per use case.
var (
	ValidateOptions        = Options{Temperature: 0.1, MaxTokens: 256}
	ExtractProductsOptions = Options{Temperature: 0.2, MaxTokens: 2048}
	ExtractSupplierOptions = Options{Temperature: 0.2, MaxTokens: 1024}
	CategorizeOptions      = Options{Temperature: 0.3, MaxTokens: 512}
	DescriptionOptions     = Options{Temperature: 0.7, MaxTokens: 1024}
	SEOTitleOptions        = Options{Temperature: 0.5, MaxTokens: 40}
	MetaDescriptionOptions = Options{Temperature: 0.5, MaxTokens: 300}
)

// Generator is the slice of Gateway the assistant depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) Result
}

// Assistant pairs each catalog task with its prompt and sampling preset.
type Assistant struct {
	gen Generator
}

// NewAssistant wraps gen.
func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

// ValidateInvoice asks the model whether document is a usable invoice.
func (a *Assistant) ValidateInvoice(ctx context.Context, document string) Result {
	return a.gen.Generate(ctx, prompts.Validation(document), ValidateOptions)
}

// ExtractSupplier asks for the invoice issuer as JSON.
func (a *Assistant) ExtractSupplier(ctx context.Context, document string) Result {
	return a.gen.Generate(ctx, prompts.SupplierExtraction(document), ExtractSupplierOptions)
}

// ExtractLineItems asks for the invoice items as a JSON array.
func (a *Assistant) ExtractLineItems(ctx context.Context, document string) Result {
	return a.gen.Generate(ctx, prompts.ProductsExtraction(document), ExtractProductsOptions)
}

// SuggestCategory asks the model to pick one of categories for the product.
// The answer is cleaned of list numbering, quotes and trailing punctuation.
func (a *Assistant) SuggestCategory(ctx context.Context, info prompts.ProductInfo, categories []string) (string, error) {
	if len(categories) == 0 {
		return "", errors.New("ai: no categories to choose from")
	}
	res := a.gen.Generate(ctx, prompts.Categorization(info, categories), CategorizeOptions)
	if !res.Success {
		return "", res.Err
	}
	return CleanCategoryAnswer(res.Text), nil
}

// Enrichment is AI-generated copy for a product. Empty fields failed to generate.
type Enrichment struct {
	Description     string
	MetaTitle       string
	MetaDescription string
}

// Enrich generates description, SEO title and meta description concurrently.
// Fields whose call failed are left empty and their errors joined in the result.
func (a *Assistant) Enrich(ctx context.Context, info prompts.ProductInfo) (Enrichment, error) {
	var (
		out  Enrichment
		errs [3]error
		g    errgroup.Group
	)
	run := func(i int, prompt string, opts Options, dst *string) {
		g.Go(func() error {
			res := a.gen.Generate(ctx, prompt, opts)
			if !res.Success {
				errs[i] = res.Err
				return nil
			}
			*dst = strings.TrimSpace(res.Text)
			return nil
		})
	}
	run(0, prompts.Description(info), DescriptionOptions, &out.Description)
	run(1, prompts.SEOTitle(info), SEOTitleOptions, &out.MetaTitle)
	run(2, prompts.MetaDescription(info), MetaDescriptionOptions, &out.MetaDescription)
	_ = g.Wait()

	var joined []error
	for i, label := range []string{"description", "meta title", "meta description"} {
		if errs[i] != nil {
			joined = append(joined, fmt.Errorf("%s: %w", label, errs[i]))
		}
	}
	return out, errors.Join(joined...)
}

// CleanCategoryAnswer normalizes a free-text category reply.
func CleanCategoryAnswer(answer string) string {
	s := strings.TrimSpace(answer)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.TrimPrefix(s, "CATEGORIA:")
	s = strings.TrimSpace(s)
	// "3. Guitarras" -> "Guitarras"
	if i := strings.Index(s, ". "); i > 0 && isDigits(s[:i]) {
		s = s[i+2:]
	}
	return strings.Trim(s, "\"'`*.; ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
