package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tonica-music/catalog/internal/ai"
	"github.com/tonica-music/catalog/internal/masterdata/categories"
	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/masterdata/suppliers"
	"github.com/tonica-music/catalog/internal/platform/db"
	"github.com/tonica-music/catalog/internal/prompts"
	"github.com/tonica-music/catalog/internal/shared"
)

const successMessage = "NFE processed successfully within a transaction."

var invalidMarkers = []string{"INVÁLIDA", "INVALIDA"}

// Stage names a step of the import pipeline.
type Stage string

const (
	StageValidating Stage = "validating"
	StageExtracting Stage = "extracting"
	StageParsing    Stage = "parsing"
	StageResolving  Stage = "resolving"
	StageCommitted  Stage = "committed"
)

// Assistant is the AI surface the pipeline needs.
type Assistant interface {
	ValidateInvoice(ctx context.Context, document string) ai.Result
	ExtractSupplier(ctx context.Context, document string) ai.Result
	ExtractLineItems(ctx context.Context, document string) ai.Result
	SuggestCategory(ctx context.Context, info prompts.ProductInfo, categories []string) (string, error)
	Enrich(ctx context.Context, info prompts.ProductInfo) (ai.Enrichment, error)
}

type SupplierResolver interface {
	FindOrCreate(ctx context.Context, q db.DBTX, in suppliers.Input) (suppliers.Supplier, error)
}

type CategoryResolver interface {
	ListActive(ctx context.Context, q db.DBTX) ([]categories.Category, error)
}

type ProductResolver interface {
	FindBySKU(ctx context.Context, q db.DBTX, sku string) (products.Product, bool, error)
	Create(ctx context.Context, q db.DBTX, in products.CreateInput, actorID string) (products.Product, error)
	Update(ctx context.Context, q db.DBTX, id uuid.UUID, patch products.Patch, actorID string) (products.Product, error)
	UpdateStock(ctx context.Context, q db.DBTX, id uuid.UUID, quantity int, mode products.StockMode, actorID string) (products.Product, error)
	AssociateCategory(ctx context.Context, q db.DBTX, productID, categoryID uuid.UUID) error
}

// Service runs the invoice import pipeline.
type Service struct {
	assistant  Assistant
	tx         db.Transactor
	suppliers  SupplierResolver
	categories CategoryResolver
	products   ProductResolver
	logger     *slog.Logger
	metrics    *Metrics
	validate   *validator.Validate
}

// Deps collects the collaborators of the pipeline.
type Deps struct {
	Assistant  Assistant
	Tx         db.Transactor
	Suppliers  SupplierResolver
	Categories CategoryResolver
	Products   ProductResolver
	Logger     *slog.Logger
	Metrics    *Metrics
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		assistant:  d.Assistant,
		tx:         d.Tx,
		suppliers:  d.Suppliers,
		categories: d.Categories,
		products:   d.Products,
		logger:     logger,
		metrics:    d.Metrics,
		validate:   validator.New(),
	}
}

// Import validates and extracts document with the model, then writes the
// supplier and every line item in one transaction. Nothing is written
// unless the whole document is processed.
func (s *Service) Import(ctx context.Context, document, actorID string) (Result, error) {
	started := time.Now()
	logger := s.logger.With("import_id", uuid.NewString(), "actor", actorID)

	res, stage, err := s.run(ctx, logger, document, actorID)
	s.metrics.observe(stage, err, time.Since(started))
	if err != nil {
		logger.Error("nfe import aborted", "stage", stage, slog.Any("error", err), "kind", shared.Kind(err))
		return Result{}, err
	}
	logger.Info("nfe import committed",
		"supplier_id", res.Supplier.ID,
		"processed", res.ProcessedCount,
		"categories", res.AvailableCategoriesCount,
		slog.Duration("elapsed", time.Since(started)))
	return res, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, document, actorID string) (Result, Stage, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return Result{}, StageValidating, fmt.Errorf("%w: empty invoice content", shared.ErrValidation)
	}

	logger.Debug("validating invoice", "bytes", len(document))
	if err := s.validateDocument(ctx, document); err != nil {
		return Result{}, StageValidating, err
	}

	logger.Debug("extracting supplier and line items")
	supplierRes, itemsRes, err := s.extract(ctx, document)
	if err != nil {
		return Result{}, StageExtracting, err
	}

	supplier, items, err := s.parse(supplierRes.Text, itemsRes.Text)
	if err != nil {
		return Result{}, StageParsing, err
	}

	var result Result
	err = s.tx.WithTx(ctx, func(q db.DBTX) error {
		active, err := s.categories.ListActive(ctx, q)
		if err != nil {
			return fmt.Errorf("importer: load categories: %w", err)
		}
		sup, err := s.suppliers.FindOrCreate(ctx, q, supplier.input())
		if err != nil {
			return fmt.Errorf("importer: resolve supplier: %w", err)
		}

		result = Result{
			Message:                  successMessage,
			Supplier:                 sup,
			ProcessedProducts:        make([]products.Product, 0, len(items)),
			AvailableCategoriesCount: len(active),
		}
		for i, item := range items {
			p, outcome, err := s.processItem(ctx, logger, q, item, active, actorID)
			if err != nil {
				return fmt.Errorf("importer: item %d (%s): %w", i+1, item.Name, err)
			}
			result.ProcessedProducts = append(result.ProcessedProducts, p)
			result.Items = append(result.Items, outcome)
		}
		result.ProcessedCount = len(result.ProcessedProducts)
		return nil
	})
	if err != nil {
		return Result{}, StageResolving, err
	}
	return result, StageCommitted, nil
}

func (s *Service) validateDocument(ctx context.Context, document string) error {
	res := s.assistant.ValidateInvoice(ctx, document)
	if !res.Success {
		if errors.Is(res.Err, ai.ErrNotInitialized) {
			return res.Err
		}
		return fmt.Errorf("%w: validation call failed: %v", shared.ErrInvalidDocument, res.Err)
	}
	verdict := strings.ToUpper(res.Text)
	for _, marker := range invalidMarkers {
		if strings.Contains(verdict, marker) {
			return fmt.Errorf("%w: %s", shared.ErrInvalidDocument, strings.TrimSpace(res.Text))
		}
	}
	return nil
}

func (s *Service) extract(ctx context.Context, document string) (ai.Result, ai.Result, error) {
	var supplierRes, itemsRes ai.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		supplierRes = s.assistant.ExtractSupplier(gctx, document)
		if !supplierRes.Success {
			return fmt.Errorf("importer: extract supplier: %w", supplierRes.Err)
		}
		return nil
	})
	g.Go(func() error {
		itemsRes = s.assistant.ExtractLineItems(gctx, document)
		if !itemsRes.Success {
			return fmt.Errorf("importer: extract line items: %w", itemsRes.Err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ai.Result{}, ai.Result{}, err
	}
	return supplierRes, itemsRes, nil
}

func (s *Service) parse(supplierText, itemsText string) (ExtractedSupplier, []ExtractedLineItem, error) {
	var supplier ExtractedSupplier
	if err := ai.Decode(supplierText, &supplier); err != nil {
		return ExtractedSupplier{}, nil, fmt.Errorf("importer: supplier: %w", err)
	}
	if err := s.validate.Struct(supplier); err != nil {
		return ExtractedSupplier{}, nil, fmt.Errorf("%w: supplier: %v", shared.ErrUnprocessableResponse, err)
	}

	var items []ExtractedLineItem
	if err := ai.Decode(itemsText, &items); err != nil {
		return ExtractedSupplier{}, nil, fmt.Errorf("importer: line items: %w", err)
	}
	for i, item := range items {
		if err := s.validate.Struct(item); err != nil {
			return ExtractedSupplier{}, nil, fmt.Errorf("%w: line item %d: %v", shared.ErrUnprocessableResponse, i+1, err)
		}
	}
	return supplier, items, nil
}
