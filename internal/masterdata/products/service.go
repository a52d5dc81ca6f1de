package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/audit"
	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

const slugFallback = "produto"

// Recorder appends product logs inside the caller's scope.
type Recorder interface {
	Record(ctx context.Context, q db.DBTX, e audit.Entry) error
}

// Service resolves and mutates products. Every mutation writes exactly one
// product log through the same scope as the mutation itself.
type Service struct {
	repo   Repository
	logs   Recorder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logs Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logs: logs, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, nil, filters)
}

func (s *Service) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error) {
	return s.repo.Get(ctx, q, id)
}

// FindBySKU returns the live product holding sku. Blank SKUs never match.
func (s *Service) FindBySKU(ctx context.Context, q db.DBTX, sku string) (Product, bool, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, false, nil
	}
	p, err := s.repo.FindBySKU(ctx, q, sku)
	if errors.Is(err, internalShared.ErrNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

// Create inserts a product with a unique slug derived from its name.
func (s *Service) Create(ctx context.Context, q db.DBTX, in CreateInput, actorID string) (Product, error) {
	now := s.now().UTC()
	p := Product{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Price:            roundPrice(in.Price),
		SKU:              strings.TrimSpace(in.SKU),
		StockQuantity:    in.StockQuantity,
		Status:           in.Status,
		Featured:         in.Featured,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if err := p.validate(); err != nil {
		return Product{}, err
	}

	if _, found, err := s.FindBySKU(ctx, q, p.SKU); err != nil {
		return Product{}, err
	} else if found {
		return Product{}, fmt.Errorf("products: create sku %q: %w", p.SKU, internalShared.ErrDuplicateSKU)
	}

	created, err := s.insertWithUniqueSlug(ctx, q, p)
	if err != nil {
		return Product{}, err
	}
	for _, categoryID := range in.CategoryIDs {
		if err := s.repo.AssociateCategory(ctx, q, created.ID, categoryID); err != nil {
			return Product{}, err
		}
	}
	if err := s.record(ctx, q, created.ID, audit.ActionCreated, nil, created, actorID); err != nil {
		return Product{}, err
	}
	s.logger.Debug("product created", "product_id", created.ID, "sku", created.SKU, "slug", created.Slug)
	return created, nil
}

// Update applies patch to the product.
func (s *Service) Update(ctx context.Context, q db.DBTX, id uuid.UUID, patch Patch, actorID string) (Product, error) {
	before, err := s.repo.GetForUpdate(ctx, q, id)
	if err != nil {
		return Product{}, err
	}
	after := before
	patch.apply(&after)
	after.Price = roundPrice(after.Price)
	after.Name = strings.TrimSpace(after.Name)
	after.SKU = strings.TrimSpace(after.SKU)
	if err := after.validate(); err != nil {
		return Product{}, err
	}

	if after.SKU != before.SKU {
		holder, found, err := s.FindBySKU(ctx, q, after.SKU)
		if err != nil {
			return Product{}, err
		}
		if found && holder.ID != id {
			return Product{}, fmt.Errorf("products: update sku %q: %w", after.SKU, internalShared.ErrDuplicateSKU)
		}
	}
	if patch.Slug != nil {
		after.Slug = shared.Slugify(*patch.Slug, "")
		if after.Slug == "" {
			return Product{}, fmt.Errorf("%w: slug %q has no usable characters", internalShared.ErrValidation, *patch.Slug)
		}
		if after.Slug != before.Slug {
			taken, err := s.repo.SlugExists(ctx, q, after.Slug)
			if err != nil {
				return Product{}, err
			}
			if taken {
				return Product{}, fmt.Errorf("products: update slug %q: %w", after.Slug, internalShared.ErrDuplicateSlug)
			}
		}
	}

	updated, err := s.repo.Update(ctx, q, after)
	if err != nil {
		return Product{}, err
	}
	if patch.CategoryIDs != nil {
		if err := s.repo.ReplaceCategories(ctx, q, id, *patch.CategoryIDs); err != nil {
			return Product{}, err
		}
	}
	if err := s.record(ctx, q, id, audit.ActionUpdated, before, updated, actorID); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// UpdateStock applies quantity to the stock according to mode.
func (s *Service) UpdateStock(ctx context.Context, q db.DBTX, id uuid.UUID, quantity int, mode StockMode, actorID string) (Product, error) {
	before, err := s.repo.GetForUpdate(ctx, q, id)
	if err != nil {
		return Product{}, err
	}
	next, err := ApplyStock(before.StockQuantity, quantity, mode)
	if err != nil {
		return Product{}, err
	}
	updated, err := s.repo.SetStock(ctx, q, id, next)
	if err != nil {
		return Product{}, err
	}
	if err := s.record(ctx, q, id, audit.ActionStockChanged, before, updated, actorID); err != nil {
		return Product{}, err
	}
	s.logger.Debug("product stock changed", "product_id", id, "mode", mode, "from", before.StockQuantity, "to", updated.StockQuantity)
	return updated, nil
}

// Delete tombstones the product.
func (s *Service) Delete(ctx context.Context, q db.DBTX, id uuid.UUID, actorID string) error {
	before, err := s.repo.GetForUpdate(ctx, q, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, q, id); err != nil {
		return err
	}
	return s.record(ctx, q, id, audit.ActionDeleted, before, nil, actorID)
}

// AssociateCategory links the product to a category. Linking twice is a no-op.
func (s *Service) AssociateCategory(ctx context.Context, q db.DBTX, productID, categoryID uuid.UUID) error {
	return s.repo.AssociateCategory(ctx, q, productID, categoryID)
}

func (s *Service) CategoryIDs(ctx context.Context, q db.DBTX, productID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.CategoryIDs(ctx, q, productID)
}

// insertWithUniqueSlug picks the first free slug for p and inserts it. A slug
// claimed by a concurrent transaction between the check and the insert is
// rolled back to a savepoint and the next suffix is tried.
func (s *Service) insertWithUniqueSlug(ctx context.Context, q db.DBTX, p Product) (Product, error) {
	base := shared.Slugify(p.Name, slugFallback)
	rejected := make(map[string]bool)
	taken := func(ctx context.Context, slug string) (bool, error) {
		if rejected[slug] {
			return true, nil
		}
		return s.repo.SlugExists(ctx, q, slug)
	}
	for {
		slug, err := shared.UniqueSlug(ctx, base, taken)
		if err != nil {
			return Product{}, err
		}
		p.Slug = slug

		var created Product
		err = db.Savepoint(ctx, q, func(sp db.DBTX) error {
			var insertErr error
			created, insertErr = s.repo.Insert(ctx, sp, p)
			return insertErr
		})
		if errors.Is(err, internalShared.ErrDuplicateSlug) {
			s.logger.Debug("product slug claimed concurrently, retrying", "slug", slug)
			rejected[slug] = true
			continue
		}
		if err != nil {
			return Product{}, err
		}
		return created, nil
	}
}

func (s *Service) record(ctx context.Context, q db.DBTX, id uuid.UUID, action audit.Action, before, after any, actorID string) error {
	return s.logs.Record(ctx, q, audit.Entry{ProductID: id, Action: action, Old: before, New: after, ActorID: actorID})
}
