package suppliers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

// Service resolves and maintains suppliers.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a supplier service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// FindOrCreate returns the live supplier holding in.CNPJ, creating it when
// absent. A concurrent creation of the same CNPJ is resolved by re-reading
// the row that won.
func (s *Service) FindOrCreate(ctx context.Context, q db.DBTX, in Input) (Supplier, error) {
	cnpj, err := ParseCNPJ(in.CNPJ)
	if err != nil {
		return Supplier{}, err
	}
	existing, err := s.repo.FindByCNPJ(ctx, q, cnpj)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, internalShared.ErrNotFound) {
		return Supplier{}, err
	}

	in.CNPJ = cnpj
	if err := validate(in); err != nil {
		return Supplier{}, err
	}
	var created Supplier
	err = db.Savepoint(ctx, q, func(sp db.DBTX) error {
		var insertErr error
		created, insertErr = s.repo.Insert(ctx, sp, s.newSupplier(in))
		return insertErr
	})
	if errors.Is(err, internalShared.ErrDuplicateTaxID) {
		s.logger.Info("supplier created concurrently, reusing existing row", "cnpj", cnpj)
		return s.repo.FindByCNPJ(ctx, q, cnpj)
	}
	if err != nil {
		return Supplier{}, err
	}
	s.logger.Info("supplier created", "supplier_id", created.ID, "cnpj", cnpj)
	return created, nil
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, nil, filters)
}

func (s *Service) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Supplier, error) {
	return s.repo.Get(ctx, q, id)
}

// Create registers a supplier and rejects a CNPJ already held by a live supplier.
func (s *Service) Create(ctx context.Context, q db.DBTX, in Input) (Supplier, error) {
	cnpj, err := ParseCNPJ(in.CNPJ)
	if err != nil {
		return Supplier{}, err
	}
	in.CNPJ = cnpj
	if err := validate(in); err != nil {
		return Supplier{}, err
	}
	return s.repo.Insert(ctx, q, s.newSupplier(in))
}

func (s *Service) Update(ctx context.Context, q db.DBTX, id uuid.UUID, in Input) (Supplier, error) {
	current, err := s.repo.Get(ctx, q, id)
	if err != nil {
		return Supplier{}, err
	}
	cnpj, err := ParseCNPJ(in.CNPJ)
	if err != nil {
		return Supplier{}, err
	}
	in.CNPJ = cnpj
	if err := validate(in); err != nil {
		return Supplier{}, err
	}
	holder, err := s.repo.FindByCNPJ(ctx, q, cnpj)
	switch {
	case err == nil && holder.ID != id:
		return Supplier{}, fmt.Errorf("suppliers: update %s: %w", cnpj, internalShared.ErrDuplicateTaxID)
	case err != nil && !errors.Is(err, internalShared.ErrNotFound):
		return Supplier{}, err
	}
	in.apply(&current)
	return s.repo.Update(ctx, q, current)
}

// Delete tombstones the supplier.
func (s *Service) Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, q, id)
}

func (s *Service) newSupplier(in Input) Supplier {
	now := s.now().UTC()
	sup := Supplier{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	in.apply(&sup)
	return sup
}

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", internalShared.ErrValidation)
	}
	return nil
}
