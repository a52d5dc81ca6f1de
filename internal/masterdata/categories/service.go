package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

// maxDepth caps ancestor walks so corrupted data cannot loop forever.
const maxDepth = 64

// TreeCache stores the rendered category tree between writes.
type TreeCache interface {
	Key(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
	cache  TreeCache
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithCache enables tree caching. Every successful write invalidates it.
func (s *Service) WithCache(c TreeCache) *Service {
	s.cache = c
	return s
}

// ListActive returns active, non-deleted categories.
func (s *Service) ListActive(ctx context.Context, q db.DBTX) ([]Category, error) {
	return s.repo.ListActive(ctx, q)
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx, nil)
}

func (s *Service) Get(ctx context.Context, q db.DBTX, id uuid.UUID) (Category, error) {
	return s.repo.Get(ctx, q, id)
}

// FindByName matches name case-insensitively against the active categories.
func (s *Service) FindByName(ctx context.Context, q db.DBTX, name string) (Category, bool, error) {
	active, err := s.repo.ListActive(ctx, q)
	if err != nil {
		return Category{}, false, err
	}
	c, ok := Match(active, name)
	return c, ok, nil
}

// Children returns the live direct children of id.
func (s *Service) Children(ctx context.Context, q db.DBTX, id uuid.UUID) ([]Category, error) {
	all, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return NewHierarchy(all).Children(id), nil
}

// Parent returns the parent of id, or false for a root.
func (s *Service) Parent(ctx context.Context, q db.DBTX, id uuid.UUID) (Category, bool, error) {
	c, err := s.repo.Get(ctx, q, id)
	if err != nil {
		return Category{}, false, err
	}
	if c.ParentID == nil {
		return Category{}, false, nil
	}
	p, err := s.repo.Get(ctx, q, *c.ParentID)
	if err != nil {
		return Category{}, false, err
	}
	return p, true, nil
}

// Tree returns the active categories arranged by parent with level and path.
func (s *Service) Tree(ctx context.Context) ([]TreeNode, error) {
	build := func(ctx context.Context) ([]TreeNode, error) {
		active, err := s.repo.ListActive(ctx, nil)
		if err != nil {
			return nil, err
		}
		return NewHierarchy(active).Tree(), nil
	}
	if s.cache == nil {
		return build(ctx)
	}
	key, err := s.cache.Key(ctx, "tree")
	if err != nil {
		s.logger.Warn("category cache unavailable", slog.Any("error", err))
		return build(ctx)
	}
	var tree []TreeNode
	err = s.cache.FetchJSON(ctx, key, &tree, func(ctx context.Context) (any, error) {
		return build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("category cache bump failed", slog.Any("error", err))
	}
}

// Create adds a category. The slug derives from the name and must be unused.
func (s *Service) Create(ctx context.Context, q db.DBTX, in Input) (Category, error) {
	if err := validate(in); err != nil {
		return Category{}, err
	}
	slug := shared.Slugify(in.Name, "categoria")
	taken, err := s.repo.SlugExists(ctx, q, slug)
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, fmt.Errorf("categories: create %q: %w", slug, internalShared.ErrDuplicateSlug)
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, q, *in.ParentID); err != nil {
			return Category{}, fmt.Errorf("categories: parent: %w", err)
		}
	}

	now := s.now().UTC()
	c := Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		ParentID:    in.ParentID,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.repo.Insert(ctx, q, c)
	if err != nil {
		return Category{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update rewrites the category fields. A parent change goes through the cycle check.
func (s *Service) Update(ctx context.Context, q db.DBTX, id uuid.UUID, in Input) (Category, error) {
	if err := validate(in); err != nil {
		return Category{}, err
	}
	c, err := s.repo.Get(ctx, q, id)
	if err != nil {
		return Category{}, err
	}
	if err := s.checkParent(ctx, q, id, in.ParentID); err != nil {
		return Category{}, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.ParentID = in.ParentID
	c.SortOrder = in.SortOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	updated, err := s.repo.Update(ctx, q, c)
	if err != nil {
		return Category{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Reparent moves id under parentID, or to the root when parentID is nil.
func (s *Service) Reparent(ctx context.Context, q db.DBTX, id uuid.UUID, parentID *uuid.UUID) (Category, error) {
	c, err := s.repo.Get(ctx, q, id)
	if err != nil {
		return Category{}, err
	}
	if err := s.checkParent(ctx, q, id, parentID); err != nil {
		return Category{}, err
	}
	c.ParentID = parentID
	updated, err := s.repo.Update(ctx, q, c)
	if err != nil {
		return Category{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("category re-parented", "category_id", id, "parent_id", parentID)
	return updated, nil
}

// Delete tombstones a category that has no live children.
func (s *Service) Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, q, id); err != nil {
		return err
	}
	n, err := s.repo.CountChildren(ctx, q, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("categories: delete %s (%d children): %w", id, n, internalShared.ErrCategoryHasChildren)
	}
	if err := s.repo.SoftDelete(ctx, q, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// checkParent walks the ancestor chain of parentID and rejects the change
// when id appears in it.
func (s *Service) checkParent(ctx context.Context, q db.DBTX, id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	cur := *parentID
	for depth := 0; depth < maxDepth; depth++ {
		if cur == id {
			return fmt.Errorf("categories: parent %s of %s: %w", *parentID, id, internalShared.ErrCategoryCycle)
		}
		c, err := s.repo.Get(ctx, q, cur)
		if err != nil {
			return fmt.Errorf("categories: parent: %w", err)
		}
		if c.ParentID == nil {
			return nil
		}
		cur = *c.ParentID
	}
	return fmt.Errorf("categories: ancestor chain of %s exceeds %d levels: %w", *parentID, maxDepth, internalShared.ErrCategoryCycle)
}

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: category name is required", internalShared.ErrValidation)
	}
	if in.SortOrder < 0 {
		return fmt.Errorf("%w: sort order must not be negative", internalShared.ErrValidation)
	}
	return nil
}
