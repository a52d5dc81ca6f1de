package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/audit"
	"github.com/tonica-music/catalog/internal/masterdata/shared"
	"github.com/tonica-music/catalog/internal/platform/db"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

type memoryRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]Product
	links map[uuid.UUID]map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]Product), links: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (r *memoryRepo) List(_ context.Context, _ db.DBTX, filters shared.ListFilters) ([]Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Product
	for _, p := range r.rows {
		if p.DeletedAt == nil && strings.Contains(p.Name, filters.Search) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(_ context.Context, _ db.DBTX, id uuid.UUID) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.DeletedAt != nil {
		return Product{}, internalShared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, q db.DBTX, id uuid.UUID) (Product, error) {
	return r.Get(ctx, q, id)
}

func (r *memoryRepo) FindBySKU(_ context.Context, _ db.DBTX, sku string) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.DeletedAt == nil && p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, internalShared.ErrNotFound
}

func (r *memoryRepo) SlugExists(_ context.Context, _ db.DBTX, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(_ context.Context, _ db.DBTX, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(_ context.Context, _ db.DBTX, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = p
	return p, nil
}

func (r *memoryRepo) SetStock(_ context.Context, _ db.DBTX, id uuid.UUID, quantity int) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.rows[id]
	p.StockQuantity = quantity
	r.rows[id] = p
	return p, nil
}

func (r *memoryRepo) SoftDelete(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.rows[id]
	now := time.Now()
	p.DeletedAt = &now
	r.rows[id] = p
	return nil
}

func (r *memoryRepo) AssociateCategory(_ context.Context, _ db.DBTX, productID, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[productID] == nil {
		r.links[productID] = make(map[uuid.UUID]bool)
	}
	r.links[productID][categoryID] = true
	return nil
}

func (r *memoryRepo) ReplaceCategories(ctx context.Context, q db.DBTX, productID uuid.UUID, ids []uuid.UUID) error {
	r.mu.Lock()
	delete(r.links, productID)
	r.mu.Unlock()
	for _, id := range ids {
		if err := r.AssociateCategory(ctx, q, productID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepo) CategoryIDs(_ context.Context, _ db.DBTX, productID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id := range r.links[productID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type memoryRecorder struct {
	entries []audit.Entry
}

func (m *memoryRecorder) Record(_ context.Context, _ db.DBTX, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) actions() []audit.Action {
	out := make([]audit.Action, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

func newService() (*Service, *memoryRepo, *memoryRecorder) {
	repo := newMemoryRepo()
	logs := &memoryRecorder{}
	return NewService(repo, logs, nil), repo, logs
}

func TestCreateWritesOneCreatedLog(t *testing.T) {
	svc, _, logs := newService()
	p, err := svc.Create(context.Background(), nil, CreateInput{
		Name:          "Pedal Boss GT-100",
		Price:         decimal.RequireFromString("450.00"),
		StockQuantity: 3,
		SKU:           " GT-100 ",
	}, "user-1")
	require.NoError(t, err)
	require.Equal(t, "GT-100", p.SKU)
	require.Equal(t, "pedal-boss-gt-100", p.Slug)
	require.Equal(t, StatusActive, p.Status)
	require.Equal(t, 3, p.StockQuantity)

	require.Equal(t, []audit.Action{audit.ActionCreated}, logs.actions())
	require.Nil(t, logs.entries[0].Old)
	require.Equal(t, p, logs.entries[0].New)
	require.Equal(t, "user-1", logs.entries[0].ActorID)
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc, _, logs := newService()
	ctx := context.Background()
	_, err := svc.Create(ctx, nil, CreateInput{Name: "A", SKU: "X1"}, "u")
	require.NoError(t, err)

	_, err = svc.Create(ctx, nil, CreateInput{Name: "B", SKU: "X1"}, "u")
	require.ErrorIs(t, err, internalShared.ErrDuplicateSKU)
	require.Len(t, logs.entries, 1)
}

func TestCreateSuffixesCollidingSlugs(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	var slugs []string
	for i := 0; i < 3; i++ {
		p, err := svc.Create(ctx, nil, CreateInput{Name: "Violão Clássico"}, "u")
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)
	}
	require.Equal(t, []string{"violao-classico", "violao-classico-1", "violao-classico-2"}, slugs)
}

// slugRaceRepo rejects the first insert of each listed slug as if a
// concurrent transaction had committed it after the existence check.
type slugRaceRepo struct {
	*memoryRepo
	claimed map[string]bool
	inserts []string
}

func (r *slugRaceRepo) Insert(ctx context.Context, q db.DBTX, p Product) (Product, error) {
	r.inserts = append(r.inserts, p.Slug)
	if r.claimed[p.Slug] {
		delete(r.claimed, p.Slug)
		return Product{}, fmt.Errorf("products: insert slug %q: %w", p.Slug, internalShared.ErrDuplicateSlug)
	}
	return r.memoryRepo.Insert(ctx, q, p)
}

func TestCreateRetriesSlugClaimedConcurrently(t *testing.T) {
	repo := &slugRaceRepo{memoryRepo: newMemoryRepo(), claimed: map[string]bool{"guitarra": true, "guitarra-1": true}}
	logs := &memoryRecorder{}
	svc := NewService(repo, logs, nil)

	p, err := svc.Create(context.Background(), nil, CreateInput{Name: "Guitarra", StockQuantity: 1}, "u")
	require.NoError(t, err)
	require.Equal(t, "guitarra-2", p.Slug)
	require.Equal(t, []string{"guitarra", "guitarra-1", "guitarra-2"}, repo.inserts)
	require.Len(t, logs.entries, 1)
	require.Equal(t, audit.ActionCreated, logs.entries[0].Action)
}

func TestCreateDoesNotRetryOtherInsertFailures(t *testing.T) {
	repo := &failingInsertRepo{memoryRepo: newMemoryRepo(), err: internalShared.Persistence("products: insert", errors.New("conn reset"))}
	svc := NewService(repo, &memoryRecorder{}, nil)

	_, err := svc.Create(context.Background(), nil, CreateInput{Name: "Baixo"}, "u")
	require.ErrorIs(t, err, internalShared.ErrPersistence)
	require.Equal(t, 1, repo.calls)
}

type failingInsertRepo struct {
	*memoryRepo
	err   error
	calls int
}

func (r *failingInsertRepo) Insert(context.Context, db.DBTX, Product) (Product, error) {
	r.calls++
	return Product{}, r.err
}

func TestCreateSlugSkipsTombstonedProducts(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Cajón"}, "u")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, nil, p.ID, "u"))

	again, err := svc.Create(ctx, nil, CreateInput{Name: "Cajón"}, "u")
	require.NoError(t, err)
	require.Equal(t, "cajon-1", again.Slug)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	cases := []CreateInput{
		{Name: " "},
		{Name: "A", Price: decimal.NewFromInt(-1)},
		{Name: "A", StockQuantity: -1},
		{Name: "A", Status: "archived"},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, nil, in, "u")
		require.ErrorIs(t, err, internalShared.ErrValidation)
	}
}

func TestCreateAssociatesCategories(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	cat := uuid.New()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Bateria", CategoryIDs: []uuid.UUID{cat}}, "u")
	require.NoError(t, err)

	require.NoError(t, svc.AssociateCategory(ctx, nil, p.ID, cat))
	ids, err := svc.CategoryIDs(ctx, nil, p.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{cat}, ids)
}

func TestUpdatePatchesAndLogsSnapshots(t *testing.T) {
	svc, _, logs := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Teclado", Description: "Teclado"}, "u")
	require.NoError(t, err)

	desc := "Teclado arranjador com 61 teclas sensitivas."
	title := "Teclado Arranjador 61 Teclas"
	updated, err := svc.Update(ctx, nil, p.ID, Patch{Description: &desc, MetaTitle: &title}, "u2")
	require.NoError(t, err)
	require.Equal(t, desc, updated.Description)
	require.Equal(t, title, updated.MetaTitle)
	require.Equal(t, p.Slug, updated.Slug)

	require.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionUpdated}, logs.actions())
	require.Equal(t, p, logs.entries[1].Old)
	require.Equal(t, updated, logs.entries[1].New)
}

func TestUpdateRejectsTakenSKUAndSlug(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	a, err := svc.Create(ctx, nil, CreateInput{Name: "Guitarra", SKU: "G1"}, "u")
	require.NoError(t, err)
	b, err := svc.Create(ctx, nil, CreateInput{Name: "Baixo", SKU: "B1"}, "u")
	require.NoError(t, err)

	sku := "G1"
	_, err = svc.Update(ctx, nil, b.ID, Patch{SKU: &sku}, "u")
	require.ErrorIs(t, err, internalShared.ErrDuplicateSKU)

	slug := a.Slug
	_, err = svc.Update(ctx, nil, b.ID, Patch{Slug: &slug}, "u")
	require.ErrorIs(t, err, internalShared.ErrDuplicateSlug)

	same := b.Slug
	_, err = svc.Update(ctx, nil, b.ID, Patch{Slug: &same}, "u")
	require.NoError(t, err)

	_, err = svc.Update(ctx, nil, uuid.New(), Patch{}, "u")
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestUpdateReplacesCategories(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Flauta", CategoryIDs: []uuid.UUID{uuid.New()}}, "u")
	require.NoError(t, err)

	empty := []uuid.UUID{}
	_, err = svc.Update(ctx, nil, p.ID, Patch{CategoryIDs: &empty}, "u")
	require.NoError(t, err)
	ids, err := svc.CategoryIDs(ctx, nil, p.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestUpdateStockModes(t *testing.T) {
	svc, _, logs := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Palheta", StockQuantity: 5}, "u")
	require.NoError(t, err)

	p, err = svc.UpdateStock(ctx, nil, p.ID, 2, StockIncrement, "u")
	require.NoError(t, err)
	require.Equal(t, 7, p.StockQuantity)

	p, err = svc.UpdateStock(ctx, nil, p.ID, 10, StockDecrement, "u")
	require.NoError(t, err)
	require.Zero(t, p.StockQuantity)

	p, err = svc.UpdateStock(ctx, nil, p.ID, 12, StockSet, "u")
	require.NoError(t, err)
	require.Equal(t, 12, p.StockQuantity)

	_, err = svc.UpdateStock(ctx, nil, p.ID, -1, StockSet, "u")
	require.ErrorIs(t, err, internalShared.ErrValidation)

	require.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionStockChanged, audit.ActionStockChanged, audit.ActionStockChanged}, logs.actions())
	first := logs.entries[1]
	require.Equal(t, 5, first.Old.(Product).StockQuantity)
	require.Equal(t, 7, first.New.(Product).StockQuantity)
}

func TestDeleteLogsBeforeOnly(t *testing.T) {
	svc, _, logs := newService()
	ctx := context.Background()
	p, err := svc.Create(ctx, nil, CreateInput{Name: "Ukulele", SKU: "UK-1"}, "u")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, nil, p.ID, "u"))
	last := logs.entries[len(logs.entries)-1]
	require.Equal(t, audit.ActionDeleted, last.Action)
	require.Equal(t, p, last.Old)
	require.Nil(t, last.New)

	_, found, err := svc.FindBySKU(ctx, nil, "UK-1")
	require.NoError(t, err)
	require.False(t, found)
	require.ErrorIs(t, svc.Delete(ctx, nil, p.ID, "u"), internalShared.ErrNotFound)

	reused, err := svc.Create(ctx, nil, CreateInput{Name: "Ukulele Soprano", SKU: "UK-1"}, "u")
	require.NoError(t, err)
	require.NotEqual(t, p.ID, reused.ID)
}

func TestFindBySKUIgnoresBlank(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Create(context.Background(), nil, CreateInput{Name: "Sem SKU"}, "u")
	require.NoError(t, err)

	_, found, err := svc.FindBySKU(context.Background(), nil, "  ")
	require.NoError(t, err)
	require.False(t, found)
}

func TestApplyStock(t *testing.T) {
	cases := []struct {
		current, qty int
		mode         StockMode
		want         int
	}{
		{5, 2, StockIncrement, 7},
		{5, 2, StockDecrement, 3},
		{5, 5, StockDecrement, 0},
		{5, 9, StockDecrement, 0},
		{5, 0, StockSet, 0},
		{0, 4, StockSet, 4},
	}
	for _, tc := range cases {
		got, err := ApplyStock(tc.current, tc.qty, tc.mode)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%d %s %d", tc.current, tc.mode, tc.qty)
	}
	_, err := ApplyStock(1, 1, "multiply")
	require.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestCreateKeepsInvoicePricePrecision(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, nil, CreateInput{Name: "Palheta", Price: decimal.RequireFromString("1.2345")}, "u")
	require.NoError(t, err)
	require.Equal(t, "1.2345", p.Price.String())

	p, err = svc.Create(ctx, nil, CreateInput{Name: "Corda", Price: decimal.RequireFromString("0.123456789012")}, "u")
	require.NoError(t, err)
	require.Equal(t, "0.1234567890", p.Price.StringFixed(PriceScale))

	_, err = svc.Create(ctx, nil, CreateInput{Name: "Piano", Price: decimal.New(1, 11)}, "u")
	require.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestApplyStockRejectsOverflow(t *testing.T) {
	_, err := ApplyStock(MaxStock-1, 2, StockIncrement)
	require.ErrorIs(t, err, internalShared.ErrValidation)
	tooMany := MaxStock
	tooMany++
	_, err = ApplyStock(0, tooMany, StockSet)
	require.ErrorIs(t, err, internalShared.ErrValidation)

	got, err := ApplyStock(MaxStock-2, 2, StockIncrement)
	require.NoError(t, err)
	require.Equal(t, MaxStock, got)
}

func TestProductJSONKeepsDecimalPrecision(t *testing.T) {
	raw, err := json.Marshal(Product{Price: decimal.RequireFromString("1299.90")})
	require.NoError(t, err)
	require.Contains(t, string(raw), `"price":"1299.9"`)
}
