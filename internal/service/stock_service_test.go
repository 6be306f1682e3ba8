package service_test

import (
	"context"
	"testing"

	"beewear/internal/dto"
	"beewear/internal/model"
	"beewear/internal/repository"
	"beewear/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory StockRepository stub ───────────────────────────────────────────

type stubStockRepo struct {
	items     map[uuid.UUID]*model.StockItem
	movements []model.StockMovement
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{items: make(map[uuid.UUID]*model.StockItem)}
}

func (r *stubStockRepo) seedItem(quantity, minimum int) uuid.UUID {
	id := uuid.New()
	r.items[id] = &model.StockItem{ID: id, VariationSizeID: uuid.New(), Quantity: quantity, MinimumStock: minimum}
	return id
}

func (r *stubStockRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubStockRepo) FindItemForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubStockRepo) FindItemByVariationSizeForUpdateTx(_ *gorm.DB, variationSizeID uuid.UUID) (*model.StockItem, error) {
	for _, item := range r.items {
		if item.VariationSizeID == variationSizeID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockRepo) UpdateItemQuantityTx(_ *gorm.DB, id uuid.UUID, newQuantity int) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = newQuantity
	return nil
}

func (r *stubStockRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubStockRepo) ListMovements(_ context.Context, stockItemID uuid.UUID, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	var result []model.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- { // newest first
		m := r.movements[i]
		if m.StockItemID != stockItemID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		result = append(result, m)
	}
	return result, int64(len(result)), nil
}

func (r *stubStockRepo) ListLowStock(_ context.Context) ([]model.StockItem, error) {
	var result []model.StockItem
	for _, item := range r.items {
		if item.Quantity <= item.MinimumStock {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubStockRepo) DB() *gorm.DB { return nil }

var _ repository.StockRepository = (*stubStockRepo)(nil)

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAdjustPositiveDeltaRecordsInMovement(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(10, 2)
	svc := service.NewStockService(repo)

	resp, err := svc.Adjust(context.Background(), nil, itemID, 5, "restock from supplier")
	require.NoError(t, err)

	assert.Equal(t, model.MovementIn, resp.Type)
	assert.Equal(t, 5, resp.Quantity)
	assert.Equal(t, 10, resp.PreviousQuantity)
	assert.Equal(t, 15, resp.NewQuantity)
	assert.Equal(t, 15, repo.items[itemID].Quantity)
	require.Len(t, repo.movements, 1)
}

func TestAdjustNegativeDeltaRecordsOutMovement(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(10, 2)
	svc := service.NewStockService(repo)

	resp, err := svc.Adjust(context.Background(), nil, itemID, -4, "damaged in storage")
	require.NoError(t, err)

	assert.Equal(t, model.MovementOut, resp.Type)
	assert.Equal(t, 4, resp.Quantity)
	assert.Equal(t, 6, resp.NewQuantity)
	assert.Equal(t, 6, repo.items[itemID].Quantity)
}

func TestAdjustZeroDeltaRejected(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(10, 2)
	svc := service.NewStockService(repo)

	_, err := svc.Adjust(context.Background(), nil, itemID, 0, "no-op")
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
	assert.Empty(t, repo.movements)
}

func TestAdjustWithoutDescription(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(10, 2)
	svc := service.NewStockService(repo)

	// The reason is optional; the movement still records the full chain.
	resp, err := svc.Adjust(context.Background(), nil, itemID, 3, "")
	require.NoError(t, err)
	assert.Empty(t, resp.Description)
	assert.Equal(t, 13, resp.NewQuantity)
}

func TestAdjustInsufficientStockLeavesItemUntouched(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(3, 1)
	svc := service.NewStockService(repo)

	_, err := svc.Adjust(context.Background(), nil, itemID, -5, "oversell attempt")
	assert.ErrorIs(t, err, service.ErrInsufficientStock)

	// Failed movement must not change the counter nor append to the ledger.
	assert.Equal(t, 3, repo.items[itemID].Quantity)
	assert.Empty(t, repo.movements)
}

func TestAdjustUnknownItem(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo)

	_, err := svc.Adjust(context.Background(), nil, uuid.New(), 1, "ghost item")
	assert.ErrorIs(t, err, service.ErrStockItemNotFound)
}

// The ledger chain: each movement's PreviousQuantity equals the prior
// movement's NewQuantity, and the final NewQuantity equals the counter.
func TestMovementLedgerStaysConsistent(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(0, 0)
	svc := service.NewStockService(repo)
	ctx := context.Background()

	deltas := []int{10, -3, 7, -14}
	for _, d := range deltas {
		_, err := svc.Adjust(ctx, nil, itemID, d, "ledger walk")
		require.NoError(t, err)
	}

	require.Len(t, repo.movements, len(deltas))
	prev := 0
	for _, m := range repo.movements {
		assert.Equal(t, prev, m.PreviousQuantity)
		prev = m.NewQuantity
	}
	assert.Equal(t, prev, repo.items[itemID].Quantity)
	assert.Equal(t, 0, repo.items[itemID].Quantity)
}

func TestListMovementsFiltersByType(t *testing.T) {
	repo := newStubStockRepo()
	itemID := repo.seedItem(0, 0)
	svc := service.NewStockService(repo)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, nil, itemID, 5, "in one")
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, nil, itemID, -2, "out one")
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, nil, itemID, 4, "in two")
	require.NoError(t, err)

	resp, err := svc.ListMovements(ctx, itemID, dto.MovementFilter{Type: model.MovementIn, Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	for _, m := range resp.Data {
		assert.Equal(t, model.MovementIn, m.Type)
	}
}

func TestListMovementsUnknownItem(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo)

	_, err := svc.ListMovements(context.Background(), uuid.New(), dto.MovementFilter{Page: 1, Limit: 50})
	assert.ErrorIs(t, err, service.ErrStockItemNotFound)
}

func TestLowStockAlerts(t *testing.T) {
	repo := newStubStockRepo()
	lowID := repo.seedItem(1, 3)
	repo.seedItem(50, 3) // healthy
	svc := service.NewStockService(repo)

	alerts, err := svc.LowStockAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, lowID.String(), alerts[0].StockItemID)
	assert.Equal(t, 1, alerts[0].Quantity)
	assert.Equal(t, 3, alerts[0].MinimumStock)
}
