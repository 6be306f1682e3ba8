package repository

import (
	"context"

	"beewear/internal/dto"
	"beewear/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository persists stock items and their movement ledger.
// All quantity writes happen through ...Tx methods — callers own the
// transaction so the counter update and the ledger insert commit together.
type StockRepository interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)

	// FindItemForUpdateTx loads the stock item with a SELECT ... FOR UPDATE
	// row lock. Concurrent adjustments to the same item serialize here, which
	// makes the insufficient-stock check race-free.
	FindItemForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	FindItemByVariationSizeForUpdateTx(tx *gorm.DB, variationSizeID uuid.UUID) (*model.StockItem, error)

	UpdateItemQuantityTx(tx *gorm.DB, id uuid.UUID, newQuantity int) error
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error

	ListMovements(ctx context.Context, stockItemID uuid.UUID, filter dto.MovementFilter) ([]model.StockMovement, int64, error)

	// ListLowStock returns items at or below their minimum threshold with the
	// catalog chain preloaded for display.
	ListLowStock(ctx context.Context) ([]model.StockItem, error)

	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func (r *stockRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *stockRepo) FindItemForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error
	return &item, err
}

func (r *stockRepo) FindItemByVariationSizeForUpdateTx(tx *gorm.DB, variationSizeID uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("variation_size_id = ?", variationSizeID).First(&item).Error
	return &item, err
}

func (r *stockRepo) UpdateItemQuantityTx(tx *gorm.DB, id uuid.UUID, newQuantity int) error {
	return tx.Model(&model.StockItem{}).Where("id = ?", id).Update("quantity", newQuantity).Error
}

func (r *stockRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockRepo) ListMovements(ctx context.Context, stockItemID uuid.UUID, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("stock_item_id = ?", stockItemID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var movements []model.StockMovement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockRepo) ListLowStock(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).
		Where("quantity <= minimum_stock").
		Preload("VariationSize").
		Preload("VariationSize.ProductVariation").
		Preload("VariationSize.ProductVariation.Product").
		Find(&items).Error
	return items, err
}
