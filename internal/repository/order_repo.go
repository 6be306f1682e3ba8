package repository

import (
	"context"
	"time"

	"beewear/internal/dto"
	"beewear/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)

	// ListStalePending returns PENDING orders created before the cutoff that
	// carry a checkout session — candidates for payment reconciliation.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)

	// UpdateStatusTx advances the order from one status to another as a
	// compare-and-swap: the row is only written while its status still equals
	// `from`. Returns gorm.ErrRecordNotFound when another request won the race
	// (or the order is gone), so callers can reject the stale transition.
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus, payment model.PaymentStatus, notes *string) error
	UpdateCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	NextOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.VariationSize").
		Preload("Items.VariationSize.StockItem").
		Preload("Items.VariationSize.ProductVariation").
		Preload("Items.VariationSize.ProductVariation.Product").
		First(&o, id).Error
	return &o, err
}

func (r *orderRepo) FindByCheckoutSession(ctx context.Context, sessionID string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.VariationSize").
		Preload("Items.VariationSize.StockItem").
		Preload("Items.VariationSize.ProductVariation").
		Preload("Items.VariationSize.ProductVariation.Product").
		Where("checkout_session_id = ?", sessionID).
		First(&o).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").
		Preload("Items").
		Preload("Items.VariationSize").
		Preload("Items.VariationSize.StockItem").
		Preload("Items.VariationSize.ProductVariation").
		Preload("Items.VariationSize.ProductVariation.Product").
		Limit(filter.Limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND checkout_session_id IS NOT NULL AND created_at < ?", model.OrderPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus, payment model.PaymentStatus, notes *string) error {
	updates := map[string]interface{}{
		"status":         to,
		"payment_status": payment,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	// Compare-and-swap on the current status: two requests racing the same
	// transition both pass the in-memory check, but only the first one still
	// matches `from` here. The loser sees zero rows.
	res := tx.Model(&model.Order{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) UpdateCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).Update("checkout_session_id", sessionID).Error
}

func (r *orderRepo) NextOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	// Uses a PostgreSQL sequence for atomic order number generation
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('orders_number_seq')").Scan(&num).Error
	return num, err
}
