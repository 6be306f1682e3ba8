package repository

import (
	"context"

	"beewear/internal/dto"
	"beewear/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogRepository is the data access contract for the catalog hierarchy
// (collections, products, variations, sizes). Services depend on this
// interface, not on the concrete GORM implementation, enabling clean unit
// testing via in-memory stubs.
type CatalogRepository interface {
	// Collections
	CreateCollection(ctx context.Context, c *model.Collection) error
	FindCollectionByID(ctx context.Context, id uuid.UUID) (*model.Collection, error)
	// FindCollectionWithStock preloads the full product → variation → size →
	// stock item tree; used by the aggregation read path.
	FindCollectionWithStock(ctx context.Context, id uuid.UUID) (*model.Collection, error)
	ListCollections(ctx context.Context) ([]model.Collection, error)
	UpdateCollection(ctx context.Context, c *model.Collection) error

	// Products
	CreateProduct(ctx context.Context, p *model.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) error
	ReactivateProduct(ctx context.Context, id uuid.UUID) error
	UpdateVariationPrice(ctx context.Context, variationID uuid.UUID, price decimal.Decimal) error

	// FindVariationSize resolves an order line's target with its variation
	// (price) and stock item preloaded.
	FindVariationSize(ctx context.Context, id uuid.UUID) (*model.VariationSize, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) DB() *gorm.DB { return r.db }

// ── Collections ──────────────────────────────────────────────────────────────

func (r *catalogRepo) CreateCollection(ctx context.Context, c *model.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *catalogRepo) FindCollectionByID(ctx context.Context, id uuid.UUID) (*model.Collection, error) {
	var c model.Collection
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *catalogRepo) FindCollectionWithStock(ctx context.Context, id uuid.UUID) (*model.Collection, error) {
	var c model.Collection
	err := r.db.WithContext(ctx).
		Preload("Products", "active = true").
		Preload("Products.Variations").
		Preload("Products.Variations.Sizes").
		Preload("Products.Variations.Sizes.StockItem").
		First(&c, id).Error
	return &c, err
}

func (r *catalogRepo) ListCollections(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&collections).Error
	return collections, err
}

func (r *catalogRepo) UpdateCollection(ctx context.Context, c *model.Collection) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// ── Products ─────────────────────────────────────────────────────────────────

func (r *catalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	// Nested create: variations, sizes, and their stock items in one insert tree.
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *catalogRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Variations").
		Preload("Variations.Sizes").
		Preload("Variations.Sizes.StockItem").
		First(&p, id).Error
	return &p, err
}

func (r *catalogRepo) ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Active filter: "false" = inactive, "all" = everything, default = active only
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.CollectionID != "" {
		q = q.Where("collection_id = ?", filter.CollectionID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").
		Preload("Variations").
		Preload("Variations.Sizes").
		Preload("Variations.Sizes.StockItem").
		Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *catalogRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *catalogRepo) SoftDeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", false).Error
}

func (r *catalogRepo) ReactivateProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", true).Error
}

func (r *catalogRepo) UpdateVariationPrice(ctx context.Context, variationID uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.ProductVariation{}).
		Where("id = ?", variationID).Update("price", price).Error
}

func (r *catalogRepo) FindVariationSize(ctx context.Context, id uuid.UUID) (*model.VariationSize, error) {
	var vs model.VariationSize
	err := r.db.WithContext(ctx).
		Preload("ProductVariation").
		Preload("ProductVariation.Product").
		Preload("StockItem").
		First(&vs, id).Error
	return &vs, err
}
