package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"beewear/internal/dto"
	"beewear/internal/model"
	"beewear/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService defines business operations for the catalog hierarchy:
// collections, products, variations and sizes.
type CatalogService interface {
	// Collections
	CreateCollection(ctx context.Context, req dto.CreateCollectionRequest) (dto.CollectionResponse, error)
	ListCollections(ctx context.Context) ([]dto.CollectionResponse, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, req dto.UpdateCollectionRequest) (dto.CollectionResponse, error)
	DeactivateCollection(ctx context.Context, id uuid.UUID) error

	// AggregateCollection computes the derived rollup (product count, total
	// units in stock, total retail value) from the live catalog tree. The
	// result is never persisted.
	AggregateCollection(ctx context.Context, id uuid.UUID) (dto.CollectionAggregationResponse, error)

	// Products
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) (dto.ProductListResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (dto.ProductResponse, error)
	UpdateVariationPrice(ctx context.Context, variationID uuid.UUID, req dto.UpdateVariationPriceRequest) error
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	ReactivateProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	repo repository.CatalogRepository
	rdb  *redis.Client // nil in unit tests — cache becomes a no-op
}

func NewCatalogService(repo repository.CatalogRepository, rdb *redis.Client) CatalogService {
	return &catalogService{repo: repo, rdb: rdb}
}

// ── Collections ──────────────────────────────────────────────────────────────

func mapCollection(c model.Collection) dto.CollectionResponse {
	return dto.CollectionResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (s *catalogService) CreateCollection(ctx context.Context, req dto.CreateCollectionRequest) (dto.CollectionResponse, error) {
	c := &model.Collection{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.CreateCollection(ctx, c); err != nil {
		return dto.CollectionResponse{}, err
	}
	return mapCollection(*c), nil
}

func (s *catalogService) ListCollections(ctx context.Context) ([]dto.CollectionResponse, error) {
	list, err := s.repo.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CollectionResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCollection(c))
	}
	return result, nil
}

func (s *catalogService) UpdateCollection(ctx context.Context, id uuid.UUID, req dto.UpdateCollectionRequest) (dto.CollectionResponse, error) {
	c, err := s.repo.FindCollectionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollectionResponse{}, ErrCollectionNotFound
		}
		return dto.CollectionResponse{}, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = req.Description
	}

	if err := s.repo.UpdateCollection(ctx, c); err != nil {
		return dto.CollectionResponse{}, err
	}
	return mapCollection(*c), nil
}

func (s *catalogService) DeactivateCollection(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.FindCollectionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return err
	}
	c.Active = false
	return s.repo.UpdateCollection(ctx, c)
}

// AggregateCollection walks the preloaded tree once. A collection with no
// active products aggregates to zeros, not an error.
func (s *catalogService) AggregateCollection(ctx context.Context, id uuid.UUID) (dto.CollectionAggregationResponse, error) {
	c, err := s.repo.FindCollectionWithStock(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CollectionAggregationResponse{}, ErrCollectionNotFound
		}
		return dto.CollectionAggregationResponse{}, err
	}
	return aggregate(c), nil
}

// aggregate is the pure rollup over an in-memory collection tree.
// Value is quantity × the variation's current price, per size.
func aggregate(c *model.Collection) dto.CollectionAggregationResponse {
	resp := dto.CollectionAggregationResponse{TotalValue: decimal.Zero}
	for _, p := range c.Products {
		resp.TotalProducts++
		for _, v := range p.Variations {
			for _, size := range v.Sizes {
				if size.StockItem == nil {
					continue
				}
				qty := size.StockItem.Quantity
				resp.TotalStock += qty
				resp.TotalValue = resp.TotalValue.Add(v.Price.Mul(decimal.NewFromInt(int64(qty))))
			}
		}
	}
	return resp
}

// ── Products ─────────────────────────────────────────────────────────────────

func mapProduct(p model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:           p.ID.String(),
		CollectionID: p.CollectionID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Active:       p.Active,
		Variations:   []dto.VariationResponse{},
	}
	for _, v := range p.Variations {
		vr := dto.VariationResponse{
			ID:    v.ID.String(),
			Color: v.Color,
			Price: v.Price,
			Sizes: []dto.SizeResponse{},
		}
		for _, size := range v.Sizes {
			sr := dto.SizeResponse{
				ID:   size.ID.String(),
				Size: size.Size,
			}
			if size.StockItem != nil {
				sr.StockItemID = size.StockItem.ID.String()
				sr.Quantity = size.StockItem.Quantity
				sr.MinimumStock = size.StockItem.MinimumStock
			}
			vr.Sizes = append(vr.Sizes, sr)
		}
		resp.Variations = append(resp.Variations, vr)
	}
	return resp
}

func (s *catalogService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (dto.ProductResponse, error) {
	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		return dto.ProductResponse{}, fmt.Errorf("%w: invalid collection_id", ErrValidation)
	}
	if _, err := s.repo.FindCollectionByID(ctx, collectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProductResponse{}, ErrCollectionNotFound
		}
		return dto.ProductResponse{}, err
	}

	p := &model.Product{
		CollectionID: collectionID,
		Name:         req.Name,
		Description:  req.Description,
		Active:       true,
	}
	for _, v := range req.Variations {
		if v.Price.IsNegative() {
			return dto.ProductResponse{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		variation := model.ProductVariation{Color: v.Color, Price: v.Price}
		for _, size := range v.Sizes {
			variation.Sizes = append(variation.Sizes, model.VariationSize{
				Size: size.Size,
				StockItem: &model.StockItem{
					Quantity:     size.InitialStock,
					MinimumStock: size.MinimumStock,
				},
			})
		}
		p.Variations = append(p.Variations, variation)
	}

	// One insert tree: product, variations, sizes and their stock items.
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return dto.ProductResponse{}, err
	}
	return mapProduct(*p), nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (dto.ProductResponse, error) {
	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProductResponse{}, ErrProductNotFound
		}
		return dto.ProductResponse{}, err
	}
	return mapProduct(*p), nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) (dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return dto.ProductListResponse{}, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, mapProduct(p))
	}
	return dto.ProductListResponse{
		Data:       items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (dto.ProductResponse, error) {
	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProductResponse{}, ErrProductNotFound
		}
		return dto.ProductResponse{}, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return dto.ProductResponse{}, err
	}
	s.invalidateProductCache(ctx, id)
	return mapProduct(*p), nil
}

func (s *catalogService) UpdateVariationPrice(ctx context.Context, variationID uuid.UUID, req dto.UpdateVariationPriceRequest) error {
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if err := s.repo.UpdateVariationPrice(ctx, variationID, req.Price); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariationNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.repo.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateProductCache(ctx, id)
	return nil
}

func (s *catalogService) ReactivateProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return s.repo.ReactivateProduct(ctx, id)
}

// invalidateProductCache drops the storefront's cached entry after a write.
// Best effort — a stale entry ages out via TTL anyway.
func (s *catalogService) invalidateProductCache(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, "storefront:product:"+id.String()).Err(); err != nil {
		log.Warn().Err(err).Str("product_id", id.String()).Msg("cache invalidation failed")
	}
}
