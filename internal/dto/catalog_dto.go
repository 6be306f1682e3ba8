package dto

import "github.com/shopspring/decimal"

// ─── Collections ─────────────────────────────────────────────────────────────

type CreateCollectionRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description"`
}

type UpdateCollectionRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description"`
}

type CollectionResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at"`
}

// CollectionAggregationResponse is a derived, read-only rollup. Recomputed on
// every read — never persisted.
type CollectionAggregationResponse struct {
	TotalProducts int             `json:"total_products"`
	TotalStock    int             `json:"total_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ─── Products ────────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	CollectionID string                   `json:"collection_id" validate:"required,uuid"`
	Name         string                   `json:"name"          validate:"required,min=2,max=120"`
	Description  *string                  `json:"description"`
	Variations   []CreateVariationRequest `json:"variations"    validate:"required,min=1,dive"`
}

type CreateVariationRequest struct {
	Color string              `json:"color" validate:"required,min=1,max=60"`
	Price decimal.Decimal     `json:"price" validate:"required"`
	Sizes []CreateSizeRequest `json:"sizes" validate:"required,min=1,dive"`
}

type CreateSizeRequest struct {
	Size         string `json:"size"          validate:"required,min=1,max=10"`
	InitialStock int    `json:"initial_stock" validate:"min=0"`
	MinimumStock int    `json:"minimum_stock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description"`
}

type UpdateVariationPriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"required"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	CollectionID string `form:"collection_id"`
	Name         string `form:"name"`
	Active       string `form:"active"` // "false" | "all" | default: active only
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string              `json:"id"`
	CollectionID string              `json:"collection_id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description"`
	Active       bool                `json:"active"`
	Variations   []VariationResponse `json:"variations"`
}

type VariationResponse struct {
	ID    string          `json:"id"`
	Color string          `json:"color"`
	Price decimal.Decimal `json:"price"`
	Sizes []SizeResponse  `json:"sizes"`
}

type SizeResponse struct {
	ID           string `json:"id"`
	Size         string `json:"size"`
	StockItemID  string `json:"stock_item_id"`
	Quantity     int    `json:"quantity"`
	MinimumStock int    `json:"minimum_stock"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
