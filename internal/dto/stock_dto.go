package dto

// AdjustStockRequest carries a signed delta: positive restocks (IN movement),
// negative removes (OUT movement). A zero delta reaches the service and is
// rejected there as an invalid quantity; the description is optional.
type AdjustStockRequest struct {
	Delta       int    `json:"delta"`
	Description string `json:"description" validate:"omitempty,max=250"`
}

type StockMovementResponse struct {
	ID               string  `json:"id"`
	StockItemID      string  `json:"stock_item_id"`
	Type             string  `json:"type"`
	Quantity         int     `json:"quantity"`
	PreviousQuantity int     `json:"previous_quantity"`
	NewQuantity      int     `json:"new_quantity"`
	Description      string  `json:"description"`
	ReferenceID      *string `json:"reference_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type MovementFilter struct {
	Type  string `form:"type"  validate:"omitempty,oneof=IN OUT"`
	Page  int    `form:"page,default=1"    validate:"min=1"`
	Limit int    `form:"limit,default=50"  validate:"min=1,max=200"`
}

type MovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// LowStockAlertResponse flags stock items at or below their minimum threshold.
type LowStockAlertResponse struct {
	StockItemID  string `json:"stock_item_id"`
	Product      string `json:"product"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Quantity     int    `json:"quantity"`
	MinimumStock int    `json:"minimum_stock"`
}
