package dto

import "github.com/shopspring/decimal"

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"          validate:"required,min=1,dive"`
	CustomerName  string             `json:"customer_name"  validate:"required,min=2,max=120"`
	CustomerEmail string             `json:"customer_email" validate:"required,email"`
	AddressLine   string             `json:"address_line"   validate:"required,min=3,max=250"`
	City          string             `json:"city"           validate:"required,min=2,max=120"`
	PostalCode    string             `json:"postal_code"    validate:"required,min=3,max=20"`
	Country       string             `json:"country"        validate:"required,min=2,max=60"`
}

type OrderItemRequest struct {
	VariationSizeID string `json:"variation_size_id" validate:"required,uuid"`
	Quantity        int    `json:"quantity"          validate:"required,gt=0"`
}

// ConfirmOrderRequest is posted by the storefront after the hosted checkout
// redirects back with the session id.
type ConfirmOrderRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type ShipOrderRequest struct {
	Notes string `json:"notes" validate:"required,min=3,max=500"`
}

type CancelOrderRequest struct {
	Notes string `json:"notes" validate:"required,min=3,max=500"`
}

type OrderFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=PENDING CONFIRMED SHIPPED DELIVERED CANCELLED all"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Number        int64               `json:"number"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	AddressLine   string              `json:"address_line"`
	City          string              `json:"city"`
	PostalCode    string              `json:"postal_code"`
	Country       string              `json:"country"`
	Notes         *string             `json:"notes,omitempty"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItemResponse `json:"items"`
	CheckoutURL   string              `json:"checkout_url,omitempty"`
	CreatedAt     string              `json:"created_at"`
}

type OrderItemResponse struct {
	Product   string          `json:"product"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
