package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle axis.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// validNextStatus is the closed transition table. Every (from, to) pair not
// listed here is rejected. DELIVERED and CANCELLED are terminal.
var validNextStatus = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderConfirmed: true, OrderCancelled: true},
	OrderConfirmed: {OrderShipped: true, OrderCancelled: true},
	OrderShipped:   {OrderDelivered: true},
	OrderDelivered: {},
	OrderCancelled: {},
}

// CanTransition reports whether the status may move to the target state.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return validNextStatus[s][to]
}

// Terminal reports whether no further status transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(validNextStatus[s]) == 0
}

// PaymentStatus is the parallel payment axis. REFUNDED is only reachable from
// PAID, and only while the order itself is CANCELLED — that coupling is
// enforced by the order service, not by this table.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return validNextPayment[s][to]
}

// Order is the aggregate root for a customer purchase. Status and
// PaymentStatus are mutated only through the order service's transition
// operations; stock reserved at creation is released on cancellation.
type Order struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number            int64         `gorm:"uniqueIndex;not null"` // public, human-readable
	Status            OrderStatus   `gorm:"not null;default:'PENDING'"`
	PaymentStatus     PaymentStatus `gorm:"not null;default:'PENDING'"`
	CheckoutSessionID *string       `gorm:"uniqueIndex"` // hosted-checkout session, set at creation
	CustomerName      string        `gorm:"not null"`
	CustomerEmail     string        `gorm:"not null"`
	AddressLine       string        `gorm:"not null"`
	City              string        `gorm:"not null"`
	PostalCode        string        `gorm:"not null"`
	Country           string        `gorm:"not null"`
	Notes             *string       // shipment / cancellation notes
	Total             decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is one line of an order. UnitPrice is a snapshot taken at order
// creation — immutable afterwards, never a live catalog lookup.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariationSizeID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	VariationSize *VariationSize `gorm:"foreignKey:VariationSizeID"`
}
