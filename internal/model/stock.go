package model

import (
	"time"

	"github.com/google/uuid"
)

// StockItem holds the current on-hand quantity for one variation size.
// Quantity is never written directly by handlers — every change goes through
// the stock service so that a matching StockMovement is recorded in the same
// transaction and the ledger never diverges from the counter.
type StockItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VariationSizeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Quantity        int       `gorm:"not null;default:0"`
	MinimumStock    int       `gorm:"not null;default:5"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	VariationSize *VariationSize `gorm:"foreignKey:VariationSizeID"`
}

// Movement types. Quantity on a movement is always positive; the type carries
// the direction.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement is one immutable ledger entry for a StockItem.
// Created when stock is adjusted manually, reserved for an order, or released
// by a cancellation. Never updated or deleted.
type StockMovement struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"not null"` // IN | OUT
	Quantity         int       `gorm:"not null"` // always > 0
	PreviousQuantity int       `gorm:"not null"`
	NewQuantity      int       `gorm:"not null"`
	Description      string
	ReferenceID      *uuid.UUID `gorm:"type:uuid"` // order_id when caused by an order
	CreatedBy        *uuid.UUID `gorm:"type:uuid"` // acting user, nil for storefront orders
	CreatedAt        time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}
