package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collection groups products for merchandising (e.g. "Summer 24").
// Aggregation values (total stock / total value) are always derived at read
// time from the products below — never persisted.
type Collection struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Products []Product `gorm:"foreignKey:CollectionID"`
}

type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"index;not null"`
	Description  *string
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Collection *Collection        `gorm:"foreignKey:CollectionID"`
	Variations []ProductVariation `gorm:"foreignKey:ProductID"`
}

// ProductVariation is a sellable colorway of a product. Price lives here; the
// per-size stock lives on the VariationSize's StockItem.
type ProductVariation struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Color     string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product        `gorm:"foreignKey:ProductID"`
	Sizes   []VariationSize `gorm:"foreignKey:ProductVariationID"`
}

// VariationSize is the stock-bearing leaf of the catalog hierarchy
// (Collection → Product → ProductVariation → VariationSize).
type VariationSize struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductVariationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Size               string    `gorm:"not null"` // e.g. "S", "M", "L", "42"
	CreatedAt          time.Time

	ProductVariation *ProductVariation `gorm:"foreignKey:ProductVariationID"`
	StockItem        *StockItem        `gorm:"foreignKey:VariationSizeID"`
}
