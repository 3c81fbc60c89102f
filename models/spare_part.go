package models

import (
	"time"
)

// SparePart is a catalog entry in the parts inventory.
// Parts are never physically removed; deletion clears IsActive.
type SparePart struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"not null;size:255;index" json:"name"`
	Description       *string   `gorm:"type:text" json:"description"`
	Price             float64   `gorm:"not null;check:price > 0" json:"price"`
	QuantityInStock   int       `gorm:"not null;default:0;check:quantity_in_stock >= 0" json:"quantity_in_stock"`
	SKU               *string   `gorm:"column:sku;size:100;uniqueIndex" json:"sku"`
	Category          *string   `gorm:"size:100;index" json:"category"`
	MinimumStockLevel int       `gorm:"not null;default:0;check:minimum_stock_level >= 0" json:"minimum_stock_level"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the SparePart model
func (SparePart) TableName() string {
	return "spare_parts"
}

// IsLowStock reports whether the part is at or below its minimum level
func (p SparePart) IsLowStock() bool {
	return p.QuantityInStock <= p.MinimumStockLevel
}

// NeedsReorder reports whether the part is out of stock
func (p SparePart) NeedsReorder() bool {
	return p.QuantityInStock == 0
}

// StockMovement is one ledger entry for a stock adjustment
type StockMovement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SparePartID    uint      `gorm:"not null;index" json:"spare_part_id"`
	SparePart      SparePart `gorm:"foreignKey:SparePartID" json:"-"`
	QuantityChange int       `gorm:"not null" json:"quantity_change"`
	QuantityAfter  int       `gorm:"not null" json:"quantity_after"`
	Reason         *string   `gorm:"type:text" json:"reason"`
	PerformedByID  *uint     `gorm:"index" json:"performed_by_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}

// LowStockAlert describes a part at or below its minimum stock level
type LowStockAlert struct {
	SparePart    SparePart `json:"spare_part"`
	CurrentStock int       `json:"current_stock"`
	MinimumLevel int       `json:"minimum_level"`
	NeedsReorder bool      `json:"needs_reorder"`
}

// AllModels lists every model for migrations, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&Job{},
		&JobStatusChange{},
		&JobPhoto{},
		&SparePart{},
		&StockMovement{},
	}
}
