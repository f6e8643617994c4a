package model

// Product is one sellable item keyed by barcode. Stock never goes below zero.
type Product struct {
	BaseModel
	Barcode      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"barcode" validate:"required,max=50"`
	Name         string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price        int64  `gorm:"not null" json:"price" validate:"gte=0"`
	Stock        int    `gorm:"not null;check:stock >= 0" json:"stock" validate:"gte=0"`
	MinimumStock int    `gorm:"not null" json:"minimum_stock" validate:"gte=0"`
	InitialStock int    `gorm:"not null" json:"initial_stock"`
}

// BelowMinimum reports whether the product crossed its reorder threshold.
func (p *Product) BelowMinimum() bool {
	return p.Stock < p.MinimumStock
}
