package model

import "time"

type AlertStatus string

const (
	AlertStatusAlert    AlertStatus = "alert"
	AlertStatusWarning  AlertStatus = "warning"
	AlertStatusCritical AlertStatus = "critical"
)

type AlertState string

const (
	AlertActive   AlertState = "ACTIVE"
	AlertResolved AlertState = "RESOLVED"
)

const (
	AlertSourceCheckout  = "checkout"
	AlertSourceMonitor   = "monitor"
	AlertSourceInventory = "inventory"
)

// StockAlert moves NONE -> ACTIVE -> RESOLVED. At most one ACTIVE row exists per barcode.
type StockAlert struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Barcode      string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_stock_alerts_open,where:resolved_at IS NULL" json:"barcode"`
	ProductName  string      `gorm:"type:varchar(255)" json:"product_name"`
	CurrentStock int         `gorm:"not null" json:"current_stock"`
	MinimumStock int         `gorm:"not null" json:"minimum_stock"`
	Status       AlertStatus `gorm:"type:varchar(20);not null" json:"status"`
	State        AlertState  `gorm:"type:varchar(20);not null;index" json:"state"`
	Source       string      `gorm:"type:varchar(20)" json:"source"`
	CreatedAt    time.Time   `json:"created_at"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
}
