package model

import (
	"time"

	"github.com/google/uuid"
)

type InventoryAction string

const (
	ActionSold       InventoryAction = "sold"
	ActionRestock    InventoryAction = "restock"
	ActionAdjustment InventoryAction = "adjustment"
	ActionReversal   InventoryAction = "reversal"
)

// InventoryLog is the append-only audit trail of stock changes.
type InventoryLog struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Barcode        string          `gorm:"type:varchar(50);not null;index" json:"barcode"`
	QuantityChange int             `gorm:"not null" json:"quantity_change"`
	Action         InventoryAction `gorm:"type:varchar(20);not null;index" json:"action"`
	ActorID        uuid.UUID       `gorm:"type:uuid" json:"actor_id"`
	TransactionID  *uuid.UUID      `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}
