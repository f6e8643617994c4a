package model

import "github.com/google/uuid"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentQRIS:
		return true
	}
	return false
}

type TransactionStatus string

const StatusCommitted TransactionStatus = "COMMITTED"

// Transaction is a committed sale. Its ID doubles as the invoice number.
type Transaction struct {
	BaseModel
	TotalAmount    int64             `gorm:"not null" json:"total_amount"`
	PaymentMethod  PaymentMethod     `gorm:"type:varchar(20);not null;index" json:"payment_method"`
	Nominal        int64             `gorm:"not null;default:0" json:"nominal"`
	ActorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"actor_id"`
	Status         TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	IdempotencyKey *string           `gorm:"type:varchar(100);uniqueIndex" json:"idempotency_key,omitempty"`
	Items          []LineItem        `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`
}

// InvoiceNumber is the public receipt reference.
func (t *Transaction) InvoiceNumber() string {
	return t.ID.String()
}

// Change is the cash handed back to the customer.
func (t *Transaction) Change() int64 {
	if t.PaymentMethod != PaymentCash {
		return 0
	}
	return t.Nominal - t.TotalAmount
}

// LineItem snapshots name and price at commit so later product edits leave receipts intact.
type LineItem struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	TransactionID     uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position          int       `gorm:"not null" json:"position"`
	Barcode           string    `gorm:"type:varchar(50);not null;index" json:"barcode"`
	NameSnapshot      string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot int64     `gorm:"not null" json:"unit_price"`
	Subtotal          int64     `gorm:"not null" json:"subtotal"`
}
