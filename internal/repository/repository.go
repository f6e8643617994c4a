package repository

import (
	"context"
	"time"

	"go-kasir-ws/internal/model"

	"github.com/google/uuid"
)

// ProductRepository is the inventory store. Stock changes only through AdjustStock.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	// Lock reads the product and holds its row lock until the unit of work ends.
	Lock(ctx context.Context, barcode string) (*model.Product, error)
	// Update writes name, price and minimum_stock. Stock is left untouched.
	Update(ctx context.Context, product *model.Product) error
	// AdjustStock applies delta in one conditional statement and returns the updated row.
	// Unknown barcodes yield model.ErrNotFound; a decrement below zero yields *model.InsufficientStockError.
	AdjustStock(ctx context.Context, barcode string, delta int) (*model.Product, error)
	// ListBelowMinimum returns products with stock < minimum_stock, ascending by stock.
	ListBelowMinimum(ctx context.Context) ([]model.Product, error)
}

// TransactionFilter narrows List. Zero values mean no filter.
type TransactionFilter struct {
	Limit         int
	Offset        int
	DateFrom      *time.Time
	DateTo        *time.Time
	PaymentMethod model.PaymentMethod
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error)
	// Delete removes the transaction and its line items for good.
	Delete(ctx context.Context, id uuid.UUID) error
	// FindBetween returns transactions in [start, end] with items, oldest first.
	FindBetween(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	// List returns a page (newest first) and the total matching count.
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)
}

type InventoryLogRepository interface {
	Append(ctx context.Context, entry *model.InventoryLog) error
	// CountSoldSince counts sold rows per barcode created at or after since.
	CountSoldSince(ctx context.Context, since time.Time) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]model.InventoryLog, error)
	SumChanges(ctx context.Context, barcode string) (int, error)
}

type StockAlertRepository interface {
	// OpenIfAbsent inserts an ACTIVE alert unless one is already open for the barcode.
	OpenIfAbsent(ctx context.Context, alert *model.StockAlert) (bool, error)
	// Refresh records stock on the open alert. At zero stock it raises the alert to
	// critical and reports true the first time only.
	Refresh(ctx context.Context, barcode string, stock int) (bool, error)
	// Resolve closes the open alert for barcode, if any.
	Resolve(ctx context.Context, barcode string, at time.Time) (bool, error)
	CountActive(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]model.StockAlert, error)
}

type ActorRepository interface {
	Create(ctx context.Context, actor *model.Actor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Actor, error)
	FindByUsername(ctx context.Context, username string) (*model.Actor, error)
	Update(ctx context.Context, actor *model.Actor) error
}

// Repos is the set of repositories bound to a single unit of work.
type Repos struct {
	Products     ProductRepository
	Transactions TransactionRepository
	Logs         InventoryLogRepository
	Alerts       StockAlertRepository
}

// TxRunner runs fn inside one atomic unit. A non-nil error from fn rolls everything back.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// Store bundles what the services need from persistence.
type Store struct {
	Repos
	Actors ActorRepository
	Tx     TxRunner
}
