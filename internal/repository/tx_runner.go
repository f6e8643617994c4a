package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

// NewTxRunner returns a TxRunner backed by gorm's db.Transaction.
func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) Run(ctx context.Context, fn func(r Repos) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	})
	return mapErr(err)
}

func newRepos(db *gorm.DB) Repos {
	return Repos{
		Products:     NewProductRepo(db),
		Transactions: NewTransactionRepo(db),
		Logs:         NewInventoryLogRepo(db),
		Alerts:       NewStockAlertRepo(db),
	}
}

// NewStore wires the gorm repositories around one connection pool.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Repos:  newRepos(db),
		Actors: NewActorRepo(db),
		Tx:     NewTxRunner(db),
	}
}
