package service

import (
	"context"

	"go-kasir-ws/internal/repository"
)

// Mismatch is a product whose stock disagrees with its audit trail.
type Mismatch struct {
	Barcode  string `json:"barcode"`
	Stock    int    `json:"stock"`
	Expected int    `json:"expected"`
}

// Reconcile checks stock == initial_stock + sum(quantity_change) for every product.
func Reconcile(ctx context.Context, store *repository.Store) ([]Mismatch, error) {
	products, err := store.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []Mismatch
	for _, p := range products {
		sum, err := store.Logs.SumChanges(ctx, p.Barcode)
		if err != nil {
			return nil, err
		}
		if expected := p.InitialStock + sum; expected != p.Stock {
			out = append(out, Mismatch{Barcode: p.Barcode, Stock: p.Stock, Expected: expected})
		}
	}
	return out, nil
}
