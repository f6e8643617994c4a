package memory

import (
	"context"
	"sort"

	"go-kasir-ws/internal/model"

	"github.com/google/uuid"
)

type productRepo struct{ *repos }

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	var err error
	r.withRow(product.Barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, exists := s.products[product.Barcode]; exists {
			err = model.ErrDuplicate
			return
		}
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		now := s.now()
		product.CreatedAt, product.UpdatedAt = now, now

		stored := *product
		s.products[product.Barcode] = &stored
		r.onRollback(func() { delete(s.products, product.Barcode) })
	})
	return err
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[barcode]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) Lock(ctx context.Context, barcode string) (*model.Product, error) {
	var (
		out *model.Product
		err error
	)
	r.withRow(barcode, func() {
		out, err = r.FindByBarcode(ctx, barcode)
	})
	return out, err
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	var err error
	r.withRow(product.Barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		p, ok := s.products[product.Barcode]
		if !ok {
			err = model.ErrNotFound
			return
		}
		before := *p
		p.Name = product.Name
		p.Price = product.Price
		p.MinimumStock = product.MinimumStock
		p.UpdatedBy = product.UpdatedBy
		p.UpdatedAt = s.now()
		r.onRollback(func() { *p = before })
	})
	return err
}

func (r *productRepo) AdjustStock(ctx context.Context, barcode string, delta int) (*model.Product, error) {
	var (
		out *model.Product
		err error
	)
	r.withRow(barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		p, ok := s.products[barcode]
		if !ok {
			err = model.ErrNotFound
			return
		}
		if p.Stock+delta < 0 {
			err = &model.InsufficientStockError{Barcode: barcode, Requested: -delta, Available: p.Stock}
			return
		}
		prevStock, prevUpdated := p.Stock, p.UpdatedAt
		p.Stock += delta
		p.UpdatedAt = s.now()
		r.onRollback(func() {
			p.Stock = prevStock
			p.UpdatedAt = prevUpdated
		})

		cp := *p
		out = &cp
	})
	return out, err
}

func (r *productRepo) ListBelowMinimum(ctx context.Context) ([]model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Product
	for _, p := range s.products {
		if p.BelowMinimum() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].Barcode < out[j].Barcode
	})
	return out, nil
}
