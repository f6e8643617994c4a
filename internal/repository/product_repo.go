package repository

import (
	"context"

	"go-kasir-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return mapErr(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, mapErr(err)
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "barcode = ?", barcode).Error; err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *productRepo) Lock(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "barcode = ?", barcode).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("barcode = ?", product.Barcode).
		Updates(map[string]interface{}{
			"name":          product.Name,
			"price":         product.Price,
			"minimum_stock": product.MinimumStock,
			"updated_by":    product.UpdatedBy,
		})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AdjustStock is a single guarded UPDATE, so the row lock taken by Postgres
// serializes concurrent writers of the same barcode and nothing else.
func (r *productRepo) AdjustStock(ctx context.Context, barcode string, delta int) (*model.Product, error) {
	var updated []model.Product
	res := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("barcode = ? AND stock + ? >= 0", barcode, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, mapErr(res.Error)
	}
	if res.RowsAffected == 1 && len(updated) == 1 {
		return &updated[0], nil
	}

	// Nothing matched: either the barcode is unknown or the guard rejected the decrement.
	current, err := r.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return nil, &model.InsufficientStockError{
		Barcode:   barcode,
		Requested: -delta,
		Available: current.Stock,
	}
}

func (r *productRepo) ListBelowMinimum(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("stock < minimum_stock").
		Order("stock ASC").Order("barcode ASC").
		Find(&products).Error
	return products, mapErr(err)
}
