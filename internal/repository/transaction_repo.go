package repository

import (
	"context"
	"time"

	"go-kasir-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func itemsInCartOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return mapErr(r.db.WithContext(ctx).Create(tx).Error)
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).Preload("Items", itemsInCartOrder).First(&tx, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &tx, nil
}

func (r *transactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).Preload("Items", itemsInCartOrder).First(&tx, "idempotency_key = ?", key).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &tx, nil
}

func (r *transactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("transaction_id = ?", id).Delete(&model.LineItem{}).Error; err != nil {
		return mapErr(err)
	}
	res := db.Unscoped().Delete(&model.Transaction{}, "id = ?", id)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) FindBetween(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items", itemsInCartOrder).
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, mapErr(err)
}

func (r *transactionRepo) List(ctx context.Context, f TransactionFilter) ([]model.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{})
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", *f.DateTo)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr(err)
	}

	var txs []model.Transaction
	err := q.Preload("Items", itemsInCartOrder).
		Order("created_at DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&txs).Error
	return txs, total, mapErr(err)
}
