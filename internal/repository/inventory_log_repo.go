package repository

import (
	"context"
	"time"

	"go-kasir-ws/internal/model"

	"gorm.io/gorm"
)

type inventoryLogRepo struct {
	db *gorm.DB
}

func NewInventoryLogRepo(db *gorm.DB) InventoryLogRepository {
	return &inventoryLogRepo{db}
}

func (r *inventoryLogRepo) Append(ctx context.Context, entry *model.InventoryLog) error {
	return mapErr(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *inventoryLogRepo) CountSoldSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryLog{}).
		Select("barcode, COUNT(*) AS sold").
		Where("action = ? AND created_at >= ?", model.ActionSold, since).
		Group("barcode").
		Rows()
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var barcode string
		var sold int64
		if err := rows.Scan(&barcode, &sold); err != nil {
			return nil, mapErr(err)
		}
		counts[barcode] = sold
	}
	return counts, mapErr(rows.Err())
}

func (r *inventoryLogRepo) Recent(ctx context.Context, limit int) ([]model.InventoryLog, error) {
	var logs []model.InventoryLog
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, mapErr(err)
}

func (r *inventoryLogRepo) SumChanges(ctx context.Context, barcode string) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&model.InventoryLog{}).
		Select("COALESCE(SUM(quantity_change), 0)").
		Where("barcode = ?", barcode).
		Scan(&sum).Error
	return sum, mapErr(err)
}
