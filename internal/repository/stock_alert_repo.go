package repository

import (
	"context"
	"time"

	"go-kasir-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stockAlertRepo struct {
	db *gorm.DB
}

func NewStockAlertRepo(db *gorm.DB) StockAlertRepository {
	return &stockAlertRepo{db}
}

// OpenIfAbsent relies on the partial unique index over open alerts; a conflicting
// insert affects no rows and reports false.
func (r *stockAlertRepo) OpenIfAbsent(ctx context.Context, alert *model.StockAlert) (bool, error) {
	alert.State = model.AlertActive
	alert.ResolvedAt = nil
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(alert)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *stockAlertRepo) Refresh(ctx context.Context, barcode string, stock int) (bool, error) {
	open := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.StockAlert{}).Where("barcode = ? AND resolved_at IS NULL", barcode)
	}
	if stock == 0 {
		res := open().
			Where("status <> ?", model.AlertStatusCritical).
			Updates(map[string]interface{}{
				"status":        model.AlertStatusCritical,
				"current_stock": 0,
			})
		if res.Error != nil {
			return false, mapErr(res.Error)
		}
		if res.RowsAffected > 0 {
			return true, nil
		}
	}
	err := open().Update("current_stock", stock).Error
	return false, mapErr(err)
}

func (r *stockAlertRepo) Resolve(ctx context.Context, barcode string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockAlert{}).
		Where("barcode = ? AND resolved_at IS NULL", barcode).
		Updates(map[string]interface{}{
			"state":       model.AlertResolved,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *stockAlertRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.StockAlert{}).Where("resolved_at IS NULL").Count(&n).Error
	return n, mapErr(err)
}

func (r *stockAlertRepo) ListActive(ctx context.Context) ([]model.StockAlert, error) {
	var alerts []model.StockAlert
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("current_stock ASC").Order("created_at ASC").
		Find(&alerts).Error
	return alerts, mapErr(err)
}
