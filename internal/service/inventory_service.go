package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultRecentLogs = 100
	reorderHorizon    = 60 // days of supply recommended per reorder
)

// ProductUpdate carries the editable product fields. Stock changes go through Restock/Adjust.
type ProductUpdate struct {
	Name         string `json:"name" validate:"required"`
	Price        int64  `json:"price" validate:"gte=0"`
	MinimumStock int    `json:"minimum_stock" validate:"gte=0"`
}

// StockAlertView is one row of the manager's stock alert report.
type StockAlertView struct {
	Barcode            string  `json:"barcode"`
	Name               string  `json:"name"`
	CurrentStock       int     `json:"currentStock"`
	MinimumStock       int     `json:"minimumStock"`
	Urgency            string  `json:"urgency"`
	UrgencyLevel       int     `json:"urgencyLevel"`
	WeeklySold         int64   `json:"weeklySold"`
	DailySales         float64 `json:"dailySales"`
	DaysToStockout     int     `json:"daysToStockout"`
	RecommendedReorder int     `json:"recommendedReorder"`
	StockPercent       float64 `json:"stockPercent"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, p *model.Product, actorID uuid.UUID) error
	UpdateProduct(ctx context.Context, barcode string, upd ProductUpdate, actorID uuid.UUID) (*model.Product, error)
	Restock(ctx context.Context, barcode string, qty int, actorID uuid.UUID, notes string) (*model.Product, error)
	Adjust(ctx context.Context, barcode string, delta int, actorID uuid.UUID, notes string) (*model.Product, error)
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, barcode string) (*model.Product, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	RecentLogs(ctx context.Context, limit int) ([]model.InventoryLog, error)
	GetStockAlerts(ctx context.Context) ([]StockAlertView, error)
	ActiveAlerts(ctx context.Context) ([]model.StockAlert, error)
}

type inventoryService struct {
	store     *repository.Store
	alerts    alertPublisher
	threshold thresholdEvaluator
	now       func() time.Time
	log       zerolog.Logger
}

func NewInventoryService(store *repository.Store, pub events.Publisher, log zerolog.Logger) InventoryService {
	return &inventoryService{
		store:     store,
		alerts:    alertPublisher{pub: pub, log: log},
		threshold: thresholdEvaluator{now: time.Now},
		now:       time.Now,
		log:       log,
	}
}

func validationError(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		return fmt.Errorf("%w: %s", model.ErrValidation, errs[0].String())
	}
	return nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, p *model.Product, actorID uuid.UUID) error {
	if err := validationError(p); err != nil {
		return err
	}
	p.ID = uuid.Nil
	p.InitialStock = p.Stock
	p.CreatedBy = actorID.String()
	p.UpdatedBy = actorID.String()

	if err := s.store.Products.Create(ctx, p); err != nil {
		return err
	}
	s.log.Info().Str("barcode", p.Barcode).Int("stock", p.Stock).Msg("product created")
	return nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, barcode string, upd ProductUpdate, actorID uuid.UUID) (*model.Product, error) {
	if err := validationError(&upd); err != nil {
		return nil, err
	}

	var (
		updated *model.Product
		ev      *AlertEvent
	)
	err := s.store.Tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Products.Update(ctx, &model.Product{
			Barcode:      barcode,
			Name:         upd.Name,
			Price:        upd.Price,
			MinimumStock: upd.MinimumStock,
			BaseModel:    model.BaseModel{UpdatedBy: actorID.String()},
		}); err != nil {
			return err
		}
		p, err := r.Products.FindByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		// a new minimum can move the product across its threshold
		ev, err = s.threshold.evaluate(ctx, r.Alerts, p, model.AlertStatusAlert, model.AlertSourceInventory)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	if ev != nil {
		s.alerts.publish(*ev)
	}
	return updated, nil
}

func (s *inventoryService) Restock(ctx context.Context, barcode string, qty int, actorID uuid.UUID, notes string) (*model.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be greater than zero", model.ErrValidation)
	}
	return s.applyStockChange(ctx, barcode, qty, model.ActionRestock, actorID, notes)
}

func (s *inventoryService) Adjust(ctx context.Context, barcode string, delta int, actorID uuid.UUID, notes string) (*model.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: adjustment must not be zero", model.ErrValidation)
	}
	return s.applyStockChange(ctx, barcode, delta, model.ActionAdjustment, actorID, notes)
}

func (s *inventoryService) applyStockChange(ctx context.Context, barcode string, delta int, action model.InventoryAction, actorID uuid.UUID, notes string) (*model.Product, error) {
	var (
		product *model.Product
		ev      *AlertEvent
	)
	err := s.store.Tx.Run(ctx, func(r repository.Repos) error {
		p, err := r.Products.AdjustStock(ctx, barcode, delta)
		if err != nil {
			return err
		}
		if err := r.Logs.Append(ctx, &model.InventoryLog{
			Barcode:        barcode,
			QuantityChange: delta,
			Action:         action,
			ActorID:        actorID,
			Notes:          notes,
		}); err != nil {
			return err
		}
		ev, err = s.threshold.evaluate(ctx, r.Alerts, p, model.AlertStatusAlert, model.AlertSourceInventory)
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}
	if ev != nil {
		s.alerts.publish(*ev)
	}

	s.log.Info().Str("barcode", barcode).Int("delta", delta).Str("action", string(action)).
		Int("stock", product.Stock).Msg("stock changed")
	return product, nil
}

func (s *inventoryService) GetProducts(ctx context.Context) ([]model.Product, error) {
	return s.store.Products.FindAll(ctx)
}

func (s *inventoryService) GetProduct(ctx context.Context, barcode string) (*model.Product, error) {
	return s.store.Products.FindByBarcode(ctx, barcode)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]model.Product, error) {
	return s.store.Products.ListBelowMinimum(ctx)
}

func (s *inventoryService) RecentLogs(ctx context.Context, limit int) ([]model.InventoryLog, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultRecentLogs
	}
	return s.store.Logs.Recent(ctx, limit)
}

func (s *inventoryService) GetStockAlerts(ctx context.Context) ([]StockAlertView, error) {
	products, err := s.store.Products.ListBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	sold, err := s.store.Logs.CountSoldSince(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	views := make([]StockAlertView, 0, len(products))
	for _, p := range products {
		views = append(views, stockAlertView(p, sold[p.Barcode]))
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].UrgencyLevel < views[j].UrgencyLevel })
	return views, nil
}

func stockAlertView(p model.Product, weeklySold int64) StockAlertView {
	percent := 0.0
	if p.MinimumStock > 0 {
		percent = float64(p.Stock) / float64(p.MinimumStock) * 100
	}

	urgency, level := "normal", 3
	switch {
	case percent < 20:
		urgency, level = "critical", 1
	case percent < 50:
		urgency, level = "warning", 2
	}

	daily := 1.0
	if weeklySold > 0 {
		daily = float64(weeklySold) / 7
	}
	daysToStockout := int(math.Floor(float64(p.Stock) / daily))
	if daysToStockout < 0 {
		daysToStockout = 0
	}

	return StockAlertView{
		Barcode:            p.Barcode,
		Name:               p.Name,
		CurrentStock:       p.Stock,
		MinimumStock:       p.MinimumStock,
		Urgency:            urgency,
		UrgencyLevel:       level,
		WeeklySold:         weeklySold,
		DailySales:         math.Round(daily*100) / 100,
		DaysToStockout:     daysToStockout,
		RecommendedReorder: int(math.Floor(daily * reorderHorizon)),
		StockPercent:       math.Round(percent*10) / 10,
	}
}

func (s *inventoryService) ActiveAlerts(ctx context.Context) ([]model.StockAlert, error) {
	return s.store.Alerts.ListActive(ctx)
}
