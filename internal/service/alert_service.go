package service

import (
	"context"
	"errors"
	"time"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/metrics"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"

	"github.com/rs/zerolog"
)

// AlertService runs the periodic low-stock sweep.
type AlertService interface {
	Sweep(ctx context.Context) error
}

type alertService struct {
	store     *repository.Store
	alerts    alertPublisher
	threshold thresholdEvaluator
	log       zerolog.Logger
}

func NewAlertService(store *repository.Store, pub events.Publisher, log zerolog.Logger) AlertService {
	return &alertService{
		store:     store,
		alerts:    alertPublisher{pub: pub, log: log},
		threshold: thresholdEvaluator{now: time.Now},
		log:       log,
	}
}

// Sweep opens alerts for products below minimum and closes the ones that recovered.
// Each product is re-read under its row lock, so the list it starts from may be stale.
// Newly opened and newly critical alerts are published.
func (s *alertService) Sweep(ctx context.Context) error {
	low, err := s.store.Products.ListBelowMinimum(ctx)
	if err != nil {
		return err
	}
	active, err := s.store.Alerts.ListActive(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(low)+len(active))
	barcodes := make([]string, 0, len(low)+len(active))
	for _, p := range low {
		if !seen[p.Barcode] {
			seen[p.Barcode] = true
			barcodes = append(barcodes, p.Barcode)
		}
	}
	for _, a := range active {
		if !seen[a.Barcode] {
			seen[a.Barcode] = true
			barcodes = append(barcodes, a.Barcode)
		}
	}

	var published []AlertEvent
	for _, barcode := range barcodes {
		ev, err := s.check(ctx, barcode)
		if err != nil {
			return err
		}
		if ev != nil {
			published = append(published, *ev)
		}
	}
	s.alerts.publish(published...)

	if len(published) > 0 {
		s.log.Info().Int("below_minimum", len(low)).Int("active", len(active)).
			Int("published", len(published)).Msg("stock sweep")
	}
	return nil
}

// check runs the threshold evaluation for one product in its own unit of work.
// An alert whose product no longer exists is resolved.
func (s *alertService) check(ctx context.Context, barcode string) (*AlertEvent, error) {
	var ev *AlertEvent
	err := s.store.Tx.Run(ctx, func(r repository.Repos) error {
		p, err := r.Products.Lock(ctx, barcode)
		if errors.Is(err, model.ErrNotFound) {
			resolved, err := r.Alerts.Resolve(ctx, barcode, s.threshold.now())
			if resolved {
				metrics.StockAlertsResolved.Inc()
			}
			return err
		}
		if err != nil {
			return err
		}
		ev, err = s.threshold.evaluate(ctx, r.Alerts, p, model.AlertStatusWarning, model.AlertSourceMonitor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}
