package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go-kasir-ws/internal/cache"
	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/metrics"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartLine is one resolved cart entry. Name and UnitPrice are snapshotted as given.
type CartLine struct {
	Barcode   string `json:"barcode" validate:"required,max=50"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unitPrice" validate:"gte=0,max=1000000000000"`
	Qty       int    `json:"qty" validate:"gt=0,max=1000000"`
}

type CheckoutRequest struct {
	Items          []CartLine          `json:"items" validate:"dive"`
	PaymentMethod  model.PaymentMethod `json:"paymentMethod"`
	Nominal        int64               `json:"nominal" validate:"gte=0"`
	ActorID        uuid.UUID           `json:"-" validate:"uuid_required"`
	IdempotencyKey string              `json:"idempotencyKey,omitempty" validate:"max=100"`
}

type CheckoutService interface {
	Commit(ctx context.Context, req CheckoutRequest) (*model.Transaction, error)
	Reverse(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
}

type checkoutService struct {
	store     *repository.Store
	idem      cache.IdempotencyStore
	alerts    alertPublisher
	threshold thresholdEvaluator
	log       zerolog.Logger
}

func NewCheckoutService(store *repository.Store, idem cache.IdempotencyStore, pub events.Publisher, log zerolog.Logger) CheckoutService {
	if idem == nil {
		idem = cache.Noop{}
	}
	return &checkoutService{
		store:     store,
		idem:      idem,
		alerts:    alertPublisher{pub: pub, log: log},
		threshold: thresholdEvaluator{now: time.Now},
		log:       log,
	}
}

// validate builds the snapshotted line items. Nothing is touched on failure.
func validateCheckout(req CheckoutRequest) ([]model.LineItem, int64, error) {
	if len(req.Items) == 0 {
		return nil, 0, model.ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, 0, model.ErrInvalidPaymentMethod
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", model.ErrValidation, errs[0].String())
	}

	lines := make([]model.LineItem, 0, len(req.Items))
	var total int64
	for i, it := range req.Items {
		if it.UnitPrice > math.MaxInt64/int64(it.Qty) {
			return nil, 0, model.ErrTotalOutOfRange
		}
		subtotal := it.UnitPrice * int64(it.Qty)
		if total > math.MaxInt64-subtotal {
			return nil, 0, model.ErrTotalOutOfRange
		}
		total += subtotal
		lines = append(lines, model.LineItem{
			Position:          i,
			Barcode:           it.Barcode,
			NameSnapshot:      it.Name,
			Quantity:          it.Qty,
			UnitPriceSnapshot: it.UnitPrice,
			Subtotal:          subtotal,
		})
	}
	if total <= 0 {
		return nil, 0, model.ErrNonPositiveTotal
	}
	if req.PaymentMethod == model.PaymentCash && req.Nominal < total {
		return nil, 0, model.ErrInsufficientPayment
	}
	return lines, total, nil
}

// lockOrder returns line indexes sorted by barcode so concurrent carts touching the
// same products acquire row locks in the same order.
func lockOrder(lines []model.LineItem) []int {
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lines[idx[a]].Barcode < lines[idx[b]].Barcode })
	return idx
}

func (s *checkoutService) Commit(ctx context.Context, req CheckoutRequest) (*model.Transaction, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CheckoutDuration)

	// 1. Validate before any mutation
	lines, total, err := validateCheckout(req)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	// 2. Replay a completed checkout for a repeated key
	if req.IdempotencyKey != "" {
		if tx, ok := s.replay(ctx, req.IdempotencyKey); ok {
			metrics.CheckoutsTotal.WithLabelValues("replayed").Inc()
			return tx, nil
		}
	}

	tx := &model.Transaction{
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		Nominal:       req.Nominal,
		ActorID:       req.ActorID,
		Status:        model.StatusCommitted,
		Items:         lines,
	}
	tx.CreatedBy = req.ActorID.String()
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		tx.IdempotencyKey = &key
	}

	// 3. Ledger insert, stock decrement, audit log and alerting as one unit
	var raised []AlertEvent
	err = s.store.Tx.Run(ctx, func(r repository.Repos) error {
		raised = raised[:0]
		if err := r.Transactions.Create(ctx, tx); err != nil {
			return err
		}
		for _, i := range lockOrder(tx.Items) {
			line := tx.Items[i]
			product, err := r.Products.AdjustStock(ctx, line.Barcode, -line.Quantity)
			if err != nil {
				return err
			}
			if err := r.Logs.Append(ctx, &model.InventoryLog{
				Barcode:        line.Barcode,
				QuantityChange: -line.Quantity,
				Action:         model.ActionSold,
				ActorID:        req.ActorID,
				TransactionID:  &tx.ID,
				Notes:          "checkout " + tx.InvoiceNumber(),
			}); err != nil {
				return err
			}
			ev, err := s.threshold.evaluate(ctx, r.Alerts, product, model.AlertStatusAlert, model.AlertSourceCheckout)
			if err != nil {
				return err
			}
			if ev != nil {
				raised = append(raised, *ev)
			}
		}
		return nil
	})
	if err != nil {
		if req.IdempotencyKey != "" && errors.Is(err, model.ErrDuplicate) {
			// lost the race against a concurrent commit with the same key
			if existing, findErr := s.store.Transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey); findErr == nil {
				metrics.CheckoutsTotal.WithLabelValues("replayed").Inc()
				return existing, nil
			}
		}
		result := "failed"
		if errors.Is(err, model.ErrInsufficientStock) || errors.Is(err, model.ErrNotFound) {
			result = "rejected"
		}
		metrics.CheckoutsTotal.WithLabelValues(result).Inc()
		s.log.Warn().Err(err).Str("actor_id", req.ActorID.String()).Int64("total", total).Msg("checkout aborted")
		return nil, err
	}

	// 4. Only committed work is announced
	metrics.CheckoutsTotal.WithLabelValues("committed").Inc()
	s.alerts.publish(raised...)
	if req.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, req.IdempotencyKey, tx.ID); err != nil {
			s.log.Warn().Err(err).Msg("idempotency cache write failed")
		}
	}

	s.log.Info().
		Str("invoice", tx.InvoiceNumber()).
		Str("actor_id", req.ActorID.String()).
		Str("payment_method", string(tx.PaymentMethod)).
		Int64("total", tx.TotalAmount).
		Int("lines", len(tx.Items)).
		Msg("checkout committed")
	return tx, nil
}

func (s *checkoutService) replay(ctx context.Context, key string) (*model.Transaction, bool) {
	if id, found, err := s.idem.Lookup(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("idempotency cache lookup failed")
	} else if found {
		if tx, err := s.store.Transactions.FindByID(ctx, id); err == nil {
			return tx, true
		}
	}
	tx, err := s.store.Transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, false
	}
	return tx, true
}

// Reverse restores stock for every line and removes the transaction. Log rows stay.
func (s *checkoutService) Reverse(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	err := s.store.Tx.Run(ctx, func(r repository.Repos) error {
		tx, err := r.Transactions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		for _, i := range lockOrder(tx.Items) {
			line := tx.Items[i]
			product, err := r.Products.AdjustStock(ctx, line.Barcode, line.Quantity)
			if errors.Is(err, model.ErrNotFound) {
				// product deleted since the sale; nothing to restore
				continue
			}
			if err != nil {
				return err
			}
			if err := r.Logs.Append(ctx, &model.InventoryLog{
				Barcode:        line.Barcode,
				QuantityChange: line.Quantity,
				Action:         model.ActionReversal,
				ActorID:        actorID,
				TransactionID:  &tx.ID,
				Notes:          "reversal of " + tx.InvoiceNumber(),
			}); err != nil {
				return err
			}
			if !product.BelowMinimum() {
				if _, err := s.threshold.evaluate(ctx, r.Alerts, product, model.AlertStatusAlert, model.AlertSourceCheckout); err != nil {
					return err
				}
			}
		}
		return r.Transactions.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	metrics.ReversalsTotal.Inc()
	s.log.Info().Str("invoice", id.String()).Str("actor_id", actorID.String()).Msg("transaction reversed")
	return nil
}
