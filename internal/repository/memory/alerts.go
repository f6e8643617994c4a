package memory

import (
	"context"
	"sort"
	"time"

	"go-kasir-ws/internal/model"
)

type alertRepo struct{ *repos }

// openAlert returns the unresolved alert for barcode. Callers hold Store.mu.
func (s *Store) openAlert(barcode string) *model.StockAlert {
	for _, a := range s.alerts {
		if a.Barcode == barcode && a.ResolvedAt == nil {
			return a
		}
	}
	return nil
}

func (r *alertRepo) OpenIfAbsent(ctx context.Context, alert *model.StockAlert) (bool, error) {
	opened := false
	r.withRow(alert.Barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.openAlert(alert.Barcode) != nil {
			return
		}
		s.nextAlertID++
		alert.ID = s.nextAlertID
		alert.State = model.AlertActive
		alert.ResolvedAt = nil
		if alert.CreatedAt.IsZero() {
			alert.CreatedAt = s.now()
		}
		stored := *alert
		s.alerts = append(s.alerts, &stored)
		opened = true

		r.onRollback(func() {
			for i, a := range s.alerts {
				if a == &stored {
					s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
					return
				}
			}
		})
	})
	return opened, nil
}

func (r *alertRepo) Refresh(ctx context.Context, barcode string, stock int) (bool, error) {
	escalated := false
	r.withRow(barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		a := s.openAlert(barcode)
		if a == nil {
			return
		}
		before := *a
		a.CurrentStock = stock
		if stock == 0 && a.Status != model.AlertStatusCritical {
			a.Status = model.AlertStatusCritical
			escalated = true
		}
		r.onRollback(func() { *a = before })
	})
	return escalated, nil
}

func (r *alertRepo) Resolve(ctx context.Context, barcode string, at time.Time) (bool, error) {
	resolved := false
	r.withRow(barcode, func() {
		s := r.s
		s.mu.Lock()
		defer s.mu.Unlock()

		a := s.openAlert(barcode)
		if a == nil {
			return
		}
		resolvedAt := at
		a.State = model.AlertResolved
		a.ResolvedAt = &resolvedAt
		resolved = true

		r.onRollback(func() {
			a.State = model.AlertActive
			a.ResolvedAt = nil
		})
	})
	return resolved, nil
}

func (r *alertRepo) CountActive(ctx context.Context) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, a := range s.alerts {
		if a.ResolvedAt == nil {
			n++
		}
	}
	return n, nil
}

func (r *alertRepo) ListActive(ctx context.Context) ([]model.StockAlert, error) {
	s := r.s
	s.mu.Lock()
	var out []model.StockAlert
	for _, a := range s.alerts {
		if a.ResolvedAt == nil {
			out = append(out, *a)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentStock < out[j].CurrentStock })
	return out, nil
}

// AllAlerts returns every alert row, resolved or not, in creation order.
func (s *Store) AllAlerts() []model.StockAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.StockAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, *a)
	}
	return out
}
