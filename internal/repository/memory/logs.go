package memory

import (
	"context"
	"sort"
	"time"

	"go-kasir-ws/internal/model"
)

type logRepo struct{ *repos }

func (r *logRepo) Append(ctx context.Context, entry *model.InventoryLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.logs = append(s.logs, *entry)

	id := entry.ID
	r.onRollback(func() {
		for i := range s.logs {
			if s.logs[i].ID == id {
				s.logs = append(s.logs[:i], s.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *logRepo) CountSoldSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)
	for _, l := range s.logs {
		if l.Action == model.ActionSold && !l.CreatedAt.Before(since) {
			counts[l.Barcode]++
		}
	}
	return counts, nil
}

func (r *logRepo) Recent(ctx context.Context, limit int) ([]model.InventoryLog, error) {
	s := r.s
	s.mu.Lock()
	out := append([]model.InventoryLog(nil), s.logs...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *logRepo) SumChanges(ctx context.Context, barcode string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := 0
	for _, l := range s.logs {
		if l.Barcode == barcode {
			sum += l.QuantityChange
		}
	}
	return sum, nil
}
