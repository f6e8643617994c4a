package memory

import (
	"context"
	"sort"
	"time"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"

	"github.com/google/uuid"
)

type transactionRepo struct{ *repos }

func cloneTx(t *model.Transaction) *model.Transaction {
	cp := *t
	cp.Items = append([]model.LineItem(nil), t.Items...)
	if t.IdempotencyKey != nil {
		key := *t.IdempotencyKey
		cp.IdempotencyKey = &key
	}
	return &cp
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.IdempotencyKey != nil {
		if _, taken := s.idemKeys[*tx.IdempotencyKey]; taken {
			return model.ErrDuplicate
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if _, exists := s.txs[tx.ID]; exists {
		return model.ErrDuplicate
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}
	tx.UpdatedAt = tx.CreatedAt
	for i := range tx.Items {
		s.nextItemID++
		tx.Items[i].ID = s.nextItemID
		tx.Items[i].TransactionID = tx.ID
	}

	s.txs[tx.ID] = cloneTx(tx)
	s.nextTxSeq++
	s.txSeq[tx.ID] = s.nextTxSeq
	if tx.IdempotencyKey != nil {
		s.idemKeys[*tx.IdempotencyKey] = tx.ID
	}
	id, key := tx.ID, tx.IdempotencyKey
	r.onRollback(func() {
		delete(s.txs, id)
		delete(s.txSeq, id)
		if key != nil {
			delete(s.idemKeys, *key)
		}
	})
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneTx(t), nil
}

func (r *transactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.idemKeys[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneTx(s.txs[id]), nil
}

func (r *transactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok {
		return model.ErrNotFound
	}
	delete(s.txs, id)
	if t.IdempotencyKey != nil {
		delete(s.idemKeys, *t.IdempotencyKey)
	}
	r.onRollback(func() {
		s.txs[id] = t
		if t.IdempotencyKey != nil {
			s.idemKeys[*t.IdempotencyKey] = id
		}
	})
	return nil
}

// snapshot returns copies of every transaction matching keep, oldest first.
func (r *transactionRepo) snapshot(keep func(*model.Transaction) bool) []model.Transaction {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, t := range s.txs {
		if keep(t) {
			out = append(out, *cloneTx(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.txSeq[out[i].ID] < s.txSeq[out[j].ID]
	})
	return out
}

func (r *transactionRepo) FindBetween(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	return r.snapshot(func(t *model.Transaction) bool {
		return !t.CreatedAt.Before(start) && !t.CreatedAt.After(end)
	}), nil
}

func (r *transactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, int64, error) {
	matched := r.snapshot(func(t *model.Transaction) bool {
		if f.DateFrom != nil && t.CreatedAt.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && t.CreatedAt.After(*f.DateTo) {
			return false
		}
		return f.PaymentMethod == "" || t.PaymentMethod == f.PaymentMethod
	})

	// newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []model.Transaction{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}
