// Package memory is an in-process implementation of the repository contracts,
// used for local development (DB_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"

	"github.com/google/uuid"
)

// Store keeps every table in maps guarded by mu. Stock writers additionally take a
// per-barcode row lock that a unit of work holds until it finishes, mirroring the
// row lock Postgres takes on UPDATE.
type Store struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex

	products map[string]*model.Product
	txs      map[uuid.UUID]*model.Transaction
	txSeq    map[uuid.UUID]uint64
	idemKeys map[string]uuid.UUID
	logs     []model.InventoryLog
	alerts   []*model.StockAlert
	actors   map[uuid.UUID]*model.Actor

	nextTxSeq   uint64
	nextItemID  uint
	nextLogID   uint
	nextAlertID uint

	now func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now for timestamps the store assigns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		rowLocks: make(map[string]*sync.Mutex),
		products: make(map[string]*model.Product),
		txs:      make(map[uuid.UUID]*model.Transaction),
		txSeq:    make(map[uuid.UUID]uint64),
		idemKeys: make(map[string]uuid.UUID),
		actors:   make(map[uuid.UUID]*model.Actor),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the store through the repository contracts.
func (s *Store) Repository() *repository.Store {
	r := &repos{s: s}
	return &repository.Store{
		Repos:  r.bundle(),
		Actors: &actorRepo{s: s},
		Tx:     s,
	}
}

// Run executes fn as one unit: on error every applied change is undone in reverse order.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := &unit{held: make(map[string]*sync.Mutex)}
	r := &repos{s: s, u: u}

	defer func() {
		if p := recover(); p != nil {
			s.rollback(u)
			u.release()
			panic(p)
		}
		if err != nil {
			s.rollback(u)
		}
		u.release()
	}()

	return fn(r.bundle())
}

func (s *Store) rollback(u *unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (s *Store) rowMutex(barcode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[barcode]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[barcode] = m
	}
	return m
}

// unit is the state of one in-flight Run.
type unit struct {
	held map[string]*sync.Mutex
	undo []func() // run with Store.mu held
}

func (u *unit) release() {
	for barcode, m := range u.held {
		m.Unlock()
		delete(u.held, barcode)
	}
}

// repos implements the repository interfaces; u is nil outside a unit of work.
type repos struct {
	s *Store
	u *unit
}

func (r *repos) bundle() repository.Repos {
	return repository.Repos{
		Products:     &productRepo{r},
		Transactions: &transactionRepo{r},
		Logs:         &logRepo{r},
		Alerts:       &alertRepo{r},
	}
}

// withRow runs fn while holding the barcode's row lock. Inside a unit the lock is
// kept until the unit ends.
func (r *repos) withRow(barcode string, fn func()) {
	if r.u == nil {
		m := r.s.rowMutex(barcode)
		m.Lock()
		defer m.Unlock()
		fn()
		return
	}
	if _, ok := r.u.held[barcode]; !ok {
		m := r.s.rowMutex(barcode)
		m.Lock()
		r.u.held[barcode] = m
	}
	fn()
}

// onRollback registers an undo step. Callers hold Store.mu.
func (r *repos) onRollback(undo func()) {
	if r.u != nil {
		r.u.undo = append(r.u.undo, undo)
	}
}
