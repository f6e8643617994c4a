package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.Message
}

func (p *recordingPublisher) Publish(msg events.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *recordingPublisher) alerts(t *testing.T) []AlertEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AlertEvent, 0, len(p.msgs))
	for _, m := range p.msgs {
		require.Equal(t, events.TopicAdmin, m.Topic)
		var ev AlertEvent
		require.NoError(t, json.Unmarshal(m.Payload, &ev))
		out = append(out, ev)
	}
	return out
}

type testEnv struct {
	mem   *memory.Store
	store *repository.Store
	pub   *recordingPublisher
	actor uuid.UUID
}

func newTestEnv(t *testing.T, opts ...memory.Option) *testEnv {
	t.Helper()
	mem := memory.New(opts...)
	return &testEnv{
		mem:   mem,
		store: mem.Repository(),
		pub:   &recordingPublisher{},
		actor: uuid.New(),
	}
}

func (e *testEnv) addProduct(t *testing.T, barcode, name string, price int64, stock, minimum int) {
	t.Helper()
	require.NoError(t, e.store.Products.Create(context.Background(), &model.Product{
		Barcode:      barcode,
		Name:         name,
		Price:        price,
		Stock:        stock,
		MinimumStock: minimum,
		InitialStock: stock,
	}))
}

func (e *testEnv) stock(t *testing.T, barcode string) int {
	t.Helper()
	p, err := e.store.Products.FindByBarcode(context.Background(), barcode)
	require.NoError(t, err)
	return p.Stock
}

func (e *testEnv) cart(lines ...CartLine) CheckoutRequest {
	return CheckoutRequest{
		Items:         lines,
		PaymentMethod: model.PaymentQRIS,
		ActorID:       e.actor,
	}
}

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
