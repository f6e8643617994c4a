package service

import (
	"context"
	"testing"
	"time"

	"go-kasir-ws/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventory(e *testEnv) InventoryService {
	return NewInventoryService(e.store, e.pub, zerolog.Nop())
}

func TestCreateProduct_SetsInitialStock(t *testing.T) {
	e := newTestEnv(t)
	svc := newInventory(e)
	ctx := context.Background()

	p := &model.Product{Barcode: "8992700100097", Name: "Indomie Goreng", Price: 2500, Stock: 50, MinimumStock: 20, InitialStock: 999}
	require.NoError(t, svc.CreateProduct(ctx, p, e.actor))

	got, err := svc.GetProduct(ctx, "8992700100097")
	require.NoError(t, err)
	assert.Equal(t, 50, got.InitialStock)
	assert.Equal(t, e.actor.String(), got.CreatedBy)

	err = svc.CreateProduct(ctx, &model.Product{Barcode: "8992700100097", Name: "Dup", Stock: 1}, e.actor)
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestCreateProduct_Validation(t *testing.T) {
	e := newTestEnv(t)
	svc := newInventory(e)

	for _, p := range []*model.Product{
		{Name: "No barcode", Stock: 1},
		{Barcode: "X", Stock: 1},
		{Barcode: "X", Name: "Negative", Stock: -1},
		{Barcode: "X", Name: "Negative minimum", MinimumStock: -5},
	} {
		err := svc.CreateProduct(context.Background(), p, e.actor)
		assert.ErrorIs(t, err, model.ErrValidation, p.Name)
	}
}

func TestRestock_ResolvesActiveAlert(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 25, 20)
	ctx := context.Background()

	_, err := newCheckout(e).Commit(ctx, e.cart(CartLine{Barcode: "A", Name: "Indomie", UnitPrice: 2500, Qty: 10}))
	require.NoError(t, err)
	require.Len(t, e.pub.alerts(t), 1)

	p, err := newInventory(e).Restock(ctx, "A", 30, e.actor, "supplier delivery")
	require.NoError(t, err)
	assert.Equal(t, 45, p.Stock)

	alerts := e.mem.AllAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertResolved, alerts[0].State)

	logs, err := e.store.Logs.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ActionRestock, logs[0].Action)
	assert.Equal(t, 30, logs[0].QuantityChange)
	assert.Equal(t, "supplier delivery", logs[0].Notes)

	// the next crossing raises a fresh alert
	_, err = newCheckout(e).Commit(ctx, e.cart(CartLine{Barcode: "A", Name: "Indomie", UnitPrice: 2500, Qty: 30}))
	require.NoError(t, err)
	assert.Len(t, e.pub.alerts(t), 2)
	assert.Len(t, e.mem.AllAlerts(), 2)
}

func TestRestock_StillBelowMinimumKeepsAlertOpen(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 5, 20)
	svc := newInventory(e)
	ctx := context.Background()

	_, err := svc.Restock(ctx, "A", 1, e.actor, "")
	require.NoError(t, err)
	_, err = svc.Restock(ctx, "A", 1, e.actor, "")
	require.NoError(t, err)

	alerts := e.mem.AllAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertActive, alerts[0].State)
	assert.Equal(t, model.AlertSourceInventory, alerts[0].Source)
	assert.Len(t, e.pub.alerts(t), 1)
}

func TestRestock_Rejects(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 5, 0)
	svc := newInventory(e)
	ctx := context.Background()

	_, err := svc.Restock(ctx, "A", 0, e.actor, "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Restock(ctx, "A", -3, e.actor, "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Restock(ctx, "missing", 3, e.actor, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, 5, e.stock(t, "A"))
}

func TestAdjust_StrictNonNegative(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 5, 0)
	svc := newInventory(e)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, "A", -6, e.actor, "count correction")
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 5, e.stock(t, "A"))

	_, err = svc.Adjust(ctx, "A", 0, e.actor, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	p, err := svc.Adjust(ctx, "A", -5, e.actor, "damaged")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	logs, err := e.store.Logs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionAdjustment, logs[0].Action)

	mismatches, err := Reconcile(ctx, e.store)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestUpdateProduct_RaisingMinimumOpensAlert(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 30, 20)
	svc := newInventory(e)
	ctx := context.Background()

	p, err := svc.UpdateProduct(ctx, "A", ProductUpdate{Name: "Indomie Goreng Jumbo", Price: 3500, MinimumStock: 40}, e.actor)
	require.NoError(t, err)
	assert.Equal(t, "Indomie Goreng Jumbo", p.Name)
	assert.Equal(t, int64(3500), p.Price)
	assert.Equal(t, 30, p.Stock)

	evs := e.pub.alerts(t)
	require.Len(t, evs, 1)
	assert.Equal(t, model.AlertSourceInventory, evs[0].Source)
	assert.Equal(t, 40, evs[0].MinimumStock)

	// lowering it again resolves
	_, err = svc.UpdateProduct(ctx, "A", ProductUpdate{Name: "Indomie Goreng Jumbo", Price: 3500, MinimumStock: 10}, e.actor)
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, e.mem.AllAlerts()[0].State)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	e := newTestEnv(t)
	_, err := newInventory(e).UpdateProduct(context.Background(), "nope", ProductUpdate{Name: "x"}, e.actor)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetStockAlerts_Formula(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Roti Tawar", 8000, 3, 20)
	e.addProduct(t, "B", "Aqua 600ml", 5000, 8, 20)
	e.addProduct(t, "C", "Indomie Goreng", 2500, 29, 20)
	e.addProduct(t, "D", "Teh Sosro", 3000, 60, 20)
	ctx := context.Background()

	checkout := newCheckout(e)
	for i := 0; i < 14; i++ {
		_, err := checkout.Commit(ctx, e.cart(CartLine{Barcode: "C", Name: "Indomie", UnitPrice: 2500, Qty: 1}))
		require.NoError(t, err)
	}

	svc := NewInventoryService(e.store, e.pub, zerolog.Nop()).(*inventoryService)
	svc.now = fixedClock(time.Now().Add(time.Minute))
	views, err := svc.GetStockAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, StockAlertView{
		Barcode: "A", Name: "Roti Tawar", CurrentStock: 3, MinimumStock: 20,
		Urgency: "critical", UrgencyLevel: 1,
		WeeklySold: 0, DailySales: 1, DaysToStockout: 3, RecommendedReorder: 60,
		StockPercent: 15,
	}, views[0])

	assert.Equal(t, "B", views[1].Barcode)
	assert.Equal(t, "warning", views[1].Urgency)
	assert.Equal(t, 2, views[1].UrgencyLevel)
	assert.Equal(t, 40.0, views[1].StockPercent)

	assert.Equal(t, StockAlertView{
		Barcode: "C", Name: "Indomie Goreng", CurrentStock: 15, MinimumStock: 20,
		Urgency: "normal", UrgencyLevel: 3,
		WeeklySold: 14, DailySales: 2, DaysToStockout: 7, RecommendedReorder: 120,
		StockPercent: 75,
	}, views[2])
}

func TestStockAlertView_ZeroMinimum(t *testing.T) {
	v := stockAlertView(model.Product{Barcode: "Z", Stock: 0, MinimumStock: 0}, 3)
	assert.Equal(t, 0.0, v.StockPercent)
	assert.Equal(t, "critical", v.Urgency)
	assert.Equal(t, 0.43, v.DailySales)
	assert.Equal(t, 0, v.DaysToStockout)
	assert.Equal(t, 25, v.RecommendedReorder)
}

func TestRecentLogs_DefaultsLimit(t *testing.T) {
	e := newTestEnv(t)
	e.addProduct(t, "A", "Indomie Goreng", 2500, 0, 0)
	svc := newInventory(e)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		_, err := svc.Restock(ctx, "A", 1, e.actor, "")
		require.NoError(t, err)
	}

	logs, err := svc.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 100)

	logs, err = svc.RecentLogs(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, logs, 5)
}
