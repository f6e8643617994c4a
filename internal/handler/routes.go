package handler

import (
	"go-kasir-ws/internal/middleware"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Routes is everything the HTTP surface is built from.
type Routes struct {
	Issuer *jwt.Issuer
	Actors repository.ActorRepository

	Auth         *AuthHandler
	Inventory    *InventoryHandler
	Transactions *TransactionHandler
	Manager      *ManagerHandler
	WS           *WSHandler
}

// Mount registers the API under /api/v1 and the websocket endpoint at /ws.
func (r *Routes) Mount(app *fiber.App) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Post("/auth/login", r.Auth.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(r.Issuer, r.Actors))
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	protected.Post("/checkout", r.Transactions.Checkout)

	// Product Routes
	protected.Get("/products", r.Inventory.GetProducts)
	protected.Get("/products/low-stock", r.Inventory.GetLowStock)
	protected.Get("/products/:barcode", r.Inventory.GetProduct)
	protected.Post("/products", managers, r.Inventory.CreateProduct)
	protected.Put("/products/:barcode", managers, r.Inventory.UpdateProduct)
	protected.Post("/products/:barcode/restock", managers, r.Inventory.Restock)
	protected.Post("/products/:barcode/adjust", managers, r.Inventory.Adjust)

	// Transaction Routes
	protected.Get("/transactions", r.Transactions.GetTransactions)
	protected.Get("/transactions/today", r.Transactions.GetTodaySummary)
	protected.Get("/transactions/:id", r.Transactions.GetTransaction)
	protected.Delete("/transactions/:id", managers, r.Transactions.ReverseTransaction)

	// Manager Routes
	manager := protected.Group("/manager", managers)
	manager.Get("/stock-alerts", r.Manager.GetStockAlerts)
	manager.Get("/alerts", r.Manager.GetActiveAlerts)
	manager.Get("/inventory-logs", r.Manager.GetInventoryLogs)
	manager.Get("/analytics", r.Manager.GetAnalytics)

	// WebSocket Route
	if r.WS != nil {
		app.Get("/ws", r.WS.Upgrade, r.WS.Serve())
	}
}
