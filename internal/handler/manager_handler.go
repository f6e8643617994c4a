package handler

import (
	"go-kasir-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ManagerHandler struct {
	inventory service.InventoryService
	analytics service.AnalyticsService
}

func NewManagerHandler(inventory service.InventoryService, analytics service.AnalyticsService) *ManagerHandler {
	return &ManagerHandler{inventory: inventory, analytics: analytics}
}

// GetStockAlerts returns products below minimum with reorder guidance
// GET /api/v1/manager/stock-alerts
func (h *ManagerHandler) GetStockAlerts(c *fiber.Ctx) error {
	alerts, err := h.inventory.GetStockAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"alerts": alerts, "count": len(alerts)})
}

// GetActiveAlerts lists the ACTIVE alert rows
// GET /api/v1/manager/alerts
func (h *ManagerHandler) GetActiveAlerts(c *fiber.Ctx) error {
	alerts, err := h.inventory.ActiveAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alerts)
}

// GET /api/v1/manager/inventory-logs?limit=
func (h *ManagerHandler) GetInventoryLogs(c *fiber.Ctx) error {
	logs, err := h.inventory.RecentLogs(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(logs)
}

// GET /api/v1/manager/analytics?period=today|7days|30days
func (h *ManagerHandler) GetAnalytics(c *fiber.Ctx) error {
	sum, err := h.analytics.Summarize(c.UserContext(), c.Query("period", service.PeriodToday))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}
