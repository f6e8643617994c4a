package handler

import (
	"go-kasir-ws/internal/middleware"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

type stockChangeRequest struct {
	Qty   int    `json:"qty"`
	Notes string `json:"notes"`
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateProduct(c.UserContext(), &product, middleware.ActorID(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	var upd service.ProductUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), c.Params("barcode"), upd, middleware.ActorID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// Restock adds delivered units
// POST /api/v1/products/:barcode/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	var req stockChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	p, err := h.service.Restock(c.UserContext(), c.Params("barcode"), req.Qty, middleware.ActorID(c), req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock added", "data": p})
}

// Adjust applies a signed stock correction, e.g. after a count
// POST /api/v1/products/:barcode/adjust
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var req stockChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	p, err := h.service.Adjust(c.UserContext(), c.Params("barcode"), req.Qty, middleware.ActorID(c), req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock adjusted", "data": p})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.service.GetProduct(c.UserContext(), c.Params("barcode"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}
