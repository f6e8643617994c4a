package handler

import (
	"time"

	"go-kasir-ws/internal/middleware"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	checkout     service.CheckoutService
	analytics    service.AnalyticsService
	transactions repository.TransactionRepository
}

func NewTransactionHandler(checkout service.CheckoutService, analytics service.AnalyticsService, transactions repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{checkout: checkout, analytics: analytics, transactions: transactions}
}

// Checkout commits a cart
// POST /api/v1/checkout
func (h *TransactionHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req.ActorID = middleware.ActorID(c)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Get("Idempotency-Key")
	}

	tx, err := h.checkout.Commit(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Transaction committed",
		"invoice": tx.InvoiceNumber(),
		"change":  tx.Change(),
		"data":    tx,
	})
}

// GetTransactions lists the ledger newest first
// GET /api/v1/transactions?limit=&offset=&date_from=&date_to=&payment_method=
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	f := repository.TransactionFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	if v := c.Query("date_from"); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, service.JakartaLoc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date_from, use YYYY-MM-DD"})
		}
		f.DateFrom = &d
	}
	if v := c.Query("date_to"); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, service.JakartaLoc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date_to, use YYYY-MM-DD"})
		}
		// inclusive of the whole day
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.DateTo = &end
	}
	if v := c.Query("payment_method"); v != "" {
		pm := model.PaymentMethod(v)
		if !pm.Valid() {
			return respondError(c, model.ErrInvalidPaymentMethod)
		}
		f.PaymentMethod = pm
	}

	txs, total, err := h.transactions.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":   txs,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// GetTodaySummary returns today's revenue and count per payment method
// GET /api/v1/transactions/today
func (h *TransactionHandler) GetTodaySummary(c *fiber.Ctx) error {
	sum, err := h.analytics.TodaySummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.transactions.FindByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}

// ReverseTransaction voids a sale and puts its stock back
// DELETE /api/v1/transactions/:id
func (h *TransactionHandler) ReverseTransaction(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	if err := h.checkout.Reverse(c.UserContext(), id, middleware.ActorID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction reversed", "invoice": id.String()})
}
