package handler

import (
	"errors"

	"go-kasir-ws/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientStock):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Internal Server Error"
	}

	body := fiber.Map{"error": msg}
	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["barcode"] = stockErr.Barcode
		body["requested"] = stockErr.Requested
		body["available"] = stockErr.Available
	}
	return c.Status(status).JSON(body)
}

// Helper untuk parse UUID dari path param
func parseUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
