package handler

import (
	"context"
	"fmt"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/internal/ws"
	"go-kasir-ws/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WSHandler struct {
	hub    *ws.Hub
	issuer *jwt.Issuer
	actors repository.ActorRepository
}

func NewWSHandler(hub *ws.Hub, issuer *jwt.Issuer, actors repository.ActorRepository) *WSHandler {
	return &WSHandler{hub: hub, issuer: issuer, actors: actors}
}

// Upgrade authenticates ?token= before switching protocols. The actor is passed to
// Serve through Locals.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}

	claims, err := h.issuer.ValidateToken(c.Query("token"))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	actor, err := h.actors.FindByID(c.UserContext(), claims.UserID)
	if err != nil || !actor.IsActive {
		return c.Status(401).JSON(fiber.Map{"error": "User not found"})
	}

	c.Locals("ws_role", actor.Role)
	c.Locals("ws_actor", actor.ID.String())
	return c.Next()
}

// Serve runs the observer session on the upgraded connection.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		role, _ := c.Locals("ws_role").(model.Role)
		actorID, _ := c.Locals("ws_actor").(string)
		h.hub.Serve(c, role, actorID)
	})
}

// ActorCheck resolves the current role of a connected observer from the actor store.
// Inactive or deleted actors are refused.
func ActorCheck(actors repository.ActorRepository) ws.ActorCheck {
	return func(ctx context.Context, actorID string) (model.Role, error) {
		id, err := uuid.Parse(actorID)
		if err != nil {
			return "", fmt.Errorf("%w: bad actor id", model.ErrForbidden)
		}
		actor, err := actors.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !actor.IsActive {
			return "", fmt.Errorf("%w: actor inactive", model.ErrForbidden)
		}
		return actor.Role, nil
	}
}
