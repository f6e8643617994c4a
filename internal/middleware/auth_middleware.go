package middleware

import (
	"strings"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalRole     = "role"
)

// RequireAuth is middleware that validates JWT token and sets actor info in context
func RequireAuth(issuer *jwt.Issuer, actors repository.ActorRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := issuer.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Deactivated actors lose access before their token expires
		actor, err := actors.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}
		if !actor.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		}

		c.Locals(LocalUserID, actor.ID.String())
		c.Locals(LocalUsername, actor.Username)
		c.Locals(LocalRole, actor.Role)

		return c.Next()
	}
}

// RequireRole allows the request through only for the listed roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(model.Role)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No role found"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}

		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " roles",
		})
	}
}

// ActorID returns the authenticated actor's id, or uuid.Nil outside protected routes.
func ActorID(c *fiber.Ctx) uuid.UUID {
	s, _ := c.Locals(LocalUserID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func Role(c *fiber.Ctx) model.Role {
	r, _ := c.Locals(LocalRole).(model.Role)
	return r
}
