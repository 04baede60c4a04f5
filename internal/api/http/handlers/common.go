package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// callerHeader identifies the engine caller on operation routes. Admin routes
// additionally require a bearer token.
const callerHeader = "X-Caller-ID"

func callerFrom(c *fiber.Ctx) (domain.Identity, error) {
	caller := domain.Identity(c.Get(callerHeader))
	if caller.IsZero() {
		return domain.ZeroIdentity, fiber.NewError(fiber.StatusUnauthorized, "X-Caller-ID header required")
	}
	return caller, nil
}

func respond(c *fiber.Ctx, result any) error {
	if result == nil {
		result = fiber.Map{"ok": true}
	}
	return c.JSON(fiber.Map{"data": result})
}
