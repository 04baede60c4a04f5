package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/dto"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// TicketsHandler fronts purchase, escrow, and refund operations.
type TicketsHandler struct {
	registry *registry.Registry
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(reg *registry.Registry) *TicketsHandler {
	return &TicketsHandler{registry: reg}
}

// Purchase handles POST /tickets/purchase.
func (h *TicketsHandler) Purchase(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpPurchase, modules.PurchaseArgs{
		Tier:     req.Tier,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// Withdraw handles POST /tickets/withdraw.
func (h *TicketsHandler) Withdraw(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpWithdraw, nil)
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"amount": result})
}

// CollectFees handles POST /tickets/collect-fees.
func (h *TicketsHandler) CollectFees(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpCollectFees, nil)
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"amount": result})
}

// Refund handles POST /tickets/:token_id/refund.
func (h *TicketsHandler) Refund(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tokenID, err := strconv.ParseInt(c.Params("token_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid token id")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpRefundClaim, modules.RefundArgs{TokenID: tokenID})
	if err != nil {
		return err
	}
	return respond(c, fiber.Map{"amount": result})
}

// Sweep handles POST /tickets/refund-sweep.
func (h *TicketsHandler) Sweep(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.SweepRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpRefundSweep, modules.SweepArgs{Limit: req.Limit})
	if err != nil {
		return err
	}
	return respond(c, result)
}
