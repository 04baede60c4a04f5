package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/dto"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// MarketHandler fronts resale listing operations.
type MarketHandler struct {
	registry *registry.Registry
}

// NewMarketHandler constructs the handler.
func NewMarketHandler(reg *registry.Registry) *MarketHandler {
	return &MarketHandler{registry: reg}
}

// List handles POST /market/listings.
func (h *MarketHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ListResaleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpListResale, modules.ListArgs{
		TokenID: req.TokenID,
		Price:   req.Price,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"listed": req.TokenID}})
}

// Buy handles POST /market/listings/:token_id/purchase.
func (h *MarketHandler) Buy(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tokenID, err := h.tokenParam(c)
	if err != nil {
		return err
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpBuyResale, modules.BuyArgs{TokenID: tokenID})
	if err != nil {
		return err
	}
	return respond(c, result)
}

// Cancel handles DELETE /market/listings/:token_id.
func (h *MarketHandler) Cancel(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tokenID, err := h.tokenParam(c)
	if err != nil {
		return err
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpCancelResale, modules.CancelArgs{TokenID: tokenID})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

func (h *MarketHandler) tokenParam(c *fiber.Ctx) (int64, error) {
	tokenID, err := strconv.ParseInt(c.Params("token_id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid token id")
	}
	return tokenID, nil
}
