package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/dto"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// EventsHandler fronts the event lifecycle operations.
type EventsHandler struct {
	registry *registry.Registry
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(reg *registry.Registry) *EventsHandler {
	return &EventsHandler{registry: reg}
}

// Initialize handles POST /event.
func (h *EventsHandler) Initialize(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.EventInitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpInitialize, modules.InitializeArgs{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		Category:    req.Category,
		Date:        req.Date,
		Organizer:   domain.Identity(req.Organizer),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// AddTier handles POST /event/tiers.
func (h *EventsHandler) AddTier(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.TierRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpAddTier, modules.TierArgs{
		Name:           req.Name,
		Price:          req.Price,
		Available:      req.Available,
		MaxPerPurchase: req.MaxPerPurchase,
		Description:    req.Description,
		Benefits:       req.Benefits,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"tier": result}})
}

// UpdateTier handles PUT /event/tiers/:tier.
func (h *EventsHandler) UpdateTier(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tier, err := strconv.ParseInt(c.Params("tier"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tier index")
	}
	var req dto.UpdateTierRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpUpdateTier, modules.UpdateTierArgs{
		Tier:           tier,
		Name:           req.Name,
		Price:          req.Price,
		Available:      req.Available,
		MaxPerPurchase: req.MaxPerPurchase,
		Active:         req.Active,
		Description:    req.Description,
		Benefits:       req.Benefits,
	})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// Cancel handles POST /event/cancel.
func (h *EventsHandler) Cancel(c *fiber.Ctx) error {
	return h.dispatchBare(c, modules.OpCancelEvent)
}

// Complete handles POST /event/complete.
func (h *EventsHandler) Complete(c *fiber.Ctx) error {
	return h.dispatchBare(c, modules.OpCompleteEvent)
}

// ClearTiers handles POST /event/clear.
func (h *EventsHandler) ClearTiers(c *fiber.Ctx) error {
	return h.dispatchBare(c, modules.OpClearTiers)
}

func (h *EventsHandler) dispatchBare(c *fiber.Ctx, op registry.OpID) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if _, err := h.registry.Dispatch(c.UserContext(), caller, op, nil); err != nil {
		return err
	}
	return respond(c, nil)
}
