package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/dto"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// StaffHandler fronts role management and ticket scanning.
type StaffHandler struct {
	registry *registry.Registry
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(reg *registry.Registry) *StaffHandler {
	return &StaffHandler{registry: reg}
}

// AssignRole handles POST /staff/roles.
func (h *StaffHandler) AssignRole(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpAddStaffWithRole, modules.RoleArgs{
		Staff: domain.Identity(req.Staff),
		Role:  domain.ParseStaffRole(req.Role),
	})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// RemoveRole handles DELETE /staff/roles/:staff.
func (h *StaffHandler) RemoveRole(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpRemoveStaffRole, modules.RemoveRoleArgs{
		Staff: domain.Identity(c.Params("staff")),
	})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// AddLegacy handles POST /staff/scanners.
func (h *StaffHandler) AddLegacy(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpAddStaff, modules.StaffArgs{
		Staff: domain.Identity(req.Staff),
	})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// RemoveLegacy handles DELETE /staff/scanners/:staff.
func (h *StaffHandler) RemoveLegacy(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpRemoveStaff, modules.StaffArgs{
		Staff: domain.Identity(c.Params("staff")),
	})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// Scan handles POST /tickets/:token_id/scan.
func (h *StaffHandler) Scan(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	tokenID, err := strconv.ParseInt(c.Params("token_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid token id")
	}
	_, err = h.registry.Dispatch(c.UserContext(), caller, modules.OpUpdateStatus, modules.StatusArgs{TokenID: tokenID})
	if err != nil {
		return err
	}
	return respond(c, nil)
}

// ScanBatch handles POST /tickets/scan-batch.
func (h *StaffHandler) ScanBatch(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.BatchStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.registry.Dispatch(c.UserContext(), caller, modules.OpBatchUpdateStatus, modules.BatchStatusArgs{
		TokenIDs: req.TokenIDs,
	})
	if err != nil {
		return err
	}
	return respond(c, result)
}
