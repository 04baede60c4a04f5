package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-exchange/internal/api/dto"
	"github.com/spec-kit/ticket-exchange/internal/auth"
	"github.com/spec-kit/ticket-exchange/internal/config"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/repository"
)

// AdminHandler exposes the administrative surface: login, registry batches,
// introspection, admin transfer, and the persisted audit trail.
type AdminHandler struct {
	cfg      config.AuthConfig
	tokens   *auth.TokenManager
	registry *registry.Registry
	// catalog resolves module names in batch requests to their instances.
	catalog map[string]registry.Module
	audits  repository.AuditRepository
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(cfg config.AuthConfig, tokens *auth.TokenManager, reg *registry.Registry, catalog map[string]registry.Module, audits repository.AuditRepository) *AdminHandler {
	return &AdminHandler{cfg: cfg, tokens: tokens, registry: reg, catalog: catalog, audits: audits}
}

// Login handles POST /auth/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if req.Identity == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "identity and password required")
	}
	if req.Identity != h.cfg.AdminIdentity || h.cfg.AdminPasswordHash == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err := auth.ComparePassword(h.cfg.AdminPasswordHash, req.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken(domain.Identity(req.Identity))
	if err != nil {
		return err
	}
	return respond(c, dto.AuthResponse{Token: token, ExpiresAt: expiresAt})
}

// ApplyBatch handles POST /admin/registry/batch.
func (h *AdminHandler) ApplyBatch(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	var req dto.RegistryBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	entries := make([]registry.BatchEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entry := registry.BatchEntry{}
		switch e.Action {
		case "add":
			entry.Action = registry.ActionAdd
		case "replace":
			entry.Action = registry.ActionReplace
		case "remove":
			entry.Action = registry.ActionRemove
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown action "+e.Action)
		}
		if e.Module != "" {
			module, known := h.catalog[e.Module]
			if !known {
				return fiber.NewError(fiber.StatusBadRequest, "unknown module "+e.Module)
			}
			entry.Module = module
		}
		for _, op := range e.Ops {
			entry.Ops = append(entry.Ops, registry.OpID(op))
		}
		entries = append(entries, entry)
	}

	var init *registry.InitCall
	if req.Init != nil {
		init = &registry.InitCall{Module: req.Init.Module}
		if req.Init.Event != nil {
			init.Args = modules.InitializeArgs{
				EventID:     req.Init.Event.EventID,
				Name:        req.Init.Event.Name,
				Description: req.Init.Event.Description,
				Venue:       req.Init.Event.Venue,
				Category:    req.Init.Event.Category,
				Date:        req.Init.Event.Date,
				Organizer:   domain.Identity(req.Init.Event.Organizer),
			}
		}
	}

	if err := h.registry.ApplyBatch(c.UserContext(), caller, entries, init); err != nil {
		return err
	}
	return respond(c, nil)
}

// TransferAdmin handles POST /admin/registry/transfer.
func (h *AdminHandler) TransferAdmin(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	var req dto.TransferAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.registry.TransferAdmin(c.UserContext(), caller, domain.Identity(req.NewAdmin)); err != nil {
		return err
	}
	return respond(c, nil)
}

// ListModules handles GET /admin/registry/modules.
func (h *AdminHandler) ListModules(c *fiber.Ctx) error {
	return respond(c, h.registry.Modules())
}

// ModuleOperations handles GET /admin/registry/modules/:name/operations.
func (h *AdminHandler) ModuleOperations(c *fiber.Ctx) error {
	ops, ok := h.registry.OperationsOf(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "module not registered")
	}
	return respond(c, ops)
}

// ResolveOperation handles GET /admin/registry/operations/:op.
func (h *AdminHandler) ResolveOperation(c *fiber.Ctx) error {
	module, ok := h.registry.ModuleOf(registry.OpID(c.Params("op")))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "operation not registered")
	}
	return respond(c, fiber.Map{"module": module})
}

// ListAudit handles GET /admin/audit/:event_id.
func (h *AdminHandler) ListAudit(c *fiber.Ctx) error {
	eventID, err := strconv.ParseInt(c.Params("event_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)
	records, err := h.audits.ListByEvent(c.UserContext(), eventID, limit, offset)
	if err != nil {
		return err
	}
	return respond(c, records)
}
