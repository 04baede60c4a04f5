package modules

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/ledger"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

// Staff assigns hierarchical roles and scans tickets. Roles are totally
// ordered, so one comparison grants every junior permission to a senior role.
type Staff struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewStaff constructs the module.
func NewStaff(l *ledger.Ledger, logger *zap.Logger) *Staff {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Staff{ledger: l, logger: logger}
}

// Name implements registry.Module.
func (m *Staff) Name() string { return "staff" }

// Operations implements registry.Module.
func (m *Staff) Operations() map[registry.OpID]registry.Handler {
	return map[registry.OpID]registry.Handler{
		OpAddStaffWithRole:  m.addWithRole,
		OpRemoveStaffRole:   m.removeRole,
		OpAddStaff:          m.addLegacy,
		OpRemoveStaff:       m.removeLegacy,
		OpUpdateStatus:      m.updateStatus,
		OpBatchUpdateStatus: m.batchUpdateStatus,
	}
}

// Init implements registry.Module. Staff has no initialization state.
func (m *Staff) Init(context.Context, *state.State, *registry.Call) error { return nil }

// RoleArgs assigns a role to an identity.
type RoleArgs struct {
	Staff domain.Identity
	Role  domain.StaffRole
}

func (m *Staff) addWithRole(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[RoleArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireRole(st, call.Caller, domain.RoleManager); err != nil {
		return nil, err
	}
	if args.Staff.IsZero() {
		return nil, domain.NewValidationError("staff identity required", nil)
	}
	if args.Role < domain.RoleScanner || args.Role > domain.RoleManager {
		return nil, domain.NewValidationError("role out of range", map[string]any{"role": args.Role})
	}
	// Only the organizer may mint new managers, so managers cannot
	// escalate each other laterally.
	if args.Role == domain.RoleManager && call.Caller != st.Event.Organizer {
		return nil, domain.NewAuthorizationError("only the organizer may assign MANAGER")
	}

	st.StaffRoles[args.Staff] = args.Role
	call.Emit(audit.RecordRoleAssigned, st.Event.ID, map[string]any{
		"staff": args.Staff,
		"role":  args.Role.String(),
	})
	return nil, nil
}

// RemoveRoleArgs strips an identity's role.
type RemoveRoleArgs struct {
	Staff domain.Identity
}

func (m *Staff) removeRole(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[RemoveRoleArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireRole(st, call.Caller, domain.RoleManager); err != nil {
		return nil, err
	}
	current, ok := st.StaffRoles[args.Staff]
	if !ok || current == domain.RoleNone {
		return nil, domain.NewValidationError("identity holds no role", map[string]any{"staff": args.Staff})
	}
	if current == domain.RoleManager && call.Caller != st.Event.Organizer {
		return nil, domain.NewAuthorizationError("only the organizer may remove MANAGER")
	}

	delete(st.StaffRoles, args.Staff)
	delete(st.Whitelist, args.Staff)
	call.Emit(audit.RecordRoleRemoved, st.Event.ID, map[string]any{
		"staff": args.Staff,
		"role":  current.String(),
	})
	return nil, nil
}

// StaffArgs identifies a staff member for the legacy fixed-role surface.
type StaffArgs struct {
	Staff domain.Identity
}

// addLegacy is the pre-hierarchy surface: organizer-only, fixed SCANNER role,
// with the boolean whitelist kept in lockstep for old callers.
func (m *Staff) addLegacy(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[StaffArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if args.Staff.IsZero() {
		return nil, domain.NewValidationError("staff identity required", nil)
	}

	st.StaffRoles[args.Staff] = domain.RoleScanner
	st.Whitelist[args.Staff] = true
	call.Emit(audit.RecordRoleAssigned, st.Event.ID, map[string]any{
		"staff":  args.Staff,
		"role":   domain.RoleScanner.String(),
		"legacy": true,
	})
	return nil, nil
}

func (m *Staff) removeLegacy(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[StaffArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	current, ok := st.StaffRoles[args.Staff]
	if !ok {
		return nil, domain.NewValidationError("identity holds no role", map[string]any{"staff": args.Staff})
	}

	delete(st.StaffRoles, args.Staff)
	delete(st.Whitelist, args.Staff)
	call.Emit(audit.RecordRoleRemoved, st.Event.ID, map[string]any{
		"staff":  args.Staff,
		"role":   current.String(),
		"legacy": true,
	})
	return nil, nil
}

// StatusArgs scans a single ticket.
type StatusArgs struct {
	TokenID int64
}

func (m *Staff) updateStatus(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[StatusArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireRole(st, call.Caller, domain.RoleScanner); err != nil {
		return nil, err
	}
	if err := m.ledger.MarkUsed(st, args.TokenID); err != nil {
		return nil, err
	}
	call.Emit(audit.RecordStatusUpdated, st.Event.ID, map[string]any{
		"token_id": args.TokenID,
		"status":   domain.AssetStatusUsed,
	})
	return nil, nil
}

// BatchStatusArgs scans many tickets, tolerating partial re-scans.
type BatchStatusArgs struct {
	TokenIDs []int64
}

// BatchStatusResult separates scanned tickets from skipped ones.
type BatchStatusResult struct {
	Updated []int64 `json:"updated"`
	Skipped []int64 `json:"skipped"`
}

// batchUpdateStatus skips assets that are missing or no longer valid instead
// of aborting: re-scanning a partially processed batch must not fail it.
func (m *Staff) batchUpdateStatus(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[BatchStatusArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireRole(st, call.Caller, domain.RoleScanner); err != nil {
		return nil, err
	}

	result := BatchStatusResult{}
	for _, tokenID := range args.TokenIDs {
		asset, ok := st.Assets[tokenID]
		if !ok || asset.Status != domain.AssetStatusValid {
			result.Skipped = append(result.Skipped, tokenID)
			continue
		}
		if err := m.ledger.MarkUsed(st, tokenID); err != nil {
			result.Skipped = append(result.Skipped, tokenID)
			continue
		}
		result.Updated = append(result.Updated, tokenID)
		call.Emit(audit.RecordStatusUpdated, st.Event.ID, map[string]any{
			"token_id": tokenID,
			"status":   domain.AssetStatusUsed,
		})
	}
	return result, nil
}

func requireRole(st *state.State, caller domain.Identity, min domain.StaffRole) error {
	if !st.Role(caller).AtLeast(min) {
		return domain.NewAuthorizationError("insufficient staff role")
	}
	return nil
}
