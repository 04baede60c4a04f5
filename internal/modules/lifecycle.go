package modules

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

// completionGracePeriod must elapse past the event start before the organizer
// can mark it completed and unlock withdrawal.
const completionGracePeriod = 24 * time.Hour

// Default resale rules applied at initialize.
const (
	defaultMaxMarkupBps          = 2_000
	defaultOrganizerResaleFeeBps = 250
)

// Lifecycle manages event and tier CRUD plus the cancelled/completed
// transitions.
type Lifecycle struct {
	logger *zap.Logger
}

// NewLifecycle constructs the module.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{logger: logger}
}

// Name implements registry.Module.
func (m *Lifecycle) Name() string { return "lifecycle" }

// Operations implements registry.Module.
func (m *Lifecycle) Operations() map[registry.OpID]registry.Handler {
	return map[registry.OpID]registry.Handler{
		OpInitialize:    m.initialize,
		OpAddTier:       m.addTier,
		OpUpdateTier:    m.updateTier,
		OpCancelEvent:   m.cancelEvent,
		OpCompleteEvent: m.markCompleted,
		OpClearTiers:    m.clearAllTiers,
	}
}

// Init lets a registration batch initialize the event atomically with the
// module wiring. Without arguments it is a no-op.
func (m *Lifecycle) Init(ctx context.Context, st *state.State, call *registry.Call) error {
	if call.Args == nil {
		return nil
	}
	_, err := m.initialize(ctx, st, call)
	return err
}

// InitializeArgs seeds the event record for this engine instance.
type InitializeArgs struct {
	EventID     int64
	Name        string
	Description string
	Venue       string
	Category    string
	Date        time.Time
	// Organizer defaults to the caller when zero.
	Organizer domain.Identity
}

func (m *Lifecycle) initialize(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[InitializeArgs](call)
	if err != nil {
		return nil, err
	}
	// The organizer field is the telltale: a successful initialize never
	// leaves it zero, so a second call always trips here.
	if st.Event.Initialized() {
		return nil, domain.NewStateConflictError("event already initialized", nil)
	}
	organizer := args.Organizer
	if organizer.IsZero() {
		organizer = call.Caller
	}
	if organizer.IsZero() {
		return nil, domain.NewValidationError("organizer identity required", nil)
	}
	if args.Name == "" {
		return nil, domain.NewValidationError("event name required", nil)
	}
	if args.EventID < 0 || args.EventID > 999 {
		return nil, domain.NewBoundsError("event id out of range", map[string]any{"event_id": args.EventID})
	}
	if !args.Date.After(call.Now) {
		return nil, domain.NewValidationError("event date must be in the future", map[string]any{"date": args.Date})
	}

	st.Event = domain.EventRecord{
		ID:          args.EventID,
		Name:        args.Name,
		Description: args.Description,
		Venue:       args.Venue,
		Date:        args.Date,
		Organizer:   organizer,
		Category:    args.Category,
		CreatedAt:   call.Now,
	}
	st.StaffRoles[organizer] = domain.RoleManager
	st.Resale = domain.ResaleConfig{
		Allowed:         true,
		MaxMarkupBps:    defaultMaxMarkupBps,
		OrganizerFeeBps: defaultOrganizerResaleFeeBps,
	}

	call.Emit(audit.RecordEventInitialized, args.EventID, map[string]any{
		"name":      args.Name,
		"venue":     args.Venue,
		"date":      args.Date,
		"organizer": organizer,
	})
	m.logger.Info("event initialized", zap.Int64("event_id", args.EventID), zap.String("organizer", string(organizer)))
	return st.Event, nil
}

// TierArgs describes a tier to add.
type TierArgs struct {
	Name           string
	Price          int64
	Available      int64
	MaxPerPurchase int64
	Description    string
	Benefits       []string
}

func (m *Lifecycle) addTier(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[TierArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if err := requireActiveEvent(st); err != nil {
		return nil, err
	}
	if err := validateTier(args.Price, args.Available, args.MaxPerPurchase); err != nil {
		return nil, err
	}

	st.Tiers = append(st.Tiers, domain.TicketTier{
		Name:           args.Name,
		Price:          args.Price,
		Available:      args.Available,
		MaxPerPurchase: args.MaxPerPurchase,
		Active:         true,
		Description:    args.Description,
		Benefits:       append([]string(nil), args.Benefits...),
	})
	tierIdx := int64(len(st.Tiers) - 1)

	call.Emit(audit.RecordTierAdded, st.Event.ID, map[string]any{
		"tier":      tierIdx,
		"name":      args.Name,
		"price":     args.Price,
		"available": args.Available,
	})
	return tierIdx, nil
}

// UpdateTierArgs mutates an existing tier.
type UpdateTierArgs struct {
	Tier           int64
	Name           string
	Price          int64
	Available      int64
	MaxPerPurchase int64
	Active         bool
	Description    string
	Benefits       []string
}

func (m *Lifecycle) updateTier(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[UpdateTierArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if err := requireActiveEvent(st); err != nil {
		return nil, err
	}
	tier := st.Tier(args.Tier)
	if tier == nil {
		return nil, domain.NewValidationError("unknown tier", map[string]any{"tier": args.Tier})
	}
	if err := validateTier(args.Price, args.Available, args.MaxPerPurchase); err != nil {
		return nil, err
	}
	if args.Available < tier.Sold {
		return nil, domain.NewValidationError("available below sold", map[string]any{
			"available": args.Available,
			"sold":      tier.Sold,
		})
	}

	tier.Name = args.Name
	tier.Price = args.Price
	tier.Available = args.Available
	tier.MaxPerPurchase = args.MaxPerPurchase
	tier.Active = args.Active
	tier.Description = args.Description
	tier.Benefits = append([]string(nil), args.Benefits...)

	call.Emit(audit.RecordTierUpdated, st.Event.ID, map[string]any{
		"tier":      args.Tier,
		"name":      args.Name,
		"price":     args.Price,
		"available": args.Available,
		"active":    args.Active,
	})
	return nil, nil
}

func (m *Lifecycle) cancelEvent(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if st.Event.Cancelled {
		return nil, domain.NewStateConflictError("event already cancelled", nil)
	}
	if st.Event.Completed {
		return nil, domain.NewStateConflictError("event already completed", nil)
	}
	if !call.Now.Before(st.Event.Date) {
		return nil, domain.NewStateConflictError("event already started", map[string]any{"date": st.Event.Date})
	}

	st.Event.Cancelled = true
	call.Emit(audit.RecordEventCancelled, st.Event.ID, map[string]any{"date": st.Event.Date})
	m.logger.Info("event cancelled", zap.Int64("event_id", st.Event.ID))
	return nil, nil
}

func (m *Lifecycle) markCompleted(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if st.Event.Cancelled {
		return nil, domain.NewStateConflictError("event cancelled", nil)
	}
	if st.Event.Completed {
		return nil, domain.NewStateConflictError("event already completed", nil)
	}
	if call.Now.Before(st.Event.Date.Add(completionGracePeriod)) {
		return nil, domain.NewStateConflictError("grace period not elapsed", map[string]any{
			"completable_at": st.Event.Date.Add(completionGracePeriod),
		})
	}

	st.Event.Completed = true
	call.Emit(audit.RecordEventCompleted, st.Event.ID, nil)
	m.logger.Info("event completed", zap.Int64("event_id", st.Event.ID))
	return nil, nil
}

// clearAllTiers resets tier, counter, and attendee state so one engine
// instance can host a new event without leaking the previous one's data.
func (m *Lifecycle) clearAllTiers(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if !st.Event.Cancelled && !st.Event.Completed {
		return nil, domain.NewStateConflictError("event still active", nil)
	}

	previous := st.Event.ID
	st.Tiers = nil
	st.NextSerial = make(map[int64]int64)
	st.Attendees = make(map[domain.Identity]int64)
	st.Event = domain.EventRecord{}

	call.Emit(audit.RecordEventReset, previous, nil)
	return nil, nil
}

func validateTier(price, available, maxPerPurchase int64) error {
	if price <= 0 {
		return domain.NewValidationError("price must be positive", map[string]any{"price": price})
	}
	if available <= 0 {
		return domain.NewValidationError("available must be positive", map[string]any{"available": available})
	}
	if maxPerPurchase <= 0 || maxPerPurchase > available {
		return domain.NewValidationError("max per purchase out of range", map[string]any{
			"max_per_purchase": maxPerPurchase,
			"available":        available,
		})
	}
	return nil
}

func requireOrganizer(st *state.State, caller domain.Identity) error {
	if !st.Event.Initialized() {
		return domain.NewStateConflictError("event not initialized", nil)
	}
	if caller != st.Event.Organizer {
		return domain.NewAuthorizationError("organizer identity required")
	}
	return nil
}

func requireActiveEvent(st *state.State) error {
	if !st.Event.Active() {
		return domain.NewStateConflictError("event not active", nil)
	}
	return nil
}
