package state

import (
	"sync"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// State is the one canonical structure every handler module reads and writes.
// No module holds private persistent state. Schema evolution is append-only:
// new fields go at the end, existing fields are never reordered or retyped,
// so replacing a module never invalidates what another module stored.
type State struct {
	Event domain.EventRecord
	Tiers []domain.TicketTier

	// Assets maps token ID to the minted ticket. MintOrder preserves the
	// minting sequence for bounded sweeps.
	Assets    map[int64]*domain.TicketAsset
	MintOrder []int64

	// NextSerial tracks the next deterministic sequence number per tier.
	NextSerial map[int64]int64

	// Escrow holds per-organizer balances credited on purchase and zeroed
	// atomically on withdrawal.
	Escrow map[domain.Identity]int64

	Listings map[int64]*domain.ResaleListing

	StaffRoles map[domain.Identity]domain.StaffRole
	// Whitelist mirrors legacy SCANNER grants as booleans for callers that
	// predate the role hierarchy.
	Whitelist map[domain.Identity]bool

	// Attendees counts tickets bought per identity for O(1) analytics.
	Attendees map[domain.Identity]int64

	Resale domain.ResaleConfig
	Market domain.MarketStats

	// Admin owns the module registry's mutating surface.
	Admin domain.Identity

	// PlatformFees accrues purchase fees held in system custody. They stay
	// there until collected after completion, so a cancelled event's custody
	// always covers full-price refunds.
	PlatformFees int64
}

// New returns an empty state with all containers allocated.
func New() *State {
	return &State{
		Assets:     make(map[int64]*domain.TicketAsset),
		NextSerial: make(map[int64]int64),
		Escrow:     make(map[domain.Identity]int64),
		Listings:   make(map[int64]*domain.ResaleListing),
		StaffRoles: make(map[domain.Identity]domain.StaffRole),
		Whitelist:  make(map[domain.Identity]bool),
		Attendees:  make(map[domain.Identity]int64),
		Market:     domain.MarketStats{SellerRevenue: make(map[domain.Identity]int64)},
	}
}

// Tier returns a reference into the tier array, or nil when out of range.
func (s *State) Tier(idx int64) *domain.TicketTier {
	if idx < 0 || idx >= int64(len(s.Tiers)) {
		return nil
	}
	return &s.Tiers[idx]
}

// Role returns the effective staff role for an identity. The organizer always
// holds MANAGER.
func (s *State) Role(id domain.Identity) domain.StaffRole {
	if !id.IsZero() && id == s.Event.Organizer {
		return domain.RoleManager
	}
	return s.StaffRoles[id]
}

// Clone deep-copies the state so a dispatch can mutate freely and be thrown
// away on failure.
func (s *State) Clone() *State {
	c := &State{
		Event:      s.Event,
		Tiers:      make([]domain.TicketTier, len(s.Tiers)),
		Assets:     make(map[int64]*domain.TicketAsset, len(s.Assets)),
		MintOrder:  append([]int64(nil), s.MintOrder...),
		NextSerial: make(map[int64]int64, len(s.NextSerial)),
		Escrow:     make(map[domain.Identity]int64, len(s.Escrow)),
		Listings:   make(map[int64]*domain.ResaleListing, len(s.Listings)),
		StaffRoles: make(map[domain.Identity]domain.StaffRole, len(s.StaffRoles)),
		Whitelist:  make(map[domain.Identity]bool, len(s.Whitelist)),
		Attendees:  make(map[domain.Identity]int64, len(s.Attendees)),
		Resale:     s.Resale,
		Market: domain.MarketStats{
			TotalVolume:   s.Market.TotalVolume,
			SellerRevenue: make(map[domain.Identity]int64, len(s.Market.SellerRevenue)),
		},
		Admin:        s.Admin,
		PlatformFees: s.PlatformFees,
	}
	for i := range s.Tiers {
		c.Tiers[i] = s.Tiers[i]
		c.Tiers[i].Benefits = append([]string(nil), s.Tiers[i].Benefits...)
	}
	for id, a := range s.Assets {
		copied := *a
		c.Assets[id] = &copied
	}
	for k, v := range s.NextSerial {
		c.NextSerial[k] = v
	}
	for k, v := range s.Escrow {
		c.Escrow[k] = v
	}
	for id, l := range s.Listings {
		copied := *l
		c.Listings[id] = &copied
	}
	for k, v := range s.StaffRoles {
		c.StaffRoles[k] = v
	}
	for k, v := range s.Whitelist {
		c.Whitelist[k] = v
	}
	for k, v := range s.Attendees {
		c.Attendees[k] = v
	}
	for k, v := range s.Market.SellerRevenue {
		c.Market.SellerRevenue[k] = v
	}
	return c
}

// Store guards the current committed state. Mutating dispatches work on a
// clone and swap it in on success; readers always see the last commit.
type Store struct {
	mu  sync.RWMutex
	cur *State
}

// NewStore wraps an initial state.
func NewStore(initial *State) *Store {
	if initial == nil {
		initial = New()
	}
	return &Store{cur: initial}
}

// Begin returns a working clone of the committed state.
func (s *Store) Begin() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Commit installs the working state as the new committed state.
func (s *Store) Commit(next *State) {
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
}

// View runs fn against the committed state under a read lock. fn must not
// mutate or retain the state.
func (s *Store) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.cur)
}
