package domain

import "time"

// EventRecord is the single event an engine instance operates on. It is
// created once via initialize and only ever flagged terminal, never deleted.
type EventRecord struct {
	ID          int64
	Name        string
	Description string
	Venue       string
	Date        time.Time
	Organizer   Identity
	Category    string
	Cancelled   bool
	Completed   bool
	CreatedAt   time.Time
}

// Initialized reports whether initialize has already run for this instance.
// The organizer field doubles as the telltale: it is never set to the zero
// identity by a successful initialize.
func (e *EventRecord) Initialized() bool {
	return !e.Organizer.IsZero()
}

// Active reports whether the event can still sell and resell tickets.
func (e *EventRecord) Active() bool {
	return e.Initialized() && !e.Cancelled && !e.Completed
}

// TicketTier is one price band of an event.
type TicketTier struct {
	Name           string
	Price          int64
	Available      int64
	Sold           int64
	MaxPerPurchase int64
	Active         bool
	Description    string
	Benefits       []string
}

// Remaining returns the units still sellable in this tier.
func (t *TicketTier) Remaining() int64 {
	return t.Available - t.Sold
}

// ResaleConfig carries the event-level resale rules set at initialize.
type ResaleConfig struct {
	Allowed         bool
	MaxMarkupBps    int64
	OrganizerFeeBps int64
	// TimingRestricted blocks new listings within Blackout of the event start.
	TimingRestricted bool
	Blackout         time.Duration
}

// MarketStats aggregates resale analytics maintained by the marketplace.
type MarketStats struct {
	TotalVolume   int64
	SellerRevenue map[Identity]int64
}
