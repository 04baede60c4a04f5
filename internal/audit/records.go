package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// RecordType enumerates externally observable audit records.
type RecordType string

const (
	RecordEventInitialized RecordType = "event_initialized"
	RecordTierAdded        RecordType = "tier_added"
	RecordTierUpdated      RecordType = "tier_updated"
	RecordEventCancelled   RecordType = "event_cancelled"
	RecordEventCompleted   RecordType = "event_completed"
	RecordTicketPurchased  RecordType = "ticket_purchased"
	RecordFundsWithdrawn   RecordType = "funds_withdrawn"
	RecordRefundProcessed  RecordType = "refund_processed"
	RecordResaleListed     RecordType = "resale_listed"
	RecordResaleSold       RecordType = "resale_sold"
	RecordResaleCancelled  RecordType = "resale_cancelled"
	RecordRoleAssigned     RecordType = "role_assigned"
	RecordRoleRemoved      RecordType = "role_removed"
	RecordStatusUpdated    RecordType = "status_updated"
	RecordRegistryChanged  RecordType = "registry_changed"
	RecordEventReset       RecordType = "event_reset"
)

// Record is one append-only audit entry carrying the identifiers, amounts,
// and identities off-chain tooling needs to reconstruct state.
type Record struct {
	ID      string          `json:"id"`
	Type    RecordType      `json:"type"`
	EventID int64           `json:"event_id"`
	Actor   domain.Identity `json:"actor"`
	At      time.Time       `json:"at"`
	Fields  map[string]any  `json:"fields,omitempty"`
}

// NewRecord stamps a record with a fresh UUID.
func NewRecord(t RecordType, eventID int64, actor domain.Identity, at time.Time, fields map[string]any) Record {
	return Record{
		ID:      uuid.NewString(),
		Type:    t,
		EventID: eventID,
		Actor:   actor,
		At:      at,
		Fields:  fields,
	}
}
