package ledger

import "github.com/spec-kit/ticket-exchange/internal/domain"

// Token IDs pack provenance into decimal digits:
//
//	id = 1e9 + eventID*1e6 + (tier+1)*1e5 + serial
//
// so any observer can recover event, tier, and serial from the number alone.
// Each component is range-checked; nothing relies on implicit truncation.
const (
	idBase    = 1_000_000_000
	maxEvent  = 999
	maxTier   = 9
	maxSerial = 99_999
)

// EncodeTokenID packs event, tier, and serial into a deterministic token ID.
func EncodeTokenID(eventID, tier, serial int64) (int64, error) {
	if eventID < 0 || eventID > maxEvent {
		return 0, domain.NewBoundsError("event id out of range", map[string]any{"event_id": eventID, "max": maxEvent})
	}
	if tier < 0 || tier > maxTier {
		return 0, domain.NewBoundsError("tier out of range", map[string]any{"tier": tier, "max": maxTier})
	}
	if serial < 0 || serial > maxSerial {
		return 0, domain.NewBoundsError("serial out of range", map[string]any{"serial": serial, "max": maxSerial})
	}
	return idBase + eventID*1_000_000 + (tier+1)*100_000 + serial, nil
}

// DecodeTokenID recovers event, tier, and serial from a token ID.
func DecodeTokenID(id int64) (eventID, tier, serial int64, err error) {
	rem := id - idBase
	if rem < 100_000 {
		return 0, 0, 0, domain.NewBoundsError("token id below deterministic range", map[string]any{"token_id": id})
	}
	serial = rem % 100_000
	packed := rem / 100_000 // eventID*10 + tier + 1
	tier = (packed - 1) % 10
	eventID = (packed - 1) / 10
	if eventID > maxEvent {
		return 0, 0, 0, domain.NewBoundsError("token id above deterministic range", map[string]any{"token_id": id})
	}
	return eventID, tier, serial, nil
}
