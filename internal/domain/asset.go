package domain

import "time"

// AssetStatus enumerates ticket asset lifecycle states.
type AssetStatus string

const (
	AssetStatusValid    AssetStatus = "VALID"
	AssetStatusUsed     AssetStatus = "USED"
	AssetStatusRefunded AssetStatus = "REFUNDED"
)

// Terminal reports whether the status blocks further transitions.
func (s AssetStatus) Terminal() bool {
	return s == AssetStatusUsed || s == AssetStatusRefunded
}

// TicketAsset is one minted ticket. The ID is deterministic: any observer can
// recover event, tier, and serial from the number alone.
type TicketAsset struct {
	ID            int64
	Tier          int64
	OriginalPrice int64
	PurchasedAt   time.Time
	Status        AssetStatus
	TransferCount int64
	SerialNumber  int64
	ResaleCount   int64
	Metadata      AssetMetadata
}

// AssetMetadata is the descriptive payload attached at mint time.
type AssetMetadata struct {
	EventName string
	Venue     string
	EventDate time.Time
	TierName  string
	Organizer Identity
}

// ResaleListing is an active marketplace offer. While one exists for an
// asset, custody of that asset is held by the marketplace module.
type ResaleListing struct {
	TokenID  int64
	Seller   Identity
	Price    int64
	Active   bool
	ListedAt time.Time
}
