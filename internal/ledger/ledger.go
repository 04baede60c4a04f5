package ledger

import (
	"time"

	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/state"
	"github.com/spec-kit/ticket-exchange/internal/token"
)

// Ledger maintains ticket assets: deterministic minting, the
// valid→used / valid→refunded status machine, and transfer bookkeeping.
// Ownership itself lives in the external asset registry; the ledger wraps it
// so every transfer also updates the per-asset counters in shared state.
type Ledger struct {
	assets token.AssetRegistry
}

// New constructs a ledger over the ownership collaborator.
func New(assets token.AssetRegistry) *Ledger {
	return &Ledger{assets: assets}
}

// Mint allocates the next deterministic ID for the event/tier, registers
// ownership, and records the asset with its metadata. IDs are strictly
// increasing with purchase order within a tier.
func (l *Ledger) Mint(st *state.State, to domain.Identity, tier int64, price int64, meta domain.AssetMetadata, now time.Time) (int64, error) {
	serial := st.NextSerial[tier]
	tokenID, err := EncodeTokenID(st.Event.ID, tier, serial)
	if err != nil {
		return 0, err
	}
	if err := l.assets.Mint(to, tokenID); err != nil {
		return 0, domain.NewResourceError("asset mint failed", err)
	}
	st.NextSerial[tier] = serial + 1
	st.Assets[tokenID] = &domain.TicketAsset{
		ID:            tokenID,
		Tier:          tier,
		OriginalPrice: price,
		PurchasedAt:   now,
		Status:        domain.AssetStatusValid,
		SerialNumber:  serial,
		Metadata:      meta,
	}
	st.MintOrder = append(st.MintOrder, tokenID)
	return tokenID, nil
}

// OwnerOf resolves the current holder of an asset.
func (l *Ledger) OwnerOf(tokenID int64) (domain.Identity, error) {
	owner, err := l.assets.OwnerOf(tokenID)
	if err != nil {
		return domain.ZeroIdentity, domain.NewValidationError("unknown asset", map[string]any{"token_id": tokenID})
	}
	return owner, nil
}

// Transfer moves custody of a non-terminal asset and bumps its transfer
// counter for marketplace analytics.
func (l *Ledger) Transfer(st *state.State, from, to domain.Identity, tokenID int64) error {
	asset, ok := st.Assets[tokenID]
	if !ok {
		return domain.NewValidationError("unknown asset", map[string]any{"token_id": tokenID})
	}
	if asset.Status.Terminal() {
		return domain.NewStateConflictError("asset in terminal state", map[string]any{"token_id": tokenID, "status": asset.Status})
	}
	if err := l.assets.Transfer(from, to, tokenID); err != nil {
		return domain.NewResourceError("asset transfer failed", err)
	}
	asset.TransferCount++
	return nil
}

// MarkUsed flips a valid asset to used. Terminal states are final.
func (l *Ledger) MarkUsed(st *state.State, tokenID int64) error {
	return l.transition(st, tokenID, domain.AssetStatusUsed)
}

// MarkRefunded flips a valid asset to refunded. Terminal states are final.
func (l *Ledger) MarkRefunded(st *state.State, tokenID int64) error {
	return l.transition(st, tokenID, domain.AssetStatusRefunded)
}

func (l *Ledger) transition(st *state.State, tokenID int64, to domain.AssetStatus) error {
	asset, ok := st.Assets[tokenID]
	if !ok {
		return domain.NewValidationError("unknown asset", map[string]any{"token_id": tokenID})
	}
	if asset.Status != domain.AssetStatusValid {
		return domain.NewStateConflictError("asset not in valid state", map[string]any{
			"token_id": tokenID,
			"status":   asset.Status,
		})
	}
	asset.Status = to
	return nil
}
