package modules

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/ledger"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/state"
	"github.com/spec-kit/ticket-exchange/internal/token"
)

// Sales sells tickets into escrow, pays organizers out after completion, and
// refunds buyers after cancellation.
type Sales struct {
	platform Platform
	bank     token.CurrencyLedger
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// NewSales constructs the module.
func NewSales(platform Platform, bank token.CurrencyLedger, l *ledger.Ledger, logger *zap.Logger) *Sales {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sales{platform: platform, bank: bank, ledger: l, logger: logger}
}

// Name implements registry.Module.
func (m *Sales) Name() string { return "sales" }

// Operations implements registry.Module.
func (m *Sales) Operations() map[registry.OpID]registry.Handler {
	return map[registry.OpID]registry.Handler{
		OpPurchase:    m.purchase,
		OpWithdraw:    m.withdraw,
		OpRefundClaim: m.emergencyRefund,
		OpRefundSweep: m.refundSweep,
		OpCollectFees: m.collectFees,
	}
}

// Init implements registry.Module. Sales has no initialization state.
func (m *Sales) Init(context.Context, *state.State, *registry.Call) error { return nil }

// PurchaseArgs buys quantity tickets from one tier.
type PurchaseArgs struct {
	Tier     int64
	Quantity int64
}

// PurchaseResult reports the minted assets and the money split.
type PurchaseResult struct {
	TokenIDs     []int64 `json:"token_ids"`
	TotalPrice   int64   `json:"total_price"`
	PlatformFee  int64   `json:"platform_fee"`
	EscrowAmount int64   `json:"escrow_amount"`
}

func (m *Sales) purchase(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[PurchaseArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireActiveEvent(st); err != nil {
		return nil, err
	}
	if !call.Now.Before(st.Event.Date) {
		return nil, domain.NewStateConflictError("event already started", map[string]any{"date": st.Event.Date})
	}
	tier := st.Tier(args.Tier)
	if tier == nil {
		return nil, domain.NewValidationError("unknown tier", map[string]any{"tier": args.Tier})
	}
	if !tier.Active {
		return nil, domain.NewStateConflictError("tier inactive", map[string]any{"tier": args.Tier})
	}
	if args.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive", map[string]any{"quantity": args.Quantity})
	}
	if args.Quantity > tier.MaxPerPurchase {
		return nil, domain.NewValidationError("quantity above per-purchase cap", map[string]any{
			"quantity": args.Quantity,
			"max":      tier.MaxPerPurchase,
		})
	}
	if args.Quantity > tier.Remaining() {
		return nil, domain.NewValidationError("quantity above remaining capacity", map[string]any{
			"quantity":  args.Quantity,
			"remaining": tier.Remaining(),
		})
	}

	totalPrice := tier.Price * args.Quantity
	if err := m.bank.Transfer(call.Caller, m.platform.SystemAccount, totalPrice); err != nil {
		return nil, domain.NewResourceError("payment transfer failed", err)
	}
	// The fee stays in system custody until collected after completion, so
	// a cancelled event's custody always covers full-price refunds.
	platformFee := feeOf(totalPrice, m.platform.PurchaseFeeBps)
	escrowAmount := totalPrice - platformFee
	st.PlatformFees += platformFee
	st.Escrow[st.Event.Organizer] += escrowAmount

	meta := domain.AssetMetadata{
		EventName: st.Event.Name,
		Venue:     st.Event.Venue,
		EventDate: st.Event.Date,
		TierName:  tier.Name,
		Organizer: st.Event.Organizer,
	}
	tokenIDs := make([]int64, 0, args.Quantity)
	for i := int64(0); i < args.Quantity; i++ {
		tokenID, err := m.ledger.Mint(st, call.Caller, args.Tier, tier.Price, meta, call.Now)
		if err != nil {
			return nil, err
		}
		tokenIDs = append(tokenIDs, tokenID)
		tier.Sold++
	}
	st.Attendees[call.Caller] += args.Quantity

	call.Emit(audit.RecordTicketPurchased, st.Event.ID, map[string]any{
		"tier":          args.Tier,
		"quantity":      args.Quantity,
		"token_ids":     tokenIDs,
		"total_price":   totalPrice,
		"platform_fee":  platformFee,
		"escrow_amount": escrowAmount,
		"buyer":         call.Caller,
	})
	return PurchaseResult{
		TokenIDs:     tokenIDs,
		TotalPrice:   totalPrice,
		PlatformFee:  platformFee,
		EscrowAmount: escrowAmount,
	}, nil
}

func (m *Sales) withdraw(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	if err := requireOrganizer(st, call.Caller); err != nil {
		return nil, err
	}
	if st.Event.Cancelled {
		return nil, domain.NewStateConflictError("event cancelled", nil)
	}
	if !st.Event.Completed {
		return nil, domain.NewStateConflictError("event not completed", nil)
	}
	amount := st.Escrow[call.Caller]
	if amount <= 0 {
		return nil, domain.NewResourceError("no escrow balance to withdraw", nil)
	}

	// Zero the balance before the external transfer so a re-entrant
	// withdrawal sees nothing left to take.
	st.Escrow[call.Caller] = 0
	if err := m.bank.Transfer(m.platform.SystemAccount, call.Caller, amount); err != nil {
		return nil, domain.NewResourceError("escrow payout failed", err)
	}

	call.Emit(audit.RecordFundsWithdrawn, st.Event.ID, map[string]any{
		"organizer": call.Caller,
		"amount":    amount,
	})
	m.logger.Info("organizer funds withdrawn",
		zap.Int64("event_id", st.Event.ID),
		zap.Int64("amount", amount),
	)
	return amount, nil
}

// collectFees moves accrued purchase fees to the treasury. Admin only, and
// only once the event completed: a cancelled event's fees stay in custody
// backing refunds.
func (m *Sales) collectFees(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	if call.Caller != st.Admin {
		return nil, domain.NewAuthorizationError("admin identity required")
	}
	if st.Event.Cancelled {
		return nil, domain.NewStateConflictError("event cancelled", nil)
	}
	if !st.Event.Completed {
		return nil, domain.NewStateConflictError("event not completed", nil)
	}
	amount := st.PlatformFees
	if amount <= 0 {
		return nil, domain.NewResourceError("no platform fees accrued", nil)
	}

	st.PlatformFees = 0
	if err := m.bank.Transfer(m.platform.SystemAccount, m.platform.Treasury, amount); err != nil {
		return nil, domain.NewResourceError("fee collection failed", err)
	}

	call.Emit(audit.RecordFundsWithdrawn, st.Event.ID, map[string]any{
		"treasury": m.platform.Treasury,
		"amount":   amount,
		"platform": true,
	})
	return amount, nil
}

// RefundArgs claims the refund for one owned asset.
type RefundArgs struct {
	TokenID int64
}

func (m *Sales) emergencyRefund(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[RefundArgs](call)
	if err != nil {
		return nil, err
	}
	owner, err := m.ledger.OwnerOf(args.TokenID)
	if err != nil {
		return nil, err
	}
	if owner != call.Caller {
		return nil, domain.NewAuthorizationError("caller does not own asset")
	}
	asset, ok := st.Assets[args.TokenID]
	if !ok {
		return nil, domain.NewValidationError("unknown asset", map[string]any{"token_id": args.TokenID})
	}
	// MarkRefunded rejects used or already-refunded assets.
	if err := m.ledger.MarkRefunded(st, args.TokenID); err != nil {
		return nil, err
	}
	if err := m.processRefund(st, call, call.Caller, asset.OriginalPrice, args.TokenID); err != nil {
		return nil, err
	}
	return asset.OriginalPrice, nil
}

// processRefund pays amount out of system custody. It is reachable only from
// ledger-driven refund flows inside this module, mirroring the guard that the
// asset ledger is its sole caller, and requires a cancelled event.
func (m *Sales) processRefund(st *state.State, call *registry.Call, to domain.Identity, amount int64, tokenID int64) error {
	if !st.Event.Cancelled {
		return domain.NewStateConflictError("event not cancelled", nil)
	}
	if m.bank.BalanceOf(m.platform.SystemAccount) < amount {
		return domain.NewResourceError("insufficient custody balance for refund", nil)
	}
	if err := m.bank.Transfer(m.platform.SystemAccount, to, amount); err != nil {
		return domain.NewResourceError("refund transfer failed", err)
	}
	call.Emit(audit.RecordRefundProcessed, st.Event.ID, map[string]any{
		"token_id": tokenID,
		"to":       to,
		"amount":   amount,
	})
	return nil
}

// SweepArgs bounds one best-effort refund pass. Claim-based refund remains
// the reliable path; the sweep only spares buyers the claim call when custody
// still covers them.
type SweepArgs struct {
	Limit int
}

// SweepResult reports how far the pass got.
type SweepResult struct {
	Refunded  []int64 `json:"refunded"`
	Exhausted bool    `json:"exhausted"`
}

func (m *Sales) refundSweep(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[SweepArgs](call)
	if err != nil {
		return nil, err
	}
	if call.Caller != st.Event.Organizer && call.Caller != st.Admin {
		return nil, domain.NewAuthorizationError("organizer or admin identity required")
	}
	if !st.Event.Cancelled {
		return nil, domain.NewStateConflictError("event not cancelled", nil)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 100
	}

	result := SweepResult{}
	for _, tokenID := range st.MintOrder {
		if len(result.Refunded) >= limit {
			break
		}
		asset := st.Assets[tokenID]
		if asset == nil || asset.Status != domain.AssetStatusValid {
			continue
		}
		// Listed assets sit in marketplace custody; their holders claim
		// individually after cancelling the listing.
		if listing, listed := st.Listings[tokenID]; listed && listing.Active {
			continue
		}
		owner, err := m.ledger.OwnerOf(tokenID)
		if err != nil {
			continue
		}
		if m.bank.BalanceOf(m.platform.SystemAccount) < asset.OriginalPrice {
			result.Exhausted = true
			break
		}
		if err := m.ledger.MarkRefunded(st, tokenID); err != nil {
			continue
		}
		if err := m.processRefund(st, call, owner, asset.OriginalPrice, tokenID); err != nil {
			return nil, err
		}
		result.Refunded = append(result.Refunded, tokenID)
	}
	return result, nil
}
