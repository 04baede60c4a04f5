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

// Market runs the controlled resale marketplace. A listed asset is always in
// the module's custody; an asset has at most one active listing.
type Market struct {
	platform Platform
	bank     token.CurrencyLedger
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// NewMarket constructs the module.
func NewMarket(platform Platform, bank token.CurrencyLedger, l *ledger.Ledger, logger *zap.Logger) *Market {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Market{platform: platform, bank: bank, ledger: l, logger: logger}
}

// Name implements registry.Module.
func (m *Market) Name() string { return "market" }

// Operations implements registry.Module.
func (m *Market) Operations() map[registry.OpID]registry.Handler {
	return map[registry.OpID]registry.Handler{
		OpListResale:   m.list,
		OpBuyResale:    m.buy,
		OpCancelResale: m.cancel,
	}
}

// Init implements registry.Module. Market has no initialization state.
func (m *Market) Init(context.Context, *state.State, *registry.Call) error { return nil }

// ListArgs offers an owned asset for resale.
type ListArgs struct {
	TokenID int64
	Price   int64
}

func (m *Market) list(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[ListArgs](call)
	if err != nil {
		return nil, err
	}
	if err := requireActiveEvent(st); err != nil {
		return nil, err
	}
	if !st.Resale.Allowed {
		return nil, domain.NewStateConflictError("resale disabled for event", nil)
	}
	if st.Resale.TimingRestricted && !call.Now.Before(st.Event.Date.Add(-st.Resale.Blackout)) {
		return nil, domain.NewStateConflictError("inside pre-event blackout window", map[string]any{
			"blackout_from": st.Event.Date.Add(-st.Resale.Blackout),
		})
	}
	asset, ok := st.Assets[args.TokenID]
	if !ok {
		return nil, domain.NewValidationError("unknown asset", map[string]any{"token_id": args.TokenID})
	}
	if asset.Status != domain.AssetStatusValid {
		return nil, domain.NewStateConflictError("asset not resellable", map[string]any{
			"token_id": args.TokenID,
			"status":   asset.Status,
		})
	}
	if listing, listed := st.Listings[args.TokenID]; listed && listing.Active {
		return nil, domain.NewStateConflictError("asset already listed", map[string]any{"token_id": args.TokenID})
	}
	owner, err := m.ledger.OwnerOf(args.TokenID)
	if err != nil {
		return nil, err
	}
	if owner != call.Caller {
		return nil, domain.NewAuthorizationError("caller does not own asset")
	}
	maxPrice := asset.OriginalPrice + feeOf(asset.OriginalPrice, st.Resale.MaxMarkupBps)
	if args.Price < asset.OriginalPrice || args.Price > maxPrice {
		return nil, domain.NewValidationError("price outside allowed range", map[string]any{
			"price": args.Price,
			"min":   asset.OriginalPrice,
			"max":   maxPrice,
		})
	}

	// Custody moves to the module for the lifetime of the listing.
	if err := m.ledger.Transfer(st, call.Caller, m.platform.MarketAccount, args.TokenID); err != nil {
		return nil, err
	}
	st.Listings[args.TokenID] = &domain.ResaleListing{
		TokenID:  args.TokenID,
		Seller:   call.Caller,
		Price:    args.Price,
		Active:   true,
		ListedAt: call.Now,
	}

	call.Emit(audit.RecordResaleListed, st.Event.ID, map[string]any{
		"token_id": args.TokenID,
		"seller":   call.Caller,
		"price":    args.Price,
	})
	return nil, nil
}

// BuyArgs purchases an active listing.
type BuyArgs struct {
	TokenID int64
}

// BuyResult reports the resale money split.
type BuyResult struct {
	Price        int64 `json:"price"`
	PlatformFee  int64 `json:"platform_fee"`
	OrganizerFee int64 `json:"organizer_fee"`
	SellerAmount int64 `json:"seller_amount"`
}

func (m *Market) buy(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[BuyArgs](call)
	if err != nil {
		return nil, err
	}
	listing, ok := st.Listings[args.TokenID]
	if !ok || !listing.Active {
		return nil, domain.NewStateConflictError("listing inactive", map[string]any{"token_id": args.TokenID})
	}

	price := listing.Price
	organizerFee := feeOf(price, st.Resale.OrganizerFeeBps)
	platformFee := feeOf(price, m.platform.ResaleFeeBps)
	sellerAmount := price - organizerFee - platformFee

	if err := m.bank.Transfer(call.Caller, m.platform.SystemAccount, price); err != nil {
		return nil, domain.NewResourceError("payment transfer failed", err)
	}
	if err := m.bank.Transfer(m.platform.SystemAccount, m.platform.Treasury, platformFee); err != nil {
		return nil, domain.NewResourceError("platform fee transfer failed", err)
	}
	if err := m.bank.Transfer(m.platform.SystemAccount, st.Event.Organizer, organizerFee); err != nil {
		return nil, domain.NewResourceError("organizer fee transfer failed", err)
	}
	if err := m.bank.Transfer(m.platform.SystemAccount, listing.Seller, sellerAmount); err != nil {
		return nil, domain.NewResourceError("seller payout failed", err)
	}

	if err := m.ledger.Transfer(st, m.platform.MarketAccount, call.Caller, args.TokenID); err != nil {
		return nil, err
	}
	seller := listing.Seller
	delete(st.Listings, args.TokenID)

	if asset := st.Assets[args.TokenID]; asset != nil {
		asset.ResaleCount++
	}
	st.Market.SellerRevenue[seller] += sellerAmount
	st.Market.TotalVolume += price

	call.Emit(audit.RecordResaleSold, st.Event.ID, map[string]any{
		"token_id":      args.TokenID,
		"seller":        seller,
		"buyer":         call.Caller,
		"price":         price,
		"platform_fee":  platformFee,
		"organizer_fee": organizerFee,
		"seller_amount": sellerAmount,
	})
	m.logger.Info("resale completed",
		zap.Int64("token_id", args.TokenID),
		zap.Int64("price", price),
	)
	return BuyResult{
		Price:        price,
		PlatformFee:  platformFee,
		OrganizerFee: organizerFee,
		SellerAmount: sellerAmount,
	}, nil
}

// CancelArgs withdraws an active listing.
type CancelArgs struct {
	TokenID int64
}

func (m *Market) cancel(_ context.Context, st *state.State, call *registry.Call) (any, error) {
	args, err := argsAs[CancelArgs](call)
	if err != nil {
		return nil, err
	}
	listing, ok := st.Listings[args.TokenID]
	if !ok || !listing.Active {
		return nil, domain.NewStateConflictError("listing inactive", map[string]any{"token_id": args.TokenID})
	}
	if listing.Seller != call.Caller {
		return nil, domain.NewAuthorizationError("only the seller may cancel the listing")
	}

	if err := m.ledger.Transfer(st, m.platform.MarketAccount, call.Caller, args.TokenID); err != nil {
		return nil, err
	}
	delete(st.Listings, args.TokenID)

	call.Emit(audit.RecordResaleCancelled, st.Event.ID, map[string]any{
		"token_id": args.TokenID,
		"seller":   call.Caller,
	})
	return nil, nil
}
