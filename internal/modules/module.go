package modules

import (
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// Operation IDs routed by the dispatcher.
const (
	OpInitialize    registry.OpID = "event.initialize"
	OpAddTier       registry.OpID = "event.addTier"
	OpUpdateTier    registry.OpID = "event.updateTier"
	OpCancelEvent   registry.OpID = "event.cancel"
	OpCompleteEvent registry.OpID = "event.complete"
	OpClearTiers    registry.OpID = "event.clearTiers"

	OpPurchase    registry.OpID = "tickets.purchase"
	OpWithdraw    registry.OpID = "tickets.withdraw"
	OpRefundClaim registry.OpID = "tickets.refund"
	OpRefundSweep registry.OpID = "tickets.refundSweep"
	OpCollectFees registry.OpID = "tickets.collectFees"

	OpListResale   registry.OpID = "market.list"
	OpBuyResale    registry.OpID = "market.purchase"
	OpCancelResale registry.OpID = "market.cancel"

	OpAddStaffWithRole  registry.OpID = "staff.addWithRole"
	OpRemoveStaffRole   registry.OpID = "staff.removeRole"
	OpAddStaff          registry.OpID = "staff.add"
	OpRemoveStaff       registry.OpID = "staff.remove"
	OpUpdateStatus      registry.OpID = "staff.updateStatus"
	OpBatchUpdateStatus registry.OpID = "staff.batchUpdateStatus"
)

// Platform carries deployment-level parameters shared by the modules:
// custody identities and the fee schedule in basis points.
type Platform struct {
	// SystemAccount holds escrowed purchase funds until withdrawal or refund.
	SystemAccount domain.Identity
	// Treasury receives platform fees.
	Treasury domain.Identity
	// MarketAccount holds custody of listed assets.
	MarketAccount domain.Identity

	PurchaseFeeBps int64
	ResaleFeeBps   int64
}

const bpsDenominator = 10_000

// feeOf computes amount*bps/10000 with floor division.
func feeOf(amount, bps int64) int64 {
	return amount * bps / bpsDenominator
}

// argsAs coerces the call's argument payload into the handler's input type.
func argsAs[T any](call *registry.Call) (T, error) {
	args, ok := call.Args.(T)
	if !ok {
		var zero T
		return zero, domain.NewValidationError("invalid arguments for operation", map[string]any{"op": call.Op})
	}
	return args, nil
}
