package modules

import (
	"testing"
	"time"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

func TestPurchase(t *testing.T) {
	t.Run("splits funds between fee and escrow", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)

		result := e.must(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 2}).(PurchaseResult)
		if result.TotalPrice != 200 || result.PlatformFee != 14 || result.EscrowAmount != 186 {
			t.Fatalf("split = %+v, want 200/14/186", result)
		}
		if len(result.TokenIDs) != 2 || result.TokenIDs[1] != result.TokenIDs[0]+1 {
			t.Fatalf("token ids = %v", result.TokenIDs)
		}

		if got := e.bank.BalanceOf(alice); got != 9_800 {
			t.Fatalf("buyer balance = %d, want 9800", got)
		}
		// The full price sits in custody; the fee is only collected after
		// completion.
		if got := e.bank.BalanceOf(systemAccount); got != 200 {
			t.Fatalf("custody = %d, want 200", got)
		}
		if got := e.bank.BalanceOf(treasury); got != 0 {
			t.Fatalf("treasury = %d, want 0", got)
		}
		e.view(func(st *state.State) {
			if st.Escrow[organizer] != 186 {
				t.Fatalf("escrow = %d, want 186", st.Escrow[organizer])
			}
			if st.PlatformFees != 14 {
				t.Fatalf("accrued fees = %d, want 14", st.PlatformFees)
			}
			if st.Tiers[tier].Sold != 2 {
				t.Fatalf("sold = %d, want 2", st.Tiers[tier].Sold)
			}
			if st.Attendees[alice] != 2 {
				t.Fatalf("attendees = %d, want 2", st.Attendees[alice])
			}
		})
		if got := e.recordsOf(audit.RecordTicketPurchased); len(got) != 1 {
			t.Fatalf("ticket_purchased records = %d, want 1", len(got))
		}
	})

	t.Run("quantity limits", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 5, 4)

		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 0}, domain.KindValidation)
		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 5}, domain.KindValidation)

		e.purchase(alice, tier, 4)
		// One seat left, cap is four: remaining capacity wins.
		e.mustFail(bob, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 2}, domain.KindValidation)
		e.purchase(bob, tier, 1)
		e.mustFail(bob, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 1}, domain.KindValidation)
	})

	t.Run("unknown or inactive tier", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 5, 4)
		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: 9, Quantity: 1}, domain.KindValidation)

		e.must(organizer, OpUpdateTier, UpdateTierArgs{
			Tier: tier, Name: "general", Price: 100, Available: 5, MaxPerPurchase: 4, Active: false,
		})
		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 1}, domain.KindStateConflict)
	})

	t.Run("insufficient buyer funds revert cleanly", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(6_000, 50, 4)

		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 2}, domain.KindResource)
		if got := e.bank.BalanceOf(alice); got != 10_000 {
			t.Fatalf("buyer balance = %d after revert, want 10000", got)
		}
		e.view(func(st *state.State) {
			if st.Tiers[tier].Sold != 0 || len(st.Assets) != 0 {
				t.Fatal("failed purchase left state behind")
			}
		})
	})

	t.Run("after event start", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.clk.Advance(73 * time.Hour)
		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 1}, domain.KindStateConflict)
	})

	t.Run("cancelled event", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.cancel()
		e.mustFail(alice, OpPurchase, PurchaseArgs{Tier: tier, Quantity: 1}, domain.KindStateConflict)
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("pays escrow after completion", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.complete()

		amount := e.must(organizer, OpWithdraw, nil).(int64)
		if amount != 186 {
			t.Fatalf("withdrawn = %d, want 186", amount)
		}
		if got := e.bank.BalanceOf(organizer); got != 186 {
			t.Fatalf("organizer balance = %d, want 186", got)
		}
		e.view(func(st *state.State) {
			if st.Escrow[organizer] != 0 {
				t.Fatalf("escrow = %d after withdraw, want 0", st.Escrow[organizer])
			}
		})

		// The balance was zeroed, so a second withdrawal has nothing to take.
		e.mustFail(organizer, OpWithdraw, nil, domain.KindResource)
	})

	t.Run("before completion", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.mustFail(organizer, OpWithdraw, nil, domain.KindStateConflict)
	})

	t.Run("cancelled event", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.cancel()
		e.mustFail(organizer, OpWithdraw, nil, domain.KindStateConflict)
	})

	t.Run("organizer only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.complete()
		e.mustFail(alice, OpWithdraw, nil, domain.KindAuthorization)
	})
}

func TestCollectFees(t *testing.T) {
	t.Run("pays accrued fees to treasury after completion", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.complete()

		amount := e.must(adminID, OpCollectFees, nil).(int64)
		if amount != 14 {
			t.Fatalf("collected = %d, want 14", amount)
		}
		if got := e.bank.BalanceOf(treasury); got != 14 {
			t.Fatalf("treasury = %d, want 14", got)
		}
		e.view(func(st *state.State) {
			if st.PlatformFees != 0 {
				t.Fatalf("accrued fees = %d after collection, want 0", st.PlatformFees)
			}
		})
		e.mustFail(adminID, OpCollectFees, nil, domain.KindResource)
	})

	t.Run("admin only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.complete()
		e.mustFail(organizer, OpCollectFees, nil, domain.KindAuthorization)
	})

	t.Run("cancelled fees stay backing refunds", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.cancel()
		e.mustFail(adminID, OpCollectFees, nil, domain.KindStateConflict)
	})
}

func TestEmergencyRefund(t *testing.T) {
	t.Run("restores the full price per ticket", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 2)
		e.cancel()

		for _, id := range tokens {
			amount := e.must(alice, OpRefundClaim, RefundArgs{TokenID: id}).(int64)
			if amount != 100 {
				t.Fatalf("refund = %d, want 100", amount)
			}
		}
		// Both refunds at full price: the buyer is made whole even though
		// escrow only held the post-fee amount.
		if got := e.bank.BalanceOf(alice); got != 10_000 {
			t.Fatalf("buyer balance = %d, want 10000", got)
		}
		e.view(func(st *state.State) {
			for _, id := range tokens {
				if st.Assets[id].Status != domain.AssetStatusRefunded {
					t.Fatalf("asset %d status = %s", id, st.Assets[id].Status)
				}
			}
		})
		if got := e.recordsOf(audit.RecordRefundProcessed); len(got) != 2 {
			t.Fatalf("refund_processed records = %d, want 2", len(got))
		}
	})

	t.Run("double claim conflicts", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 1)
		e.cancel()
		e.must(alice, OpRefundClaim, RefundArgs{TokenID: tokens[0]})
		e.mustFail(alice, OpRefundClaim, RefundArgs{TokenID: tokens[0]}, domain.KindStateConflict)
	})

	t.Run("owner only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 1)
		e.cancel()
		e.mustFail(bob, OpRefundClaim, RefundArgs{TokenID: tokens[0]}, domain.KindAuthorization)
	})

	t.Run("event not cancelled", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 1)
		e.mustFail(alice, OpRefundClaim, RefundArgs{TokenID: tokens[0]}, domain.KindStateConflict)
		// The revert must leave the asset claimable later.
		e.view(func(st *state.State) {
			if st.Assets[tokens[0]].Status != domain.AssetStatusValid {
				t.Fatal("failed refund left asset non-valid")
			}
		})
	})

	t.Run("unknown asset", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.cancel()
		e.mustFail(alice, OpRefundClaim, RefundArgs{TokenID: 404}, domain.KindValidation)
	})
}

func TestRefundSweep(t *testing.T) {
	t.Run("refunds holders in mint order", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.purchase(bob, tier, 1)
		e.cancel()

		result := e.must(organizer, OpRefundSweep, SweepArgs{}).(SweepResult)
		if len(result.Refunded) != 3 || result.Exhausted {
			t.Fatalf("sweep = %+v", result)
		}
		if got := e.bank.BalanceOf(alice); got != 10_000 {
			t.Fatalf("alice = %d, want 10000", got)
		}
		if got := e.bank.BalanceOf(bob); got != 10_000 {
			t.Fatalf("bob = %d, want 10000", got)
		}

		// Everything is refunded; a second pass finds nothing.
		again := e.must(organizer, OpRefundSweep, SweepArgs{}).(SweepResult)
		if len(again.Refunded) != 0 {
			t.Fatalf("second sweep refunded %v", again.Refunded)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 3)
		e.cancel()

		result := e.must(adminID, OpRefundSweep, SweepArgs{Limit: 2}).(SweepResult)
		if len(result.Refunded) != 2 {
			t.Fatalf("refunded = %v, want 2 entries", result.Refunded)
		}
		rest := e.must(adminID, OpRefundSweep, SweepArgs{Limit: 2}).(SweepResult)
		if len(rest.Refunded) != 1 {
			t.Fatalf("second pass refunded = %v, want 1 entry", rest.Refunded)
		}
	})

	t.Run("skips listed assets", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 2)
		e.must(alice, OpListResale, ListArgs{TokenID: tokens[0], Price: 100})
		e.cancel()

		result := e.must(organizer, OpRefundSweep, SweepArgs{}).(SweepResult)
		if len(result.Refunded) != 1 || result.Refunded[0] != tokens[1] {
			t.Fatalf("sweep = %+v, want only %d", result, tokens[1])
		}
	})

	t.Run("stops when custody runs dry", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.cancel()

		// Simulate a custody shortfall.
		if err := e.bank.Transfer(systemAccount, "sink", 150); err != nil {
			t.Fatalf("drain: %v", err)
		}
		result := e.must(organizer, OpRefundSweep, SweepArgs{}).(SweepResult)
		if len(result.Refunded) != 0 || !result.Exhausted {
			t.Fatalf("sweep = %+v, want exhausted with none refunded", result)
		}
	})

	t.Run("authorization", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.cancel()
		e.mustFail(alice, OpRefundSweep, SweepArgs{}, domain.KindAuthorization)
	})

	t.Run("event not cancelled", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(organizer, OpRefundSweep, SweepArgs{}, domain.KindStateConflict)
	})
}
