package modules

import (
	"testing"
	"time"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

func TestInitialize(t *testing.T) {
	t.Run("seeds event and resale defaults", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.view(func(st *state.State) {
			if st.Event.ID != 42 || st.Event.Name != "summer expo" {
				t.Fatalf("event = %+v", st.Event)
			}
			if st.Event.Organizer != organizer {
				t.Fatalf("organizer = %s", st.Event.Organizer)
			}
			if st.Role(organizer) != domain.RoleManager {
				t.Fatal("organizer not seeded as MANAGER")
			}
			if !st.Resale.Allowed || st.Resale.MaxMarkupBps != 2_000 || st.Resale.OrganizerFeeBps != 250 {
				t.Fatalf("resale defaults = %+v", st.Resale)
			}
		})
		if got := e.recordsOf(audit.RecordEventInitialized); len(got) != 1 {
			t.Fatalf("event_initialized records = %d, want 1", len(got))
		}
	})

	t.Run("organizer defaults to caller", func(t *testing.T) {
		e := newEngine(t)
		e.must(alice, OpInitialize, InitializeArgs{EventID: 1, Name: "show", Date: baseTime.Add(time.Hour)})
		e.view(func(st *state.State) {
			if st.Event.Organizer != alice {
				t.Fatalf("organizer = %s, want alice", st.Event.Organizer)
			}
		})
	})

	t.Run("second initialize conflicts", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(organizer, OpInitialize, InitializeArgs{EventID: 43, Name: "again", Date: baseTime.Add(time.Hour)}, domain.KindStateConflict)
	})

	t.Run("validation", func(t *testing.T) {
		e := newEngine(t)
		e.mustFail(organizer, OpInitialize, InitializeArgs{EventID: 1, Date: baseTime.Add(time.Hour)}, domain.KindValidation)
		e.mustFail(organizer, OpInitialize, InitializeArgs{EventID: 1000, Name: "x", Date: baseTime.Add(time.Hour)}, domain.KindBounds)
		e.mustFail(organizer, OpInitialize, InitializeArgs{EventID: 1, Name: "x", Date: baseTime.Add(-time.Hour)}, domain.KindValidation)
		e.mustFail(organizer, OpInitialize, InitializeArgs{EventID: 1, Name: "x", Date: baseTime}, domain.KindValidation)
	})
}

func TestAddTier(t *testing.T) {
	e := newEngine(t)
	e.initEvent()

	t.Run("appends and indexes", func(t *testing.T) {
		if idx := e.addTier(100, 50, 4); idx != 0 {
			t.Fatalf("first tier index = %d", idx)
		}
		if idx := e.addTier(250, 10, 2); idx != 1 {
			t.Fatalf("second tier index = %d", idx)
		}
		e.view(func(st *state.State) {
			if len(st.Tiers) != 2 || !st.Tiers[0].Active {
				t.Fatalf("tiers = %+v", st.Tiers)
			}
		})
	})

	t.Run("organizer only", func(t *testing.T) {
		e.mustFail(alice, OpAddTier, TierArgs{Name: "x", Price: 1, Available: 1, MaxPerPurchase: 1}, domain.KindAuthorization)
	})

	t.Run("validation", func(t *testing.T) {
		e.mustFail(organizer, OpAddTier, TierArgs{Name: "x", Price: 0, Available: 1, MaxPerPurchase: 1}, domain.KindValidation)
		e.mustFail(organizer, OpAddTier, TierArgs{Name: "x", Price: 1, Available: 0, MaxPerPurchase: 1}, domain.KindValidation)
		e.mustFail(organizer, OpAddTier, TierArgs{Name: "x", Price: 1, Available: 5, MaxPerPurchase: 6}, domain.KindValidation)
		e.mustFail(organizer, OpAddTier, TierArgs{Name: "x", Price: 1, Available: 5, MaxPerPurchase: 0}, domain.KindValidation)
	})
}

func TestUpdateTier(t *testing.T) {
	e := newEngine(t)
	e.initEvent()
	tier := e.addTier(100, 50, 4)
	e.purchase(alice, tier, 3)

	t.Run("updates fields", func(t *testing.T) {
		e.must(organizer, OpUpdateTier, UpdateTierArgs{
			Tier:           tier,
			Name:           "early bird",
			Price:          80,
			Available:      40,
			MaxPerPurchase: 2,
			Active:         true,
		})
		e.view(func(st *state.State) {
			got := st.Tiers[tier]
			if got.Name != "early bird" || got.Price != 80 || got.Available != 40 {
				t.Fatalf("tier = %+v", got)
			}
			if got.Sold != 3 {
				t.Fatalf("sold counter clobbered: %d", got.Sold)
			}
		})
	})

	t.Run("available below sold", func(t *testing.T) {
		e.mustFail(organizer, OpUpdateTier, UpdateTierArgs{
			Tier: tier, Name: "x", Price: 80, Available: 2, MaxPerPurchase: 2, Active: true,
		}, domain.KindValidation)
	})

	t.Run("unknown tier", func(t *testing.T) {
		e.mustFail(organizer, OpUpdateTier, UpdateTierArgs{
			Tier: 9, Name: "x", Price: 80, Available: 40, MaxPerPurchase: 2, Active: true,
		}, domain.KindValidation)
	})
}

func TestCancelEvent(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.cancel()
		e.view(func(st *state.State) {
			if !st.Event.Cancelled {
				t.Fatal("event not cancelled")
			}
		})
		if got := e.recordsOf(audit.RecordEventCancelled); len(got) != 1 {
			t.Fatalf("event_cancelled records = %d, want 1", len(got))
		}
	})

	t.Run("after start", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.clk.Advance(73 * time.Hour)
		e.mustFail(organizer, OpCancelEvent, nil, domain.KindStateConflict)
	})

	t.Run("twice", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.cancel()
		e.mustFail(organizer, OpCancelEvent, nil, domain.KindStateConflict)
	})

	t.Run("organizer only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(alice, OpCancelEvent, nil, domain.KindAuthorization)
	})
}

func TestMarkCompleted(t *testing.T) {
	t.Run("after grace period", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.complete()
		e.view(func(st *state.State) {
			if !st.Event.Completed {
				t.Fatal("event not completed")
			}
		})
	})

	t.Run("grace period still running", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		// Just past the start, well inside the grace period.
		e.clk.Advance(73 * time.Hour)
		e.mustFail(organizer, OpCompleteEvent, nil, domain.KindStateConflict)
	})

	t.Run("cancelled event", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.cancel()
		e.clk.Advance(100 * time.Hour)
		e.mustFail(organizer, OpCompleteEvent, nil, domain.KindStateConflict)
	})
}

func TestClearAllTiers(t *testing.T) {
	t.Run("resets for the next event", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		e.purchase(alice, tier, 2)
		e.cancel()

		e.must(organizer, OpClearTiers, nil)
		e.view(func(st *state.State) {
			if len(st.Tiers) != 0 || len(st.NextSerial) != 0 || len(st.Attendees) != 0 {
				t.Fatalf("residual state: tiers=%d serials=%d attendees=%d",
					len(st.Tiers), len(st.NextSerial), len(st.Attendees))
			}
			if st.Event.Initialized() {
				t.Fatal("event record not reset")
			}
		})
		if got := e.recordsOf(audit.RecordEventReset); len(got) != 1 || got[0].EventID != 42 {
			t.Fatalf("event_reset records = %+v", got)
		}

		// A fresh initialize must succeed on the cleared instance.
		e.must(organizer, OpInitialize, InitializeArgs{EventID: 43, Name: "next", Date: e.clk.Now().Add(time.Hour)})
	})

	t.Run("active event refuses", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(organizer, OpClearTiers, nil, domain.KindStateConflict)
	})
}
