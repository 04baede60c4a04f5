package modules

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/ledger"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/state"
	"github.com/spec-kit/ticket-exchange/internal/token"
)

const (
	adminID   = domain.Identity("admin")
	organizer = domain.Identity("org")
	alice     = domain.Identity("alice")
	bob       = domain.Identity("bob")

	systemAccount = domain.Identity("system:escrow")
	treasury      = domain.Identity("system:treasury")
	marketAccount = domain.Identity("system:market")
)

var baseTime = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

// testClock is a mutable clock shared by the whole engine under test.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// engine wires a complete in-memory deployment: bank, asset registry,
// dispatcher, and all four modules registered through the admin surface.
type engine struct {
	t       *testing.T
	clk     *testClock
	bank    *token.Bank
	assets  *token.Registry
	store   *state.Store
	reg     *registry.Registry
	records *[]audit.Record
}

func testPlatform() Platform {
	return Platform{
		SystemAccount:  systemAccount,
		Treasury:       treasury,
		MarketAccount:  marketAccount,
		PurchaseFeeBps: 700,
		ResaleFeeBps:   300,
	}
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	clk := &testClock{now: baseTime}
	bank := token.NewBank(map[domain.Identity]int64{alice: 10_000, bob: 10_000})
	assets := token.NewRegistry()

	st := state.New()
	st.Admin = adminID
	store := state.NewStore(st)

	log := audit.NewLog()
	records := &[]audit.Record{}
	log.SubscribeAll(func(_ context.Context, r audit.Record) error {
		*records = append(*records, r)
		return nil
	})

	reg := registry.New(store, registry.Dependencies{
		Log:          log,
		Clock:        clk,
		Participants: []token.Transactional{bank, assets},
	})

	platform := testPlatform()
	l := ledger.New(assets)
	for _, mod := range []registry.Module{
		NewLifecycle(nil),
		NewSales(platform, bank, l, nil),
		NewMarket(platform, bank, l, nil),
		NewStaff(l, nil),
	} {
		ops := make([]registry.OpID, 0, len(mod.Operations()))
		for op := range mod.Operations() {
			ops = append(ops, op)
		}
		entry := registry.BatchEntry{Module: mod, Action: registry.ActionAdd, Ops: ops}
		if err := reg.ApplyBatch(context.Background(), adminID, []registry.BatchEntry{entry}, nil); err != nil {
			t.Fatalf("register %s: %v", mod.Name(), err)
		}
	}

	return &engine{t: t, clk: clk, bank: bank, assets: assets, store: store, reg: reg, records: records}
}

func (e *engine) dispatch(caller domain.Identity, op registry.OpID, args any) (any, error) {
	return e.reg.Dispatch(context.Background(), caller, op, args)
}

func (e *engine) must(caller domain.Identity, op registry.OpID, args any) any {
	e.t.Helper()
	result, err := e.dispatch(caller, op, args)
	if err != nil {
		e.t.Fatalf("%s by %s: %v", op, caller, err)
	}
	return result
}

// mustFail asserts the dispatch fails with the given error kind.
func (e *engine) mustFail(caller domain.Identity, op registry.OpID, args any, kind domain.ErrorKind) {
	e.t.Helper()
	if _, err := e.dispatch(caller, op, args); !domain.IsKind(err, kind) {
		e.t.Fatalf("%s by %s: err = %v, want %s", op, caller, err, kind)
	}
}

func (e *engine) view(fn func(*state.State)) {
	e.store.View(fn)
}

// initEvent seeds event 42 starting 72 hours from the base time.
func (e *engine) initEvent() {
	e.t.Helper()
	e.must(organizer, OpInitialize, InitializeArgs{
		EventID: 42,
		Name:    "summer expo",
		Venue:   "hall 9",
		Date:    baseTime.Add(72 * time.Hour),
	})
}

// addTier appends a tier and returns its index.
func (e *engine) addTier(price, available, maxPer int64) int64 {
	e.t.Helper()
	result := e.must(organizer, OpAddTier, TierArgs{
		Name:           "general",
		Price:          price,
		Available:      available,
		MaxPerPurchase: maxPer,
	})
	return result.(int64)
}

// purchase buys quantity tickets from the tier and returns the minted IDs.
func (e *engine) purchase(buyer domain.Identity, tier, quantity int64) []int64 {
	e.t.Helper()
	result := e.must(buyer, OpPurchase, PurchaseArgs{Tier: tier, Quantity: quantity})
	return result.(PurchaseResult).TokenIDs
}

// complete advances the clock past the grace period and completes the event
// as the organizer.
func (e *engine) complete() {
	e.t.Helper()
	e.clk.now = baseTime.Add(72*time.Hour + completionGracePeriod + time.Minute)
	e.must(organizer, OpCompleteEvent, nil)
}

func (e *engine) cancel() {
	e.t.Helper()
	e.must(organizer, OpCancelEvent, nil)
}

func (e *engine) recordsOf(t audit.RecordType) []audit.Record {
	var out []audit.Record
	for _, r := range *e.records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
