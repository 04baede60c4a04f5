package modules

import (
	"testing"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

const (
	manager = domain.Identity("manager")
	scanner = domain.Identity("scanner")
)

func TestAddStaffWithRole(t *testing.T) {
	t.Run("organizer assigns any role", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: manager, Role: domain.RoleManager})
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: scanner, Role: domain.RoleScanner})
		e.view(func(st *state.State) {
			if st.Role(manager) != domain.RoleManager || st.Role(scanner) != domain.RoleScanner {
				t.Fatalf("roles = %v / %v", st.Role(manager), st.Role(scanner))
			}
		})
	})

	t.Run("manager assigns junior roles only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: manager, Role: domain.RoleManager})

		e.must(manager, OpAddStaffWithRole, RoleArgs{Staff: scanner, Role: domain.RoleCheckin})
		// Managers cannot mint managers laterally.
		e.mustFail(manager, OpAddStaffWithRole, RoleArgs{Staff: "peer", Role: domain.RoleManager}, domain.KindAuthorization)
	})

	t.Run("junior roles cannot assign", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: scanner, Role: domain.RoleScanner})
		e.mustFail(scanner, OpAddStaffWithRole, RoleArgs{Staff: "friend", Role: domain.RoleScanner}, domain.KindAuthorization)
		e.mustFail(alice, OpAddStaffWithRole, RoleArgs{Staff: "friend", Role: domain.RoleScanner}, domain.KindAuthorization)
	})

	t.Run("validation", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(organizer, OpAddStaffWithRole, RoleArgs{Role: domain.RoleScanner}, domain.KindValidation)
		e.mustFail(organizer, OpAddStaffWithRole, RoleArgs{Staff: scanner, Role: domain.RoleNone}, domain.KindValidation)
		e.mustFail(organizer, OpAddStaffWithRole, RoleArgs{Staff: scanner, Role: domain.RoleManager + 1}, domain.KindValidation)
	})
}

func TestRemoveStaffRole(t *testing.T) {
	t.Run("strips role and whitelist", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.must(organizer, OpAddStaff, StaffArgs{Staff: scanner})
		e.must(organizer, OpRemoveStaffRole, RemoveRoleArgs{Staff: scanner})
		e.view(func(st *state.State) {
			if st.Role(scanner) != domain.RoleNone || st.Whitelist[scanner] {
				t.Fatal("role or whitelist survived removal")
			}
		})
	})

	t.Run("no role to remove", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.mustFail(organizer, OpRemoveStaffRole, RemoveRoleArgs{Staff: "ghost"}, domain.KindValidation)
	})

	t.Run("manager removal is organizer only", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: manager, Role: domain.RoleManager})
		e.must(organizer, OpAddStaffWithRole, RoleArgs{Staff: "peer", Role: domain.RoleManager})

		e.mustFail(manager, OpRemoveStaffRole, RemoveRoleArgs{Staff: "peer"}, domain.KindAuthorization)
		e.must(organizer, OpRemoveStaffRole, RemoveRoleArgs{Staff: "peer"})
	})
}

func TestLegacyStaffSurface(t *testing.T) {
	e := newEngine(t)
	e.initEvent()

	t.Run("add mirrors whitelist", func(t *testing.T) {
		e.must(organizer, OpAddStaff, StaffArgs{Staff: scanner})
		e.view(func(st *state.State) {
			if st.Role(scanner) != domain.RoleScanner || !st.Whitelist[scanner] {
				t.Fatalf("role = %v whitelist = %v", st.Role(scanner), st.Whitelist[scanner])
			}
		})
	})

	t.Run("organizer only", func(t *testing.T) {
		e.mustFail(scanner, OpAddStaff, StaffArgs{Staff: "friend"}, domain.KindAuthorization)
		e.mustFail(scanner, OpRemoveStaff, StaffArgs{Staff: scanner}, domain.KindAuthorization)
	})

	t.Run("remove clears both", func(t *testing.T) {
		e.must(organizer, OpRemoveStaff, StaffArgs{Staff: scanner})
		e.view(func(st *state.State) {
			if st.Role(scanner) != domain.RoleNone || st.Whitelist[scanner] {
				t.Fatal("legacy removal incomplete")
			}
		})
		e.mustFail(organizer, OpRemoveStaff, StaffArgs{Staff: scanner}, domain.KindValidation)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("scanner marks ticket used", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 1)
		e.must(organizer, OpAddStaff, StaffArgs{Staff: scanner})

		e.must(scanner, OpUpdateStatus, StatusArgs{TokenID: tokens[0]})
		e.view(func(st *state.State) {
			if st.Assets[tokens[0]].Status != domain.AssetStatusUsed {
				t.Fatalf("status = %s, want USED", st.Assets[tokens[0]].Status)
			}
		})
		if got := e.recordsOf(audit.RecordStatusUpdated); len(got) != 1 {
			t.Fatalf("status_updated records = %d, want 1", len(got))
		}

		// Re-scan of a used ticket conflicts.
		e.mustFail(scanner, OpUpdateStatus, StatusArgs{TokenID: tokens[0]}, domain.KindStateConflict)
	})

	t.Run("unprivileged caller", func(t *testing.T) {
		e := newEngine(t)
		e.initEvent()
		tier := e.addTier(100, 50, 4)
		tokens := e.purchase(alice, tier, 1)
		e.mustFail(alice, OpUpdateStatus, StatusArgs{TokenID: tokens[0]}, domain.KindAuthorization)
	})
}

func TestBatchUpdateStatus(t *testing.T) {
	e := newEngine(t)
	e.initEvent()
	tier := e.addTier(100, 50, 4)
	tokens := e.purchase(alice, tier, 3)
	e.must(organizer, OpAddStaff, StaffArgs{Staff: scanner})

	// Pre-scan one ticket so the batch has to skip it.
	e.must(scanner, OpUpdateStatus, StatusArgs{TokenID: tokens[0]})

	batch := append(append([]int64{}, tokens...), 404)
	result := e.must(scanner, OpBatchUpdateStatus, BatchStatusArgs{TokenIDs: batch}).(BatchStatusResult)

	if len(result.Updated) != 2 {
		t.Fatalf("updated = %v, want 2 entries", result.Updated)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("skipped = %v, want the used ticket and the unknown ID", result.Skipped)
	}
	e.view(func(st *state.State) {
		for _, id := range tokens {
			if st.Assets[id].Status != domain.AssetStatusUsed {
				t.Fatalf("asset %d status = %s, want USED", id, st.Assets[id].Status)
			}
		}
	})
}
