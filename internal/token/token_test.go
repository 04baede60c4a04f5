package token

import (
	"testing"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

func TestBankTransfer(t *testing.T) {
	bank := NewBank(map[domain.Identity]int64{"alice": 100})

	t.Run("moves value", func(t *testing.T) {
		if err := bank.Transfer("alice", "bob", 40); err != nil {
			t.Fatalf("transfer: %v", err)
		}
		if got := bank.BalanceOf("alice"); got != 60 {
			t.Fatalf("alice = %d, want 60", got)
		}
		if got := bank.BalanceOf("bob"); got != 40 {
			t.Fatalf("bob = %d, want 40", got)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		if err := bank.Transfer("alice", "bob", 1000); err == nil {
			t.Fatal("overdraft succeeded")
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		if err := bank.Transfer("alice", "bob", -1); err == nil {
			t.Fatal("negative transfer succeeded")
		}
	})
}

func TestBankSnapshotRestore(t *testing.T) {
	bank := NewBank(map[domain.Identity]int64{"alice": 100})
	snap := bank.Snapshot()

	if err := bank.Transfer("alice", "bob", 100); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	bank.Deposit("carol", 50)

	bank.Restore(snap)
	if got := bank.BalanceOf("alice"); got != 100 {
		t.Fatalf("alice = %d after restore, want 100", got)
	}
	if got := bank.BalanceOf("bob"); got != 0 {
		t.Fatalf("bob = %d after restore, want 0", got)
	}
	if got := bank.BalanceOf("carol"); got != 0 {
		t.Fatalf("carol = %d after restore, want 0", got)
	}
}

func TestRegistryOwnership(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Mint("alice", 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := reg.Mint("bob", 1); err == nil {
		t.Fatal("double mint succeeded")
	}
	if err := reg.Mint(domain.ZeroIdentity, 2); err == nil {
		t.Fatal("mint to zero identity succeeded")
	}

	owner, err := reg.OwnerOf(1)
	if err != nil || owner != "alice" {
		t.Fatalf("owner = %s, %v", owner, err)
	}
	if _, err := reg.OwnerOf(404); err == nil {
		t.Fatal("unknown token resolved")
	}

	if err := reg.Transfer("bob", "carol", 1); err == nil {
		t.Fatal("transfer from non-holder succeeded")
	}
	if err := reg.Transfer("alice", "bob", 1); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if owner, _ := reg.OwnerOf(1); owner != "bob" {
		t.Fatalf("owner = %s, want bob", owner)
	}
}

func TestRegistrySnapshotRestore(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Mint("alice", 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	snap := reg.Snapshot()

	if err := reg.Transfer("alice", "bob", 1); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := reg.Mint("carol", 2); err != nil {
		t.Fatalf("mint: %v", err)
	}

	reg.Restore(snap)
	if owner, _ := reg.OwnerOf(1); owner != "alice" {
		t.Fatalf("owner = %s after restore, want alice", owner)
	}
	if _, err := reg.OwnerOf(2); err == nil {
		t.Fatal("token minted after snapshot survived restore")
	}
}
