package token

import (
	"fmt"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// CurrencyLedger is the fungible payment collaborator. All purchase, escrow,
// and disbursement flows move value through it; the engine never owns it.
type CurrencyLedger interface {
	Transfer(from, to domain.Identity, amount int64) error
	BalanceOf(id domain.Identity) int64
}

// Transactional collaborators participate in the dispatcher's all-or-nothing
// boundary: a snapshot is taken before a mutating call and restored when the
// call fails, so nested custody transfers revert with it.
type Transactional interface {
	Snapshot() any
	Restore(snapshot any)
}

// Bank is an in-memory currency ledger used for local deployments and tests.
type Bank struct {
	balances map[domain.Identity]int64
}

// NewBank seeds an in-memory ledger with the given balances.
func NewBank(seed map[domain.Identity]int64) *Bank {
	b := &Bank{balances: make(map[domain.Identity]int64, len(seed))}
	for id, amount := range seed {
		b.balances[id] = amount
	}
	return b
}

// Transfer moves amount between accounts, failing on insufficient funds.
func (b *Bank) Transfer(from, to domain.Identity, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %d", amount)
	}
	if b.balances[from] < amount {
		return fmt.Errorf("insufficient balance: %s has %d, needs %d", from, b.balances[from], amount)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

// BalanceOf returns the current balance for an identity.
func (b *Bank) BalanceOf(id domain.Identity) int64 {
	return b.balances[id]
}

// Deposit credits an account directly. Test and bootstrap helper.
func (b *Bank) Deposit(id domain.Identity, amount int64) {
	b.balances[id] += amount
}

// Snapshot captures all balances.
func (b *Bank) Snapshot() any {
	snap := make(map[domain.Identity]int64, len(b.balances))
	for id, amount := range b.balances {
		snap[id] = amount
	}
	return snap
}

// Restore replaces all balances with a previous snapshot.
func (b *Bank) Restore(snapshot any) {
	snap, ok := snapshot.(map[domain.Identity]int64)
	if !ok {
		return
	}
	b.balances = make(map[domain.Identity]int64, len(snap))
	for id, amount := range snap {
		b.balances[id] = amount
	}
}
