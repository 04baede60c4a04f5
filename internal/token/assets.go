package token

import (
	"fmt"

	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// AssetRegistry is the non-fungible ownership collaborator underlying the
// ticket ledger: who currently holds which token.
type AssetRegistry interface {
	Mint(to domain.Identity, tokenID int64) error
	OwnerOf(tokenID int64) (domain.Identity, error)
	Transfer(from, to domain.Identity, tokenID int64) error
}

// Registry is an in-memory ownership registry.
type Registry struct {
	owners map[int64]domain.Identity
}

// NewRegistry returns an empty ownership registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[int64]domain.Identity)}
}

// Mint assigns a fresh token to an owner. Minting an existing token fails.
func (r *Registry) Mint(to domain.Identity, tokenID int64) error {
	if to.IsZero() {
		return fmt.Errorf("mint to zero identity")
	}
	if _, exists := r.owners[tokenID]; exists {
		return fmt.Errorf("token %d already minted", tokenID)
	}
	r.owners[tokenID] = to
	return nil
}

// OwnerOf resolves the current holder of a token.
func (r *Registry) OwnerOf(tokenID int64) (domain.Identity, error) {
	owner, ok := r.owners[tokenID]
	if !ok {
		return domain.ZeroIdentity, fmt.Errorf("token %d not minted", tokenID)
	}
	return owner, nil
}

// Transfer moves a token between holders, checking current custody.
func (r *Registry) Transfer(from, to domain.Identity, tokenID int64) error {
	owner, ok := r.owners[tokenID]
	if !ok {
		return fmt.Errorf("token %d not minted", tokenID)
	}
	if owner != from {
		return fmt.Errorf("token %d held by %s, not %s", tokenID, owner, from)
	}
	if to.IsZero() {
		return fmt.Errorf("transfer to zero identity")
	}
	r.owners[tokenID] = to
	return nil
}

// Snapshot captures current ownership.
func (r *Registry) Snapshot() any {
	snap := make(map[int64]domain.Identity, len(r.owners))
	for id, owner := range r.owners {
		snap[id] = owner
	}
	return snap
}

// Restore replaces ownership with a previous snapshot.
func (r *Registry) Restore(snapshot any) {
	snap, ok := snapshot.(map[int64]domain.Identity)
	if !ok {
		return
	}
	r.owners = make(map[int64]domain.Identity, len(snap))
	for id, owner := range snap {
		r.owners[id] = owner
	}
}
