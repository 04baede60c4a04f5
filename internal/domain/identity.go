package domain

// Identity addresses a participant: organizer, buyer, staff, or a system
// custody account. The zero value means "nobody".
type Identity string

// ZeroIdentity is the null participant reference.
const ZeroIdentity Identity = ""

// IsZero reports whether the identity is the null reference.
func (i Identity) IsZero() bool {
	return i == ZeroIdentity
}
