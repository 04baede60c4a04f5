package dto

import "time"

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegistryEntryRequest is one entry of a registration batch.
type RegistryEntryRequest struct {
	// Module is empty for remove entries (the null module reference).
	Module string   `json:"module"`
	Action string   `json:"action"` // add | replace | remove
	Ops    []string `json:"ops"`
}

// RegistryBatchRequest applies registration entries atomically, with an
// optional post-batch initialization call.
type RegistryBatchRequest struct {
	Entries []RegistryEntryRequest `json:"entries"`
	Init    *RegistryInitRequest   `json:"init,omitempty"`
}

// RegistryInitRequest names the module whose Init runs after the batch.
type RegistryInitRequest struct {
	Module string            `json:"module"`
	Event  *EventInitRequest `json:"event,omitempty"`
}

// TransferAdminRequest hands the admin identity over.
type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}
