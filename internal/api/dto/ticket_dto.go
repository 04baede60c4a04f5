package dto

// PurchaseRequest buys tickets from a tier.
type PurchaseRequest struct {
	Tier     int64 `json:"tier"`
	Quantity int64 `json:"quantity"`
}

// RefundRequest claims the refund for one owned asset.
type RefundRequest struct {
	TokenID int64 `json:"token_id"`
}

// SweepRequest bounds one best-effort refund pass.
type SweepRequest struct {
	Limit int `json:"limit"`
}

// ListResaleRequest offers an asset for resale.
type ListResaleRequest struct {
	TokenID int64 `json:"token_id"`
	Price   int64 `json:"price"`
}

// RoleRequest assigns a staff role.
type RoleRequest struct {
	Staff string `json:"staff"`
	Role  string `json:"role"`
}

// StaffRequest identifies a staff member for the legacy surface.
type StaffRequest struct {
	Staff string `json:"staff"`
}

// BatchStatusRequest scans many tickets.
type BatchStatusRequest struct {
	TokenIDs []int64 `json:"token_ids"`
}
