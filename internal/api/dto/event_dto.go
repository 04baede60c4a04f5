package dto

import "time"

// EventInitRequest seeds the event record.
type EventInitRequest struct {
	EventID     int64     `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Organizer   string    `json:"organizer,omitempty"`
}

// TierRequest adds a ticket tier.
type TierRequest struct {
	Name           string   `json:"name"`
	Price          int64    `json:"price"`
	Available      int64    `json:"available"`
	MaxPerPurchase int64    `json:"max_per_purchase"`
	Description    string   `json:"description"`
	Benefits       []string `json:"benefits"`
}

// UpdateTierRequest mutates an existing tier.
type UpdateTierRequest struct {
	Name           string   `json:"name"`
	Price          int64    `json:"price"`
	Available      int64    `json:"available"`
	MaxPerPurchase int64    `json:"max_per_purchase"`
	Active         bool     `json:"active"`
	Description    string   `json:"description"`
	Benefits       []string `json:"benefits"`
}
