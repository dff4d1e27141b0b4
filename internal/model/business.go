package model

import "time"

// Business represents a vendor/tenant owning a product catalogue.
type Business struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	OwnerPhone  string    `json:"owner_phone" db:"owner_phone"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SessionContext identifies the caller of a core operation. It replaces
// ambient chat-session state so every call is explicit about which
// business scope and role it runs under.
type SessionContext struct {
	BusinessID string `json:"business_id"`
	Role       string `json:"role"` // "vendor" or "customer"
}

// Caller roles.
const (
	RoleVendor   = "vendor"
	RoleCustomer = "customer"
)
