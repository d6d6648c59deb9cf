package model

import "time"

// Organization is a tenant. ExternalID is the provider-side organization ID
// and is immutable once the row exists.
type Organization struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationData is the authoritative organization payload returned by the
// identity provider.
type OrganizationData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}
