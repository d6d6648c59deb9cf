package model

import "time"

// PlatformKey is the initial access key provisioned for a newly created
// organization. Credentials holds the key material; its secret-shaped
// entries are encrypted before the row is written.
type PlatformKey struct {
	ID             int64             `json:"id"`
	OrganizationID int64             `json:"organization_id"`
	Name           string            `json:"name"`
	Credentials    map[string]string `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
}
