package model

import "time"

// Session is the durable carrier behind the per-request session context.
// OrganizationID holds the external ID of the active organization, or nil
// when the session has not activated one.
type Session struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Role           *string   `json:"role,omitempty"`
}
