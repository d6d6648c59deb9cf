package model

import "time"

// OrganizationMember joins a user to an organization. Role is a single
// authoritative value overwritten on every session establishment.
type OrganizationMember struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	OrganizationID  int64     `json:"organization_id"`
	Role            string    `json:"role"`
	LoginNoticeSeen bool      `json:"login_notice_seen"`
	GuideNoticeSeen bool      `json:"guide_notice_seen"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
