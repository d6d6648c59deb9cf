package model

// MemberAccount is a membership row joined with its user identity, used when
// resolving admin-supplied emails to removable members.
type MemberAccount struct {
	MemberID       int64  `json:"member_id"`
	UserID         int64  `json:"user_id"`
	UserExternalID string `json:"user_external_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}
