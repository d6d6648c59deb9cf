package model

import "time"

// User anchors an identity. ExternalID is the subject ID issued by the
// identity provider; ID is the internal snowflake key.
type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
