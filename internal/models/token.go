package models

import (
	"time"
)

// Session is what a bearer token resolves to.
type Session struct {
	Token        string    `json:"token"`
	Role         Role      `json:"role"`
	UserID       string    `json:"user_id"`
	RequestCount int       `json:"request_count"`
	LastRequest  time.Time `json:"last_request_dttm_utc"`
	Created      time.Time `json:"created_dttm_utc"`
}

// Can reports whether the session may act on behalf of userID in role.
// Admins may act for anyone.
func (s *Session) Can(role Role, userID string) bool {
	if s.Role == RoleAdmin {
		return true
	}
	return s.Role == role && s.UserID == NormalizeID(userID)
}
