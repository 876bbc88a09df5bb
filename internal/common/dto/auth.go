package dto

import "time"

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and the signed-in user
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// ChangePasswordRequest represents a request to change the caller's password
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID                 uint       `json:"id"`
	Username           string     `json:"username"`
	DisplayName        string     `json:"displayName"`
	Role               string     `json:"role"`
	MustChangePassword bool       `json:"mustChangePassword"`
	Disabled           bool       `json:"disabled"`
	ExternalID         string     `json:"externalId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLoginAt        *time.Time `json:"lastLoginAt,omitempty"`
	CompanySlugs       []string   `json:"companySlugs,omitempty"`
}
