package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds directory credentials.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name"`
	Initials string   `json:"initials"`
	Groups   []string `json:"groups"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Groups   []string `json:"groups"`
	jwt.RegisteredClaims
}

// HasAnyGroup reports whether the token carries one of groups.
func (c *JWTClaims) HasAnyGroup(groups ...string) bool {
	for _, want := range groups {
		for _, have := range c.Groups {
			if have == want {
				return true
			}
		}
	}
	return false
}
