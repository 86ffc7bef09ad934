package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Actor describes the authenticated identity performing an operation.
// Username is used for audit stamping (CreatedBy/UpdatedBy).
type Actor struct {
	ID               string
	Username         string
	IsClient         bool
	IsServiceAccount bool
}

// CanViewUser reports whether the actor may read data belonging to userID.
// Clients may view any user's payments; everyone else only their own.
func (a Actor) CanViewUser(userID string) bool {
	return a.IsClient || a.ID == userID
}

// TokenClaims represents the JWT token claims carried by API requests
type TokenClaims struct {
	jwt.RegisteredClaims

	Username         string `json:"username"`
	IsClient         bool   `json:"is_client"`
	IsServiceAccount bool   `json:"is_service_account"`
}

// Actor builds the authorization descriptor from the token claims
func (c *TokenClaims) Actor() Actor {
	return Actor{
		ID:               c.Subject,
		Username:         c.Username,
		IsClient:         c.IsClient,
		IsServiceAccount: c.IsServiceAccount,
	}
}
