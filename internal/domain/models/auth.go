package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims accepted by the auth middleware.
// Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
