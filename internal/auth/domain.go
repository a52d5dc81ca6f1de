package auth

import "github.com/golang-jwt/jwt/v5"

// Claims carried by catalog access tokens. The subject is the user id
// recorded as the responsible user of product changes.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
