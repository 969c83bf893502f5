package models

import "github.com/golang-jwt/jwt/v5"

// Claims defines the structure of the JWT claims accepted by the history API.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
