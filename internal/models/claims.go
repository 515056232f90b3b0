package models

import "github.com/golang-jwt/jwt/v5"

// Roles recognized by the auth middleware, lowest to highest.
const (
	RoleUser    = "user"
	RoleService = "service"
	RoleAdmin   = "admin"
)

// UserClaims are the JWT claims attached to every authenticated request.
type UserClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
