// Package middleware provides HTTP middleware for the wallet service.
// Identity lives in an external service; requests arrive with JWTs it
// issued, and the middleware only validates them and extracts claims.
package middleware

import (
	"strings"

	"tally/internal/config"
	"tally/internal/models"
	"tally/internal/utils"
	"tally/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Auth validates the Bearer token and stores the claims in the request
// context under "claims".
func Auth() fiber.Handler {
	secret := config.GetEnv("JWT_SECRET", "tally-dev-secret")
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "missing authorization header")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c, "invalid authorization format")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			return response.Unauthorized(c, "invalid token")
		}

		c.Locals("claims", claims)
		c.Locals("userID", claims.UserID)
		return c.Next()
	}
}

// RequireRole returns a middleware that enforces a minimum role.
func RequireRole(requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok || claims == nil {
			return response.Unauthorized(c, "missing claims")
		}
		if !hasRequiredRole(claims.Role, requiredRole) {
			return response.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}

// hasRequiredRole compares the user role and the required role based on a hierarchy.
func hasRequiredRole(userRole, requiredRole string) bool {
	roleHierarchy := map[string]int{
		models.RoleUser:    1,
		models.RoleService: 2,
		models.RoleAdmin:   3,
	}
	return roleHierarchy[userRole] >= roleHierarchy[requiredRole]
}
