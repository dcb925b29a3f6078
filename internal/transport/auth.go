package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/certilote/certify-engine/internal/domain"
)

const roleLocalsKey = "authRole"

// TokenRoles maps configured bearer tokens to their role.
type TokenRoles map[string]domain.Role

func NewTokenRoles(adminTokens, operatorTokens []string) TokenRoles {
	roles := make(TokenRoles, len(adminTokens)+len(operatorTokens))
	for _, token := range operatorTokens {
		roles[token] = domain.RoleOperador
	}
	for _, token := range adminTokens {
		roles[token] = domain.RoleAdmin
	}
	return roles
}

// AuthMiddleware resolves the caller role from an optional bearer token.
// Requests without a token run as anonimo; a token that matches nothing is
// rejected outright.
func AuthMiddleware(tokens TokenRoles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			c.Locals(roleLocalsKey, domain.RoleAnonimo)
			return c.Next()
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "malformed authorization header")
		}

		role, ok := tokens[strings.TrimSpace(token)]
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown token")
		}

		c.Locals(roleLocalsKey, role)
		return c.Next()
	}
}

// RequireFeature guards a route group behind a capability check for the
// resolved role.
func RequireFeature(feature domain.Feature) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !domain.Allowed(RoleFromCtx(c), feature) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// RoleFromCtx returns the role resolved by AuthMiddleware, defaulting to
// anonimo when the middleware did not run.
func RoleFromCtx(c *fiber.Ctx) domain.Role {
	if role, ok := c.Locals(roleLocalsKey).(domain.Role); ok {
		return role
	}
	return domain.RoleAnonimo
}
