package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/workorder-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated tenant scope of the caller.
type Principal struct {
	TenantID string
	PlantIDs []string
}

// AllowsPlant reports whether the principal may touch the given plant. An
// empty allow-list means every plant in the tenant.
func (p *Principal) AllowsPlant(plantID string) bool {
	if len(p.PlantIDs) == 0 {
		return true
	}
	for _, id := range p.PlantIDs {
		if id == plantID {
			return true
		}
	}
	return false
}

// AuthMiddleware validates bearer tokens and attaches the tenant scope.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces a tenant-scoped token on protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{TenantID: claims.TenantID, PlantIDs: claims.PlantIDs})
	return c.Next()
}

// PrincipalFromContext extracts the tenant scope set by Handle.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
