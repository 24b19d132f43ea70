package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/identity"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

const identityKey = "auth_identity"

// providerHeader names the request header carrying the provider tag.
const providerHeader = "X-Provider"

// Middleware verifies bearer credentials against the declared provider and
// applies the whitelist policy before any staff operation runs.
type Middleware struct {
	registry *identity.Registry
	policy   *Policy
}

// NewMiddleware constructs middleware.
func NewMiddleware(registry *identity.Registry, policy *Policy) *Middleware {
	return &Middleware{registry: registry, policy: policy}
}

// Handle enforces authentication and authorization for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	verifier, err := m.registry.Resolve(c.Get(providerHeader))
	if err != nil {
		return err
	}

	ident, err := verifier.Verify(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	if err := m.policy.Authorize(ident); err != nil {
		return err
	}

	c.Locals(identityKey, ident)
	return c.Next()
}

// IdentityFromContext retrieves the verified staff identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	ident, ok := val.(*domain.Identity)
	return ident, ok
}
