package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

const principalKey = "auth_principal"

// Middleware validates bearer tokens and loads the staff principal
// from the directory.
type Middleware struct {
	tokens *TokenManager
	staff  repository.StaffRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, staff repository.StaffRepository) *Middleware {
	return &Middleware{tokens: tokens, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
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

	member, err := m.staff.GetByUsername(c.UserContext(), claims.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized("staff member not found")
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if !member.Active {
		return apperrors.NewUnauthorized("staff member inactive")
	}

	c.Locals(principalKey, member)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated staff member.
func PrincipalFromContext(c *fiber.Ctx) (*domain.StaffMember, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	member, ok := val.(*domain.StaffMember)
	return member, ok
}
