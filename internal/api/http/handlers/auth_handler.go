package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sbhdesk/complaint-engine/internal/api/dto"
	"github.com/sbhdesk/complaint-engine/internal/auth"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// AuthHandler exposes staff login.
type AuthHandler struct {
	staff  repository.StaffRepository
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(staff repository.StaffRepository, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{staff: staff, tokens: tokens}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	member, err := h.staff.GetByUsername(c.UserContext(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return apperrors.NewExternalIO(err)
	}
	if !member.Active {
		return apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(member.PasswordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken(member)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile: dto.Profile{
			Username:   member.Username,
			Name:       member.Name,
			Role:       string(member.Role),
			Department: member.Department,
		},
	}})
}
