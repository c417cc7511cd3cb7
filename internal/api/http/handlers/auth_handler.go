package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freeler-client/internal/api/dto"
	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/service"
	apperrors "github.com/spec-kit/freeler-client/pkg/util/errorutil"
)

// AuthHandler exposes login, registration and logout.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Login(c.UserContext(), domain.Credentials{Email: req.Email, Password: req.Password}, req.SessionType)
	if err != nil {
		return err
	}
	return c.JSON(sessionEnvelope(result))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Register(c.UserContext(), domain.Registration{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		NationalID: req.NationalID,
		Phone:      req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionEnvelope(result))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal.SubjectID()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionEnvelope(r *service.LoginResult) dto.SessionEnvelope {
	return dto.SessionEnvelope{Data: dto.SessionData{
		User: dto.UserResponse{
			ID:        domain.ID(r.UserID),
			Name:      r.Name,
			Email:     r.Email,
			CompanyID: domain.ID(r.CompanyID),
		},
		Role: r.RoleLabel,
		Auth: dto.AuthResponse{Token: r.Token, ExpiresAt: r.ExpiresAt},
	}}
}
