package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/freeler-client/pkg/util/errorutil"
)

// RequireAnySession ensures caller is authenticated (referral agent or staff).
func RequireAnySession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
