package middleware

import (
	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/gofiber/fiber/v2"
)

const UserIDHeader = "X-User-ID"

// RequireUser trusts the identity header set by the authenticating proxy.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(UserIDHeader)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    constants.ErrCodeMissingUser,
				"message": constants.GetErrorMessage(constants.ErrCodeMissingUser),
			})
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}
