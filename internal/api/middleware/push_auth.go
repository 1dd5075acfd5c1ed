package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/pkg/utils"
)

type PushAuthMiddleware struct {
	cfg config.Config
}

func NewPushAuthMiddleware(cfg config.Config) *PushAuthMiddleware {
	return &PushAuthMiddleware{cfg: cfg}
}

// PushAuth verifies the bearer token the queue broker attaches to push
// deliveries. The stage claim is stored on the context so handlers can
// reject tokens minted for a different endpoint.
func (m *PushAuthMiddleware) PushAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		claims, err := utils.ValidatePushToken(m.cfg.PushSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Info(err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("push_stage", claims.Stage)
		return c.Next()
	}
}
