package middleware

import (
	"strings"

	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization))
		}

		admin, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "Unauthorized: "+err.Error())
		}

		ctx.Locals("adminID", admin.AdminID)
		ctx.Locals("admin", admin)
		return ctx.Next()
	}
}
