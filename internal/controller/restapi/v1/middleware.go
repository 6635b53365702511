package v1

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xueshanchen/picbed/internal/entity"
)

const userLocalsKey = "user"

// authRequired resolves the bearer token into a user and stores it in
// the request locals. Any failure ends the request with 401.
func (r *V1) authRequired(ctx *fiber.Ctx) error {
	header := ctx.Get(fiber.HeaderAuthorization)

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return errorResponse(ctx, http.StatusUnauthorized, "bearer token is required")
	}

	user, err := r.auth.Validate(ctx.UserContext(), token)
	if err != nil {
		return errorResponse(ctx, http.StatusUnauthorized, "invalid or expired token")
	}

	ctx.Locals(userLocalsKey, user)

	return ctx.Next()
}

func currentUser(ctx *fiber.Ctx) *entity.User {
	user, _ := ctx.Locals(userLocalsKey).(*entity.User)

	return user
}
