package v1

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/xueshanchen/picbed/internal/controller/restapi/v1/response"
	"github.com/xueshanchen/picbed/internal/usecase"
	"github.com/xueshanchen/picbed/pkg/logger"
)

type V1 struct {
	img    usecase.ImageUseCase
	auth   usecase.AuthUseCase
	logger logger.Interface
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

func internalError(ctx *fiber.Ctx) error {
	return errorResponse(ctx, http.StatusInternalServerError, "internal problems")
}
