package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/xueshanchen/picbed/config"
	v1 "github.com/xueshanchen/picbed/internal/controller/restapi/v1"
	"github.com/xueshanchen/picbed/internal/usecase"
	"github.com/xueshanchen/picbed/pkg/logger"
)

// @title Picbed
// @version 1.0.0
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(app *fiber.App, cfg *config.Config, img usecase.ImageUseCase, auth usecase.AuthUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiGroup := app.Group("/api")
	{
		v1.NewRoutes(apiGroup, img, auth, l)
	}
}
